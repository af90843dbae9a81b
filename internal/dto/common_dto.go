package dto

import (
	"LocusServer/model"
)

// ==================== 通用 DTO 定义 ====================

// UserSummary 用户摘要 DTO
type UserSummary struct {
	UUID     string `json:"uuid"`     // 用户UUID
	Nickname string `json:"nickname"` // 昵称
}

// PaginationInfo 分页信息 DTO
type PaginationInfo struct {
	Page       int32 `json:"page"`       // 当前页码
	PageSize   int32 `json:"pageSize"`   // 每页大小
	Total      int64 `json:"total"`      // 总记录数
	TotalPages int32 `json:"totalPages"` // 总页数
}

// NewPaginationInfo 计算分页信息
func NewPaginationInfo(page, pageSize int32, total int64) *PaginationInfo {
	if pageSize <= 0 {
		pageSize = 20
	}
	totalPages := int32((total + int64(pageSize) - 1) / int64(pageSize))
	return &PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// ==================== 通用 DTO 转换函数 ====================

// ConvertUserSummaryFromModel 将用户模型转换为摘要 DTO
func ConvertUserSummaryFromModel(user *model.UserInfo) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		UUID:     user.Uuid,
		Nickname: user.Nickname,
	}
}
