package dto

import (
	"LocusServer/model"
)

// ==================== 用户拉黑相关 DTO ====================

// GetBlockListRequest 获取拉黑列表请求 DTO
type GetBlockListRequest struct {
	Page     int32 `form:"page" binding:"omitempty,min=1"`             // 页码
	PageSize int32 `form:"pageSize" binding:"omitempty,min=1,max=100"` // 每页大小
}

// BlockItem 拉黑信息 DTO
type BlockItem struct {
	PeerUUID     string `json:"peerUuid"`     // 被拉黑用户UUID
	PeerNickname string `json:"peerNickname"` // 被拉黑用户昵称
	Source       string `json:"source"`       // 拉黑来源
	CreatedAt    int64  `json:"createdAt"`    // 拉黑时间（毫秒时间戳）
}

// GetBlockListResponse 获取拉黑列表响应 DTO
type GetBlockListResponse struct {
	Items      []*BlockItem    `json:"items"`      // 拉黑列表
	Pagination *PaginationInfo `json:"pagination"` // 分页信息
}

// ==================== 用户拉黑 DTO 转换函数 ====================

// ConvertBlockItemFromModel 将拉黑模型转换为 DTO，昵称由调用方补全
func ConvertBlockItemFromModel(block *model.UserBlock, peerNickname string) *BlockItem {
	if block == nil {
		return nil
	}
	return &BlockItem{
		PeerUUID:     block.PeerUuid,
		PeerNickname: peerNickname,
		Source:       block.Source,
		CreatedAt:    block.CreatedAt.UnixMilli(),
	}
}
