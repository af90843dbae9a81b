package dto

import (
	"LocusServer/model"
)

// ==================== 足迹相关 DTO ====================

// WriteTraceRequest 写足迹请求 DTO
type WriteTraceRequest struct {
	Content string  `json:"content" binding:"required,min=1,max=60"` // 足迹内容
	ToneTag string  `json:"toneTag" binding:"omitempty,max=16"`      // 语气标签（可选）
	Lat     float64 `json:"lat" binding:"required"`                  // 纬度
	Lng     float64 `json:"lng" binding:"required"`                  // 经度
}

// ListTraceRequest 足迹列表请求 DTO
type ListTraceRequest struct {
	Lat      float64 `form:"lat" binding:"required"`                          // 纬度
	Lng      float64 `form:"lng" binding:"required"`                          // 经度
	Page     int32   `form:"page" binding:"omitempty,min=1"`                  // 页码
	PageSize int32   `form:"pageSize" binding:"omitempty,min=1,max=100"`      // 每页大小
}

// TraceItem 足迹信息 DTO
type TraceItem struct {
	UUID       string  `json:"uuid"`       // 足迹UUID
	AuthorUUID string  `json:"authorUuid"` // 作者UUID
	Content    string  `json:"content"`    // 足迹内容
	ToneTag    string  `json:"toneTag"`    // 语气标签
	Lat        float64 `json:"lat"`        // 纬度
	Lng        float64 `json:"lng"`        // 经度
	LikeCount  int64   `json:"likeCount"`  // 点赞数
	IsLiked    bool    `json:"isLiked"`    // 当前用户是否点赞过
	IsMine     bool    `json:"isMine"`     // 是否为当前用户所写
	CreatedAt  int64   `json:"createdAt"`  // 创建时间（毫秒时间戳）
	ExpireAt   int64   `json:"expireAt"`   // 过期时间（毫秒时间戳）
}

// ListTraceResponse 足迹列表响应 DTO
type ListTraceResponse struct {
	Items      []*TraceItem    `json:"items"`      // 足迹列表
	Pagination *PaginationInfo `json:"pagination"` // 分页信息
}

// TracePermissionResponse 足迹写入许可响应 DTO
type TracePermissionResponse struct {
	Permission      string `json:"permission"`                // FREE_AVAILABLE/FREE_USED/PAID_AVAILABLE/DENIED_COOLDOWN
	NextAvailableAt int64  `json:"nextAvailableAt,omitempty"` // 冷却结束时间（毫秒时间戳，仅冷却中返回）
}

// LikeTraceResponse 点赞响应 DTO
type LikeTraceResponse struct {
	LikeCount int64 `json:"likeCount"` // 最新点赞数
}

// ReportTraceRequest 举报请求 DTO
type ReportTraceRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=200"` // 举报原因（可选）
}

// ReportTraceResponse 举报响应 DTO
type ReportTraceResponse struct {
	Hidden bool `json:"hidden"` // 本次举报是否触发隐藏
}

// MockPaymentRequest 通行证模拟支付请求 DTO
type MockPaymentRequest struct {
	Tier         string `json:"tier" binding:"required,oneof=single threeDay"` // 通行证档位
	PaymentToken string `json:"paymentToken" binding:"omitempty"`              // 支付凭证
}

// MockPaymentResponse 通行证模拟支付响应 DTO
type MockPaymentResponse struct {
	PassExpireAt int64 `json:"passExpireAt"` // 通行证过期时间（毫秒时间戳）
}

// ==================== 足迹 DTO 转换函数 ====================

// ConvertTraceItemFromModel 将足迹模型转换为 DTO，isLiked/isMine 由调用方标注
func ConvertTraceItemFromModel(trace *model.Trace, isLiked, isMine bool) *TraceItem {
	if trace == nil {
		return nil
	}
	return &TraceItem{
		UUID:       trace.Uuid,
		AuthorUUID: trace.AuthorUuid,
		Content:    trace.Content,
		ToneTag:    trace.ToneTag,
		Lat:        trace.Lat,
		Lng:        trace.Lng,
		LikeCount:  trace.LikeCount,
		IsLiked:    isLiked,
		IsMine:     isMine,
		CreatedAt:  trace.CreatedAt.UnixMilli(),
		ExpireAt:   trace.ExpireAt.UnixMilli(),
	}
}
