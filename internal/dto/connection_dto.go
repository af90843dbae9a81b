package dto

import (
	"LocusServer/model"
)

// ==================== 连接相关 DTO ====================

// RequestConnectionRequest 发起连接请求 DTO
type RequestConnectionRequest struct {
	RecipientUUID string `json:"recipientUuid" binding:"required"`      // 接收方UUID
	DurationDays  int8   `json:"durationDays" binding:"required"`       // 连接时长(天)，只允许1或3
	PaymentToken  string `json:"paymentToken" binding:"omitempty"`      // 支付凭证（支付开关打开时必填）
	Greeting      string `json:"greeting" binding:"omitempty,max=100"`  // 附言（可选，仅用于通知）
}

// ConnectionInfo 连接信息 DTO
type ConnectionInfo struct {
	UUID         string       `json:"uuid"`                // 连接UUID
	Initiator    *UserSummary `json:"initiator"`           // 发起方摘要
	Recipient    *UserSummary `json:"recipient"`           // 接收方摘要
	Status       int8         `json:"status"`              // 状态
	DurationDays int8         `json:"durationDays"`        // 连接时长(天)
	StartDate    int64        `json:"startDate,omitempty"` // 生效开始时间（毫秒时间戳，生效期才有）
	EndDate      int64        `json:"endDate,omitempty"`   // 生效结束时间（毫秒时间戳，生效期才有）
	RequestedAt  int64        `json:"requestedAt"`         // 请求发起时间（毫秒时间戳）
	ExpireAt     int64        `json:"expireAt"`            // 待处理请求过期时间（毫秒时间戳）
}

// GetCurrentConnectionResponse 获取当前连接响应 DTO
type GetCurrentConnectionResponse struct {
	Connection   *ConnectionInfo `json:"connection"`   // 当前连接，无进行中连接时为 null
	CanSendToday bool            `json:"canSendToday"` // 今日是否还可发送消息
}

// ==================== 连接 DTO 转换函数 ====================

// ConvertConnectionInfoFromModel 将连接模型转换为 DTO，摘要由调用方补全
func ConvertConnectionInfoFromModel(conn *model.Connection, initiator, recipient *UserSummary) *ConnectionInfo {
	if conn == nil {
		return nil
	}
	info := &ConnectionInfo{
		UUID:         conn.Uuid,
		Initiator:    initiator,
		Recipient:    recipient,
		Status:       conn.Status,
		DurationDays: conn.DurationDays,
		RequestedAt:  conn.RequestedAt.UnixMilli(),
		ExpireAt:     conn.ExpireAt.UnixMilli(),
	}
	if conn.StartDate != nil {
		info.StartDate = conn.StartDate.UnixMilli()
	}
	if conn.EndDate != nil {
		info.EndDate = conn.EndDate.UnixMilli()
	}
	return info
}
