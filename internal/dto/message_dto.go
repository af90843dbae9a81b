package dto

import (
	"LocusServer/model"
)

// ==================== 消息相关 DTO ====================

// SendMessageRequest 发送消息请求 DTO
type SendMessageRequest struct {
	ConnectionUUID string `json:"connectionUuid" binding:"required"`        // 所属连接UUID
	Content        string `json:"content" binding:"required,min=1,max=500"` // 消息内容
}

// MessageInfo 消息信息 DTO
type MessageInfo struct {
	UUID           string `json:"uuid"`           // 消息UUID
	ConnectionUUID string `json:"connectionUuid"` // 所属连接UUID
	SenderUUID     string `json:"senderUuid"`     // 发送者UUID
	Content        string `json:"content"`        // 消息内容
	IsRead         bool   `json:"isRead"`         // 接收方是否已读
	SentAt         int64  `json:"sentAt"`         // 发送时间（毫秒时间戳）
	ExpireAt       int64  `json:"expireAt"`       // 展示过期时间（毫秒时间戳）
}

// GetTodayMessageResponse 获取今日收到消息响应 DTO
type GetTodayMessageResponse struct {
	Message *MessageInfo `json:"message"` // 今日收到的消息，没有时为 null
}

// ==================== 消息 DTO 转换函数 ====================

// ConvertMessageInfoFromModel 将消息模型转换为 DTO
func ConvertMessageInfoFromModel(msg *model.Message) *MessageInfo {
	if msg == nil {
		return nil
	}
	return &MessageInfo{
		UUID:           msg.Uuid,
		ConnectionUUID: msg.ConnectionUuid,
		SenderUUID:     msg.SenderUuid,
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		SentAt:         msg.SentAt.UnixMilli(),
		ExpireAt:       msg.ExpireAt.UnixMilli(),
	}
}
