package repository

import (
	"context"
	"time"

	"LocusServer/model"

	"gorm.io/gorm"
)

// messageRepositoryImpl 消息数据访问层实现
type messageRepositoryImpl struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *gorm.DB) IMessageRepository {
	return &messageRepositoryImpl{db: db}
}

// Create 创建消息
// uidx_conn_sender_day 唯一索引兜底每日一条，冲突返回 ErrDuplicateKey
func (r *messageRepositoryImpl) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

// GetByUUID 根据UUID查询消息
func (r *messageRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		First(&msg).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &msg, nil
}

// ExistsForDay 检查 (连接, 发送者, 自然日) 是否已有消息（快速路径预检查）
func (r *messageRepositoryImpl) ExistsForDay(ctx context.Context, connectionUUID, senderUUID, sentDay string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("connection_uuid = ? AND sender_uuid = ? AND sent_day = ?", connectionUUID, senderUUID, sentDay).
		Count(&count).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// GetTodayReceived 查询连接内当日发给 userUUID 的消息（对方发出的那条）
func (r *messageRepositoryImpl) GetTodayReceived(ctx context.Context, connectionUUID, userUUID, sentDay string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("connection_uuid = ? AND sender_uuid <> ? AND sent_day = ? AND status = ?",
			connectionUUID, userUUID, sentDay, model.MsgStatusActive).
		First(&msg).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &msg, nil
}

// MarkRead 标记已读
// 已读消息再次标记不命中任何行，幂等成功
func (r *messageRepositoryImpl) MarkRead(ctx context.Context, uuid string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("uuid = ? AND is_read = ?", uuid, false).
		Update("is_read", true).Error
	if err != nil {
		return WrapDBError(err)
	}
	return nil
}

// ExpireOverdue 将展示期已过的消息翻转为 EXPIRED
func (r *messageRepositoryImpl) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("status = ? AND expire_at <= ?", model.MsgStatusActive, now).
		Update("status", model.MsgStatusExpired)
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}

// PurgeExpiredBefore 物理清除过期超过保留期的消息
func (r *messageRepositoryImpl) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND expire_at <= ?", model.MsgStatusExpired, cutoff).
		Delete(&model.Message{})
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}
