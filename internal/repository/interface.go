package repository

import (
	"context"
	"time"

	"LocusServer/model"
)

// ==================== 用户 Repository ====================

// IUserRepository 用户数据访问接口
type IUserRepository interface {
	// GetByUUID 根据UUID查询用户信息
	GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error)

	// GetByEmail 根据邮箱查询用户信息
	GetByEmail(ctx context.Context, email string) (*model.UserInfo, error)

	// ExistsByEmail 检查邮箱是否已被注册
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create 创建新用户
	Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error)

	// GetSummariesByUUIDs 批量查询用户摘要（昵称等），带进程内缓存
	GetSummariesByUUIDs(ctx context.Context, uuids []string) (map[string]*model.UserInfo, error)

	// SetTracePass 设置通行证过期时间并回拨最近写入时间（仅支付流程调用）
	SetTracePass(ctx context.Context, userUUID string, passExpireAt, lastTraceAt time.Time) error

	// AddBlock 拉黑用户（幂等，重复拉黑恢复软删行）
	AddBlock(ctx context.Context, userUUID, peerUUID, source string) error

	// RemoveBlock 取消拉黑，无拉黑关系时返回 ErrRecordNotFound
	RemoveBlock(ctx context.Context, userUUID, peerUUID string) error

	// IsBlocked 检查 userUUID 是否拉黑了 peerUUID（单向）
	IsBlocked(ctx context.Context, userUUID, peerUUID string) (bool, error)

	// ListBlocks 获取拉黑列表
	ListBlocks(ctx context.Context, userUUID string, page, pageSize int) ([]*model.UserBlock, int64, error)
}

// ==================== 连接 Repository ====================

// IConnectionRepository 连接数据访问接口
// 进行中连接的唯一性由 connection_lock 表的 user_uuid 唯一索引保证
type IConnectionRepository interface {
	// Create 创建待处理连接并为双方插入占位行（同事务）
	// 发起方占位冲突返回 ErrInitiatorBusy，接收方占位冲突返回 ErrRecipientBusy
	Create(ctx context.Context, conn *model.Connection) error

	// GetByUUID 根据UUID查询连接
	GetByUUID(ctx context.Context, uuid string) (*model.Connection, error)

	// GetLiveByUser 查询用户的进行中连接（PENDING 或 ACTIVE_PERIOD），无则返回 ErrRecordNotFound
	GetLiveByUser(ctx context.Context, userUUID string) (*model.Connection, error)

	// Activate 接受连接：CAS 置为生效期并写入起止时间
	// WHERE status=PENDING 未命中任何行时返回 ErrStateChanged
	Activate(ctx context.Context, uuid string, startDate, endDate time.Time) error

	// Terminate 将连接从 fromStatus CAS 置为终态，并在同事务内释放双方占位行
	// 未命中任何行时返回 ErrStateChanged
	Terminate(ctx context.Context, uuid string, fromStatuses []int8, toStatus int8) error

	// BlockAndTerminate 接收方拉黑处理：终态置为 BLOCKED、释放占位、写入拉黑关系（同事务）
	BlockAndTerminate(ctx context.Context, uuid, actingUserUUID, initiatorUUID string) error
}

// ==================== 消息 Repository ====================

// IMessageRepository 消息数据访问接口
// 每日一条的约束由 (connection_uuid, sender_uuid, sent_day) 唯一索引保证
type IMessageRepository interface {
	// Create 创建消息，当日重复发送返回 ErrDuplicateKey
	Create(ctx context.Context, msg *model.Message) error

	// GetByUUID 根据UUID查询消息
	GetByUUID(ctx context.Context, uuid string) (*model.Message, error)

	// ExistsForDay 检查 (连接, 发送者, 自然日) 是否已有消息
	ExistsForDay(ctx context.Context, connectionUUID, senderUUID, sentDay string) (bool, error)

	// GetTodayReceived 查询连接内当日发给 userUUID 的消息（即非其本人发出），无则返回 ErrRecordNotFound
	GetTodayReceived(ctx context.Context, connectionUUID, userUUID, sentDay string) (*model.Message, error)

	// MarkRead 标记已读（幂等）
	MarkRead(ctx context.Context, uuid string) error

	// ExpireOverdue 将展示期已过的消息翻转为 EXPIRED，返回翻转行数
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// PurgeExpiredBefore 物理清除过期超过保留期的消息，返回清除行数
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ==================== 足迹 Repository ====================

// ITraceRepository 足迹数据访问接口
type ITraceRepository interface {
	// CreateWithQuota 创建足迹并在同事务内更新作者的配额字段
	CreateWithQuota(ctx context.Context, trace *model.Trace, dailyCount int, lastTraceAt time.Time) error

	// GetByUUID 根据UUID查询足迹
	GetByUUID(ctx context.Context, uuid string) (*model.Trace, error)

	// ListByCell 查询网格单元内展示中且未过期的足迹，按创建时间倒序分页
	ListByCell(ctx context.Context, gridX, gridY int64, now time.Time, page, pageSize int) ([]*model.Trace, int64, error)

	// GetLikedSet 查询用户在给定足迹集合中点赞过的子集
	GetLikedSet(ctx context.Context, userUUID string, traceUUIDs []string) (map[string]bool, error)

	// Like 点赞（幂等），返回最新点赞数
	Like(ctx context.Context, traceUUID, userUUID string) (int64, error)

	// Unlike 取消点赞（幂等），返回最新点赞数
	Unlike(ctx context.Context, traceUUID, userUUID string) (int64, error)

	// Report 举报：插入举报记录并累加举报分，达阈值翻转 HIDDEN（同事务）
	// 重复举报返回 ErrDuplicateKey；返回值表示本次是否触发隐藏
	Report(ctx context.Context, traceUUID, reporterUUID, reason string, influence float64) (bool, error)

	// SoftDelete 作者软删除，置为 REMOVED
	SoftDelete(ctx context.Context, traceUUID string) error

	// PurgeExpiredBefore 物理清除过期足迹，返回清除行数
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
