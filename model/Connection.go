package model

import (
	"time"
)

// Connection 消息模式连接表
// 一对一、限时、付费的每日消息通道。生命周期：
// PENDING -> ACTIVE_PERIOD -> EXPIRED；PENDING -> REJECTED/BLOCKED/CANCELED。
// 终态不可再变更；记录不做物理删除。
// "每人至多一条进行中连接" 的唯一性由 connection_lock 表在事务内保证，
// 本表的状态字段只做 CAS 守门（WHERE status=? 更新）。
type Connection struct {
	Id            int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uuid          string `gorm:"column:uuid;type:char(20);not null;uniqueIndex:uidx_uuid;comment:连接uuid"`
	InitiatorUuid string `gorm:"column:initiator_uuid;type:char(20);not null;index:idx_initiator_status;comment:发起方uuid(付费方)"`
	RecipientUuid string `gorm:"column:recipient_uuid;type:char(20);not null;index:idx_recipient_status;comment:接收方uuid"`

	Status       int8 `gorm:"column:status;not null;default:0;index:idx_initiator_status;index:idx_recipient_status;comment:状态 0.待处理 1.生效期 2.已拒绝 3.已过期 4.已拉黑 5.已取消"`
	DurationDays int8 `gorm:"column:duration_days;not null;comment:连接时长(天) 1或3"`

	// 生效期时间，仅在进入 ACTIVE_PERIOD 时写入
	StartDate *time.Time `gorm:"column:start_date;comment:生效开始时间"`
	EndDate   *time.Time `gorm:"column:end_date;comment:生效结束时间 start_date+duration_days"`

	// 待处理请求 TTL，与生效期时间无关
	RequestedAt time.Time `gorm:"column:requested_at;not null;comment:请求发起时间"`
	ExpireAt    time.Time `gorm:"column:expire_at;not null;index;comment:待处理请求过期时间"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Connection) TableName() string { return "connection" }

const (
	// ConnStatusPending 待处理
	ConnStatusPending int8 = 0
	// ConnStatusActive 生效期
	ConnStatusActive int8 = 1
	// ConnStatusRejected 已拒绝
	ConnStatusRejected int8 = 2
	// ConnStatusExpired 已过期
	ConnStatusExpired int8 = 3
	// ConnStatusBlocked 已拉黑
	ConnStatusBlocked int8 = 4
	// ConnStatusCanceled 已取消
	ConnStatusCanceled int8 = 5
)

// PendingRequestTTL 待处理请求的存活时间
const PendingRequestTTL = 72 * time.Hour

// IsLiveStatus 判断是否为进行中状态（占用双方连接名额）
func IsLiveStatus(status int8) bool {
	return status == ConnStatusPending || status == ConnStatusActive
}

// ConnectionLock 进行中连接占位表
// 每个用户至多持有一行；PENDING 创建时为双方各插入一行，
// 进入终态的同一事务中删除。user_uuid 的唯一索引是
// "每人至多一条进行中连接" 不变量的最终防线（应用层检查只是快速路径）。
type ConnectionLock struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserUuid       string    `gorm:"column:user_uuid;type:char(20);not null;uniqueIndex:uidx_user;comment:占位用户uuid"`
	ConnectionUuid string    `gorm:"column:connection_uuid;type:char(20);not null;index;comment:对应连接uuid"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ConnectionLock) TableName() string { return "connection_lock" }
