package model

import (
	"time"

	"gorm.io/gorm"
)

// UserBlock 拉黑关系表（单向）。
// 约束：uniqueIndex:uidx_user_peer 确保同一对用户不重复；
// 对称判定（任一方向存在即视为不可交互）由查询两个方向实现。
type UserBlock struct {
	Id        int64          `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserUuid  string         `gorm:"column:user_uuid;type:char(20);not null;uniqueIndex:uidx_user_peer;comment:发起拉黑的用户uuid"`
	PeerUuid  string         `gorm:"column:peer_uuid;type:char(20);not null;index;uniqueIndex:uidx_user_peer;comment:被拉黑的用户uuid"`
	Source    string         `gorm:"column:source;type:varchar(32);comment:拉黑来源，如连接请求/手动"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserBlock) TableName() string { return "user_block" }

const (
	// BlockSourceConnection 在连接请求处理中拉黑
	BlockSourceConnection = "connection"
	// BlockSourceManual 用户手动拉黑
	BlockSourceManual = "manual"
)
