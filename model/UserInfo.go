package model

import (
	"time"

	"gorm.io/gorm"
)

// UserInfo 用户表
// 除身份信息外，承载核心引擎用到的足迹配额与通行证状态。
// 约束：uuid 唯一；email 唯一（登录凭证）。
type UserInfo struct {
	Id       int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uuid     string `gorm:"column:uuid;type:char(20);not null;uniqueIndex:uidx_uuid;comment:用户uuid"`
	Nickname string `gorm:"column:nickname;type:varchar(32);not null;comment:昵称"`
	Email    string `gorm:"column:email;type:varchar(128);not null;uniqueIndex:uidx_email;comment:登录邮箱"`
	Password string `gorm:"column:password;type:varchar(128);not null;comment:密码(bcrypt)"`

	// 足迹配额状态
	TraceDailyCount   int        `gorm:"column:trace_daily_count;not null;default:0;comment:当日已写足迹数"`
	LastTraceAt       *time.Time `gorm:"column:last_trace_at;comment:最近一次写足迹时间"`
	TracePassExpireAt *time.Time `gorm:"column:trace_pass_expire_at;comment:足迹通行证过期时间"`

	// 举报权重，默认 1.0，运营侧可调
	ReportInfluence float64 `gorm:"column:report_influence;not null;default:1;comment:举报权重"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserInfo) TableName() string { return "user_info" }
