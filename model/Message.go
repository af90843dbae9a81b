package model

import (
	"time"
)

// Message 每日消息表
// 约束：uniqueIndex:uidx_conn_sender_day 确保同一连接内同一发送者
// 每个自然日至多一条消息——这是 "每日一条" 配额的最终防线，
// 应用层的存在性检查只是快速路径。sent_day 由业务时钟（可测试偏移）
// 的本地日历日期写入，与消息自身 24h 展示过期无关。
type Message struct {
	Id             int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uuid           string `gorm:"column:uuid;type:char(20);not null;uniqueIndex:uidx_uuid;comment:消息uuid"`
	ConnectionUuid string `gorm:"column:connection_uuid;type:char(20);not null;index;uniqueIndex:uidx_conn_sender_day;comment:所属连接uuid"`
	SenderUuid     string `gorm:"column:sender_uuid;type:char(20);not null;uniqueIndex:uidx_conn_sender_day;comment:发送者uuid"`
	SentDay        string `gorm:"column:sent_day;type:date;not null;uniqueIndex:uidx_conn_sender_day;comment:发送自然日(业务时钟本地日期)"`

	Content string `gorm:"column:content;type:varchar(500);not null;comment:消息内容"`
	IsRead  bool   `gorm:"column:is_read;not null;default:false;comment:接收方是否已读"`
	Status  int8   `gorm:"column:status;not null;default:0;comment:状态 0.展示中 1.已过期"`

	SentAt   time.Time `gorm:"column:sent_at;not null;comment:发送时间"`
	ExpireAt time.Time `gorm:"column:expire_at;not null;index;comment:展示过期时间 sent_at+24h"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Message) TableName() string { return "message" }

const (
	// MsgStatusActive 展示中
	MsgStatusActive int8 = 0
	// MsgStatusExpired 已过期（由后台清扫任务翻转）
	MsgStatusExpired int8 = 1
)

const (
	// MessageMaxLen 消息内容最大长度（按字符数）
	MessageMaxLen = 500
	// MessageDisplayTTL 消息展示时长
	MessageDisplayTTL = 24 * time.Hour
	// SentDayLayout sent_day 列的日期格式
	SentDayLayout = "2006-01-02"
)
