package model

import (
	"math"
	"time"
)

// Trace 足迹表
// 绑定到粗粒度网格单元的限时短内容。
// 读取走 idx_cell(grid_x,grid_y,status)；like_count 与 trace_like 表的
// 行数必须始终一致（同事务条件更新维护）。
type Trace struct {
	Id         int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uuid       string `gorm:"column:uuid;type:char(20);not null;uniqueIndex:uidx_uuid;comment:足迹uuid"`
	AuthorUuid string `gorm:"column:author_uuid;type:char(20);not null;index;comment:作者uuid"`

	Content string `gorm:"column:content;type:varchar(60);not null;comment:足迹内容"`
	ToneTag string `gorm:"column:tone_tag;type:varchar(16);not null;comment:语气标签"`

	Lat   float64 `gorm:"column:lat;type:decimal(10,7);not null;comment:纬度"`
	Lng   float64 `gorm:"column:lng;type:decimal(10,7);not null;comment:经度"`
	GridX int64   `gorm:"column:grid_x;not null;index:idx_cell;comment:网格x floor(lat/0.001)"`
	GridY int64   `gorm:"column:grid_y;not null;index:idx_cell;comment:网格y floor(lng/0.001)"`

	Status      int8    `gorm:"column:status;not null;default:0;index:idx_cell;comment:状态 0.展示中 1.已隐藏 2.已删除"`
	LikeCount   int64   `gorm:"column:like_count;not null;default:0;comment:点赞数"`
	ReportScore float64 `gorm:"column:report_score;not null;default:0;comment:举报累计分"`

	CreatedAt time.Time `gorm:"column:created_at;not null;comment:创建时间(业务时钟)"`
	ExpireAt  time.Time `gorm:"column:expire_at;not null;index;comment:过期时间 created_at+72h"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Trace) TableName() string { return "trace" }

const (
	// TraceStatusActive 展示中
	TraceStatusActive int8 = 0
	// TraceStatusHidden 已隐藏（举报分达阈值，单向翻转）
	TraceStatusHidden int8 = 1
	// TraceStatusRemoved 已删除（作者自删或运营操作，软删除）
	TraceStatusRemoved int8 = 2
)

const (
	// TraceGridSize 网格粒度（约111米）
	TraceGridSize = 0.001
	// TraceMaxLen 足迹内容最大长度（按字符数）
	TraceMaxLen = 60
	// TraceTTL 足迹存活时间
	TraceTTL = 72 * time.Hour
	// TraceCooldown 通行证写入冷却时间
	TraceCooldown = 2 * time.Hour
	// TraceHideScore 自动隐藏的举报分阈值
	TraceHideScore = 3.0
)

// GridCell 计算坐标所属的网格单元
func GridCell(lat, lng float64) (int64, int64) {
	return int64(math.Floor(lat / TraceGridSize)), int64(math.Floor(lng / TraceGridSize))
}

// ValidToneTags 允许的语气标签
var ValidToneTags = map[string]bool{
	"calm":   true,
	"joy":    true,
	"miss":   true,
	"sigh":   true,
	"wonder": true,
}

// TraceLike 足迹点赞表
// 约束：uniqueIndex:uidx_trace_user 确保同一用户对同一足迹只点赞一次，
// 并与 trace.like_count 的增减在同一事务内联动。
type TraceLike struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	TraceUuid string    `gorm:"column:trace_uuid;type:char(20);not null;uniqueIndex:uidx_trace_user;comment:足迹uuid"`
	UserUuid  string    `gorm:"column:user_uuid;type:char(20);not null;index;uniqueIndex:uidx_trace_user;comment:点赞用户uuid"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TraceLike) TableName() string { return "trace_like" }

// TraceReport 足迹举报表
// 约束：uniqueIndex:uidx_trace_reporter 从存储层拦截重复举报，
// 应用层的预检查只是为了更友好的错误提示。
type TraceReport struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	TraceUuid    string    `gorm:"column:trace_uuid;type:char(20);not null;uniqueIndex:uidx_trace_reporter;comment:足迹uuid"`
	ReporterUuid string    `gorm:"column:reporter_uuid;type:char(20);not null;uniqueIndex:uidx_trace_reporter;comment:举报人uuid"`
	Reason       string    `gorm:"column:reason;type:varchar(200);comment:举报原因"`
	Influence    float64   `gorm:"column:influence;not null;default:1;comment:计入举报分的权重"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TraceReport) TableName() string { return "trace_report" }

// ==================== 足迹通行证 ====================

const (
	// TracePassTierSingle 单次档：通行证有效期 24h
	TracePassTierSingle = "single"
	// TracePassTierThreeDay 三日档：通行证有效期 48h
	TracePassTierThreeDay = "threeDay"

	// TracePassSingleTTL 单次档有效期
	TracePassSingleTTL = 24 * time.Hour
	// TracePassThreeDayTTL 三日档有效期
	TracePassThreeDayTTL = 48 * time.Hour
)
