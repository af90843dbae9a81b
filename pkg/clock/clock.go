package clock

import (
	"sync"
	"time"
)

// Clock 提供业务时间。
// 核心逻辑中所有时间比较（配额重置、冷却窗口、过期判断）都必须经过
// Clock，禁止直接读系统时间，保证时间相关行为可测试、可回放。
type Clock interface {
	Now() time.Time
}

// ==================== 生产实现 ====================

// SystemClock 直接读取壁钟
type SystemClock struct{}

// NewSystemClock 创建系统时钟
func NewSystemClock() *SystemClock { return &SystemClock{} }

func (*SystemClock) Now() time.Time { return time.Now() }

// ==================== 测试模式实现 ====================

// OffsetClock 壁钟加可变天数偏移。
// 偏移量为进程内状态，不做持久化，进程重启后归零。
// 仅在测试模式下挂到 /dev 接口上，生产路径不可达。
type OffsetClock struct {
	mu         sync.RWMutex
	offsetDays int
}

// NewOffsetClock 创建带天数偏移的时钟，初始偏移为 0
func NewOffsetClock() *OffsetClock { return &OffsetClock{} }

func (c *OffsetClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().AddDate(0, 0, c.offsetDays)
}

// AdvanceDay 将偏移量增加 n 天（n 可为负）
func (c *OffsetClock) AdvanceDay(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsetDays += n
}

// Reset 将偏移量归零
func (c *OffsetClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsetDays = 0
}

// Offset 返回当前偏移天数
func (c *OffsetClock) Offset() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offsetDays
}

// ==================== 单测实现 ====================

// ManualClock 完全手动控制的时钟，仅用于单元测试
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock 创建手动时钟
func NewManualClock(now time.Time) *ManualClock { return &ManualClock{now: now} }

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set 设置当前时间
func (c *ManualClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance 将当前时间前进 d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ==================== 日历日辅助 ====================

// DayStart 返回 t 所在本地自然日的 00:00:00
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameCalendarDay 判断两个时间是否落在同一本地自然日。
// 按完整日期（年/月/日）比较，而不是只比日号，避免跨月歧义。
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayString 返回 t 的本地日期字符串，用于 DATE 列写入
func DayString(t time.Time) string {
	return t.Format("2006-01-02")
}
