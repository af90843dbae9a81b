package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetClockAdvanceAndReset(t *testing.T) {
	c := NewOffsetClock()
	require.Equal(t, 0, c.Offset())

	base := time.Now()
	c.AdvanceDay(1)
	assert.Equal(t, 1, c.Offset())
	// 偏移后的时间应该落在明天附近（允许执行耗时误差）
	diff := c.Now().Sub(base)
	assert.InDelta(t, (24 * time.Hour).Seconds(), diff.Seconds(), 5)

	c.AdvanceDay(2)
	assert.Equal(t, 3, c.Offset())

	c.AdvanceDay(-1)
	assert.Equal(t, 2, c.Offset())

	c.Reset()
	assert.Equal(t, 0, c.Offset())
}

func TestManualClock(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)
	c := NewManualClock(base)
	require.Equal(t, base, c.Now())

	c.Advance(30 * time.Minute)
	assert.Equal(t, base.Add(30*time.Minute), c.Now())

	c.Set(base.AddDate(0, 0, 1))
	assert.Equal(t, base.AddDate(0, 0, 1), c.Now())
}

func TestSameCalendarDay(t *testing.T) {
	t.Run("same_day_different_hours", func(t *testing.T) {
		a := time.Date(2025, 6, 1, 0, 0, 1, 0, time.Local)
		b := time.Date(2025, 6, 1, 23, 59, 59, 0, time.Local)
		assert.True(t, SameCalendarDay(a, b))
	})

	t.Run("adjacent_days", func(t *testing.T) {
		a := time.Date(2025, 6, 1, 23, 59, 59, 0, time.Local)
		b := time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)
		assert.False(t, SameCalendarDay(a, b))
	})

	t.Run("same_day_of_month_different_month", func(t *testing.T) {
		// 只比日号的实现会在这里误判
		a := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
		b := time.Date(2025, 7, 15, 12, 0, 0, 0, time.Local)
		assert.False(t, SameCalendarDay(a, b))
	})
}

func TestDayStartAndString(t *testing.T) {
	a := time.Date(2025, 6, 1, 18, 30, 12, 0, time.Local)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), DayStart(a))
	assert.Equal(t, "2025-06-01", DayString(a))
}
