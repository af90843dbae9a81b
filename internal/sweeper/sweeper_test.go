package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LocusServer/config"
	"LocusServer/internal/repository"
	"LocusServer/model"
	"LocusServer/pkg/clock"
	"LocusServer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var sweeperTestLoggerOnce sync.Once

func initSweeperTestLogger() {
	sweeperTestLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

type fakeSweepMessageRepo struct {
	expireOverdueFn      func(ctx context.Context, now time.Time) (int64, error)
	purgeExpiredBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeSweepMessageRepo) Create(context.Context, *model.Message) error { return nil }
func (f *fakeSweepMessageRepo) GetByUUID(context.Context, string) (*model.Message, error) {
	return nil, repository.ErrRecordNotFound
}
func (f *fakeSweepMessageRepo) ExistsForDay(context.Context, string, string, string) (bool, error) {
	return false, nil
}
func (f *fakeSweepMessageRepo) GetTodayReceived(context.Context, string, string, string) (*model.Message, error) {
	return nil, repository.ErrRecordNotFound
}
func (f *fakeSweepMessageRepo) MarkRead(context.Context, string) error { return nil }

func (f *fakeSweepMessageRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	if f.expireOverdueFn == nil {
		return 0, nil
	}
	return f.expireOverdueFn(ctx, now)
}

func (f *fakeSweepMessageRepo) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.purgeExpiredBeforeFn == nil {
		return 0, nil
	}
	return f.purgeExpiredBeforeFn(ctx, cutoff)
}

type fakeSweepTraceRepo struct {
	purgeExpiredBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeSweepTraceRepo) CreateWithQuota(context.Context, *model.Trace, int, time.Time) error {
	return nil
}
func (f *fakeSweepTraceRepo) GetByUUID(context.Context, string) (*model.Trace, error) {
	return nil, repository.ErrRecordNotFound
}
func (f *fakeSweepTraceRepo) ListByCell(context.Context, int64, int64, time.Time, int, int) ([]*model.Trace, int64, error) {
	return nil, 0, nil
}
func (f *fakeSweepTraceRepo) GetLikedSet(context.Context, string, []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}
func (f *fakeSweepTraceRepo) Like(context.Context, string, string) (int64, error)   { return 0, nil }
func (f *fakeSweepTraceRepo) Unlike(context.Context, string, string) (int64, error) { return 0, nil }
func (f *fakeSweepTraceRepo) Report(context.Context, string, string, string, float64) (bool, error) {
	return false, nil
}
func (f *fakeSweepTraceRepo) SoftDelete(context.Context, string) error { return nil }

func (f *fakeSweepTraceRepo) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.purgeExpiredBeforeFn == nil {
		return 0, nil
	}
	return f.purgeExpiredBeforeFn(ctx, cutoff)
}

func TestSweeperSweepOnce(t *testing.T) {
	initSweeperTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clk := clock.NewManualClock(now)

	t.Run("passes_business_time_and_retention_cutoff", func(t *testing.T) {
		var gotExpireNow, gotMsgCutoff, gotTraceCutoff time.Time
		msgRepo := &fakeSweepMessageRepo{
			expireOverdueFn: func(_ context.Context, n time.Time) (int64, error) {
				gotExpireNow = n
				return 2, nil
			},
			purgeExpiredBeforeFn: func(_ context.Context, cutoff time.Time) (int64, error) {
				gotMsgCutoff = cutoff
				return 1, nil
			},
		}
		traceRepo := &fakeSweepTraceRepo{
			purgeExpiredBeforeFn: func(_ context.Context, cutoff time.Time) (int64, error) {
				gotTraceCutoff = cutoff
				return 3, nil
			},
		}

		s := New(msgRepo, traceRepo, clk, config.SweeperConfig{
			Interval:         time.Minute,
			MessagePurgeDays: 7,
		})
		s.SweepOnce(context.Background())

		assert.True(t, now.Equal(gotExpireNow))
		assert.True(t, now.AddDate(0, 0, -7).Equal(gotMsgCutoff))
		assert.True(t, now.Equal(gotTraceCutoff))
	})

	t.Run("message_step_failure_does_not_stop_trace_step", func(t *testing.T) {
		traceCalled := false
		msgRepo := &fakeSweepMessageRepo{
			expireOverdueFn: func(_ context.Context, _ time.Time) (int64, error) {
				return 0, errors.New("db down")
			},
			purgeExpiredBeforeFn: func(_ context.Context, _ time.Time) (int64, error) {
				return 0, errors.New("db down")
			},
		}
		traceRepo := &fakeSweepTraceRepo{
			purgeExpiredBeforeFn: func(_ context.Context, _ time.Time) (int64, error) {
				traceCalled = true
				return 0, nil
			},
		}

		s := New(msgRepo, traceRepo, clk, config.SweeperConfig{Interval: time.Minute, MessagePurgeDays: 7})
		s.SweepOnce(context.Background())

		assert.True(t, traceCalled)
	})
}
