package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/internal/repository"
	"LocusServer/model"
	"LocusServer/pkg/clock"
	"LocusServer/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestResolveWritePermission(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name       string
		user       *model.UserInfo
		wantPerm   string
		wantNextAt *time.Time
	}{
		{
			name:     "new_user_free_available",
			user:     &model.UserInfo{},
			wantPerm: PermFreeAvailable,
		},
		{
			name: "free_used_same_day",
			user: &model.UserInfo{
				TraceDailyCount: 1,
				LastTraceAt:     timePtr(now.Add(-3 * time.Hour)),
			},
			wantPerm: PermFreeUsed,
		},
		{
			name: "free_resets_on_new_calendar_day",
			user: &model.UserInfo{
				TraceDailyCount: 1,
				LastTraceAt:     timePtr(now.AddDate(0, 0, -1)),
			},
			wantPerm: PermFreeAvailable,
		},
		{
			// 上次写入在上个月同日号，完整日期比较下是不同的自然日
			name: "free_resets_across_month_same_day_of_month",
			user: &model.UserInfo{
				TraceDailyCount: 1,
				LastTraceAt:     timePtr(now.AddDate(0, -1, 0)),
			},
			wantPerm: PermFreeAvailable,
		},
		{
			name: "expired_pass_falls_back_to_free",
			user: &model.UserInfo{
				TracePassExpireAt: timePtr(now.Add(-time.Minute)),
				TraceDailyCount:   1,
				LastTraceAt:       timePtr(now.Add(-time.Hour)),
			},
			wantPerm: PermFreeUsed,
		},
		{
			name: "paid_available_no_prior_write",
			user: &model.UserInfo{
				TracePassExpireAt: timePtr(now.Add(12 * time.Hour)),
			},
			wantPerm: PermPaidAvailable,
		},
		{
			name: "paid_available_after_cooldown",
			user: &model.UserInfo{
				TracePassExpireAt: timePtr(now.Add(12 * time.Hour)),
				LastTraceAt:       timePtr(now.Add(-2 * time.Hour)),
			},
			wantPerm: PermPaidAvailable,
		},
		{
			name: "denied_cooldown_within_window",
			user: &model.UserInfo{
				TracePassExpireAt: timePtr(now.Add(12 * time.Hour)),
				LastTraceAt:       timePtr(now.Add(-30 * time.Minute)),
			},
			wantPerm:   PermDeniedCooldown,
			wantNextAt: timePtr(now.Add(90 * time.Minute)),
		},
		{
			// 时钟被回拨时上次写入在未来，不进入冷却
			name: "negative_diff_bypasses_cooldown",
			user: &model.UserInfo{
				TracePassExpireAt: timePtr(now.Add(12 * time.Hour)),
				LastTraceAt:       timePtr(now.Add(time.Hour)),
			},
			wantPerm: PermPaidAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perm, nextAt := resolveWritePermission(tt.user, now)
			assert.Equal(t, tt.wantPerm, perm)
			if tt.wantNextAt == nil {
				assert.Nil(t, nextAt)
			} else {
				require.NotNil(t, nextAt)
				assert.True(t, tt.wantNextAt.Equal(*nextAt))
			}
		})
	}
}

func TestTraceServiceWrite(t *testing.T) {
	initServiceTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clk := clock.NewManualClock(now)

	newService := func(userRepo *fakeUserRepository, traceRepo *fakeTraceRepository) ITraceService {
		return NewTraceService(traceRepo, userRepo, clk, &fakePaymentPort{})
	}

	validReq := func() *dto.WriteTraceRequest {
		return &dto.WriteTraceRequest{
			Content: "hello from here",
			ToneTag: "calm",
			Lat:     31.2304,
			Lng:     121.4737,
		}
	}

	t.Run("invalid_location", func(t *testing.T) {
		svc := newService(&fakeUserRepository{}, &fakeTraceRepository{})
		req := validReq()
		req.Lat = 91

		item, err := svc.Write(context.Background(), "u1", req)
		require.Nil(t, item)
		requireBizCode(t, err, consts.CodeInvalidLocation)
	})

	t.Run("invalid_tone_tag", func(t *testing.T) {
		svc := newService(&fakeUserRepository{}, &fakeTraceRepository{})
		req := validReq()
		req.ToneTag = "angry"

		item, err := svc.Write(context.Background(), "u1", req)
		require.Nil(t, item)
		requireBizCode(t, err, consts.CodeInvalidToneTag)
	})

	t.Run("free_used_rejected", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				return &model.UserInfo{
					Uuid:            uuid,
					TraceDailyCount: 1,
					LastTraceAt:     timePtr(now.Add(-time.Hour)),
				}, nil
			},
		}
		svc := newService(userRepo, &fakeTraceRepository{})

		item, err := svc.Write(context.Background(), "u1", validReq())
		require.Nil(t, item)
		requireBizCode(t, err, consts.CodeTraceFreeUsed)
	})

	t.Run("cooldown_rejected_with_next_available_at", func(t *testing.T) {
		last := now.Add(-30 * time.Minute)
		userRepo := &fakeUserRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				return &model.UserInfo{
					Uuid:              uuid,
					TracePassExpireAt: timePtr(now.Add(6 * time.Hour)),
					LastTraceAt:       timePtr(last),
				}, nil
			},
		}
		svc := newService(userRepo, &fakeTraceRepository{})

		item, err := svc.Write(context.Background(), "u1", validReq())
		require.Nil(t, item)
		requireBizCode(t, err, consts.CodeTraceCooldown)

		nextAt := errs.NextAvailableOf(err)
		require.NotNil(t, nextAt)
		assert.True(t, last.Add(model.TraceCooldown).Equal(*nextAt))
	})

	t.Run("success_resets_daily_count_on_new_day", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				return &model.UserInfo{
					Uuid:            uuid,
					TraceDailyCount: 1,
					LastTraceAt:     timePtr(now.AddDate(0, 0, -1)),
				}, nil
			},
		}

		var gotTrace *model.Trace
		var gotDailyCount int
		traceRepo := &fakeTraceRepository{
			createWithQuotaFn: func(_ context.Context, trace *model.Trace, dailyCount int, lastTraceAt time.Time) error {
				gotTrace = trace
				gotDailyCount = dailyCount
				assert.True(t, now.Equal(lastTraceAt))
				return nil
			},
		}
		svc := newService(userRepo, traceRepo)

		item, err := svc.Write(context.Background(), "u1", validReq())
		require.NoError(t, err)
		require.NotNil(t, item)
		require.NotNil(t, gotTrace)

		// 跨自然日首写把计数重置为 1
		assert.Equal(t, 1, gotDailyCount)
		assert.Equal(t, "u1", gotTrace.AuthorUuid)
		assert.Equal(t, int64(31230), gotTrace.GridX)
		assert.Equal(t, int64(121473), gotTrace.GridY)
		assert.True(t, now.Add(model.TraceTTL).Equal(gotTrace.ExpireAt))
		assert.True(t, item.IsMine)
	})

	t.Run("success_increments_same_day_count_with_pass", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				return &model.UserInfo{
					Uuid:              uuid,
					TraceDailyCount:   2,
					LastTraceAt:       timePtr(now.Add(-3 * time.Hour)),
					TracePassExpireAt: timePtr(now.Add(6 * time.Hour)),
				}, nil
			},
		}

		var gotDailyCount int
		traceRepo := &fakeTraceRepository{
			createWithQuotaFn: func(_ context.Context, _ *model.Trace, dailyCount int, _ time.Time) error {
				gotDailyCount = dailyCount
				return nil
			},
		}
		svc := newService(userRepo, traceRepo)

		item, err := svc.Write(context.Background(), "u1", validReq())
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, 3, gotDailyCount)
	})
}

func TestTraceServiceList(t *testing.T) {
	initServiceTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clk := clock.NewManualClock(now)

	t.Run("annotates_liked_and_mine", func(t *testing.T) {
		traceRepo := &fakeTraceRepository{
			listByCellFn: func(_ context.Context, gridX, gridY int64, _ time.Time, page, pageSize int) ([]*model.Trace, int64, error) {
				assert.Equal(t, int64(31230), gridX)
				assert.Equal(t, int64(121473), gridY)
				assert.Equal(t, 1, page)
				assert.Equal(t, 20, pageSize)
				return []*model.Trace{
					{Uuid: "t1", AuthorUuid: "u1"},
					{Uuid: "t2", AuthorUuid: "u2"},
				}, 2, nil
			},
			getLikedSetFn: func(_ context.Context, userUUID string, traceUUIDs []string) (map[string]bool, error) {
				assert.Equal(t, "u1", userUUID)
				assert.Equal(t, []string{"t1", "t2"}, traceUUIDs)
				return map[string]bool{"t2": true}, nil
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		resp, err := svc.List(context.Background(), "u1", &dto.ListTraceRequest{Lat: 31.2304, Lng: 121.4737})
		require.NoError(t, err)
		require.Len(t, resp.Items, 2)
		assert.True(t, resp.Items[0].IsMine)
		assert.False(t, resp.Items[0].IsLiked)
		assert.False(t, resp.Items[1].IsMine)
		assert.True(t, resp.Items[1].IsLiked)
		assert.Equal(t, int64(2), resp.Pagination.Total)
	})

	t.Run("invalid_location", func(t *testing.T) {
		svc := NewTraceService(&fakeTraceRepository{}, &fakeUserRepository{}, clk, &fakePaymentPort{})
		resp, err := svc.List(context.Background(), "u1", &dto.ListTraceRequest{Lat: 0, Lng: 200})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeInvalidLocation)
	})
}

func TestTraceServiceLikeUnlike(t *testing.T) {
	initServiceTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clk := clock.NewManualClock(now)

	visibleTrace := func(uuid string) *model.Trace {
		return &model.Trace{
			Uuid:     uuid,
			Status:   model.TraceStatusActive,
			ExpireAt: now.Add(time.Hour),
		}
	}

	t.Run("like_returns_latest_count", func(t *testing.T) {
		traceRepo := &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.Trace, error) {
				return visibleTrace(uuid), nil
			},
			likeFn: func(_ context.Context, traceUUID, userUUID string) (int64, error) {
				assert.Equal(t, "t1", traceUUID)
				assert.Equal(t, "u1", userUUID)
				return 5, nil
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		resp, err := svc.Like(context.Background(), "u1", "t1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.LikeCount)
	})

	t.Run("like_hidden_trace_not_found", func(t *testing.T) {
		traceRepo := &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.Trace, error) {
				trace := visibleTrace(uuid)
				trace.Status = model.TraceStatusHidden
				return trace, nil
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		resp, err := svc.Like(context.Background(), "u1", "t1")
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeTraceNotFound)
	})

	t.Run("like_expired_trace_not_found", func(t *testing.T) {
		traceRepo := &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.Trace, error) {
				trace := visibleTrace(uuid)
				trace.ExpireAt = now.Add(-time.Minute)
				return trace, nil
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		resp, err := svc.Like(context.Background(), "u1", "t1")
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeTraceNotFound)
	})

	t.Run("unlike_returns_latest_count", func(t *testing.T) {
		traceRepo := &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.Trace, error) {
				return visibleTrace(uuid), nil
			},
			unlikeFn: func(_ context.Context, _, _ string) (int64, error) {
				return 4, nil
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		resp, err := svc.Unlike(context.Background(), "u1", "t1")
		require.NoError(t, err)
		assert.Equal(t, int64(4), resp.LikeCount)
	})
}

func TestTraceServiceReport(t *testing.T) {
	initServiceTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clk := clock.NewManualClock(now)

	visibleRepo := func(reportFn func(ctx context.Context, traceUUID, reporterUUID, reason string, influence float64) (bool, error)) *fakeTraceRepository {
		return &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.Trace, error) {
				return &model.Trace{Uuid: uuid, Status: model.TraceStatusActive, ExpireAt: now.Add(time.Hour)}, nil
			},
			reportFn: reportFn,
		}
	}

	t.Run("uses_reporter_influence", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				return &model.UserInfo{Uuid: uuid, ReportInfluence: 1.5}, nil
			},
		}
		traceRepo := visibleRepo(func(_ context.Context, traceUUID, reporterUUID, reason string, influence float64) (bool, error) {
			assert.Equal(t, "t1", traceUUID)
			assert.Equal(t, "u1", reporterUUID)
			assert.Equal(t, "spam", reason)
			assert.Equal(t, 1.5, influence)
			return true, nil
		})
		svc := NewTraceService(traceRepo, userRepo, clk, &fakePaymentPort{})

		resp, err := svc.Report(context.Background(), "u1", "t1", &dto.ReportTraceRequest{Reason: "spam"})
		require.NoError(t, err)
		assert.True(t, resp.Hidden)
	})

	t.Run("duplicate_report", func(t *testing.T) {
		traceRepo := visibleRepo(func(_ context.Context, _, _, _ string, _ float64) (bool, error) {
			return false, repository.ErrDuplicateKey
		})
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		resp, err := svc.Report(context.Background(), "u1", "t1", &dto.ReportTraceRequest{})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeAlreadyReported)
	})
}

func TestTraceServiceDelete(t *testing.T) {
	initServiceTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clk := clock.NewManualClock(now)

	t.Run("author_only", func(t *testing.T) {
		traceRepo := &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.Trace, error) {
				return &model.Trace{Uuid: uuid, AuthorUuid: "u2", Status: model.TraceStatusActive}, nil
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		err := svc.Delete(context.Background(), "u1", "t1")
		requireBizCode(t, err, consts.CodeTraceNotAuthor)
	})

	t.Run("not_found", func(t *testing.T) {
		traceRepo := &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, _ string) (*model.Trace, error) {
				return nil, repository.ErrRecordNotFound
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		err := svc.Delete(context.Background(), "u1", "t1")
		requireBizCode(t, err, consts.CodeTraceNotFound)
	})

	t.Run("success", func(t *testing.T) {
		var deleted string
		traceRepo := &fakeTraceRepository{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.Trace, error) {
				return &model.Trace{Uuid: uuid, AuthorUuid: "u1", Status: model.TraceStatusActive}, nil
			},
			softDeleteFn: func(_ context.Context, traceUUID string) error {
				deleted = traceUUID
				return nil
			},
		}
		svc := NewTraceService(traceRepo, &fakeUserRepository{}, clk, &fakePaymentPort{})

		require.NoError(t, svc.Delete(context.Background(), "u1", "t1"))
		assert.Equal(t, "t1", deleted)
	})
}

func TestTraceServiceMockPayment(t *testing.T) {
	initServiceTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	clk := clock.NewManualClock(now)

	t.Run("invalid_tier", func(t *testing.T) {
		svc := NewTraceService(&fakeTraceRepository{}, &fakeUserRepository{}, clk, &fakePaymentPort{})
		resp, err := svc.MockPayment(context.Background(), "u1", &dto.MockPaymentRequest{Tier: "yearly"})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeInvalidTier)
	})

	t.Run("payment_rejected", func(t *testing.T) {
		payment := &fakePaymentPort{
			verifyFn: func(_ context.Context, _, _, _ string) (bool, error) {
				return false, nil
			},
		}
		svc := NewTraceService(&fakeTraceRepository{}, &fakeUserRepository{}, clk, payment)

		resp, err := svc.MockPayment(context.Background(), "u1", &dto.MockPaymentRequest{Tier: model.TracePassTierSingle})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodePaymentRejected)
	})

	t.Run("payment_service_unavailable", func(t *testing.T) {
		payment := &fakePaymentPort{
			verifyFn: func(_ context.Context, _, _, _ string) (bool, error) {
				return false, errors.New("breaker open")
			},
		}
		svc := NewTraceService(&fakeTraceRepository{}, &fakeUserRepository{}, clk, payment)

		resp, err := svc.MockPayment(context.Background(), "u1", &dto.MockPaymentRequest{Tier: model.TracePassTierSingle})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeServiceUnavailable)
	})

	t.Run("single_tier_sets_24h_pass_and_backdates", func(t *testing.T) {
		var gotPassExpireAt, gotLastTraceAt time.Time
		userRepo := &fakeUserRepository{
			setTracePassFn: func(_ context.Context, userUUID string, passExpireAt, lastTraceAt time.Time) error {
				assert.Equal(t, "u1", userUUID)
				gotPassExpireAt = passExpireAt
				gotLastTraceAt = lastTraceAt
				return nil
			},
		}
		svc := NewTraceService(&fakeTraceRepository{}, userRepo, clk, &fakePaymentPort{})

		resp, err := svc.MockPayment(context.Background(), "u1", &dto.MockPaymentRequest{Tier: model.TracePassTierSingle})
		require.NoError(t, err)
		require.NotNil(t, resp)

		assert.True(t, now.Add(model.TracePassSingleTTL).Equal(gotPassExpireAt))
		// 回拨到冷却窗口之外，购买后立即可写
		assert.True(t, gotLastTraceAt.Before(now.Add(-model.TraceCooldown)))
		assert.Equal(t, gotPassExpireAt.UnixMilli(), resp.PassExpireAt)
	})

	t.Run("three_day_tier_sets_48h_pass", func(t *testing.T) {
		var gotPassExpireAt time.Time
		userRepo := &fakeUserRepository{
			setTracePassFn: func(_ context.Context, _ string, passExpireAt, _ time.Time) error {
				gotPassExpireAt = passExpireAt
				return nil
			},
		}
		svc := NewTraceService(&fakeTraceRepository{}, userRepo, clk, &fakePaymentPort{})

		_, err := svc.MockPayment(context.Background(), "u1", &dto.MockPaymentRequest{Tier: model.TracePassTierThreeDay})
		require.NoError(t, err)
		assert.True(t, now.Add(model.TracePassThreeDayTTL).Equal(gotPassExpireAt))
	})
}
