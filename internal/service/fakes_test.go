package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"LocusServer/internal/ports"
	"LocusServer/model"
	"LocusServer/pkg/errs"
	"LocusServer/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var serviceTestLoggerOnce sync.Once

func initServiceTestLogger() {
	serviceTestLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

func requireBizCode(t *testing.T, err error, wantCode int32) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, wantCode, errs.CodeOf(err))
}

// ==================== 用户 Repository Fake ====================

type fakeUserRepository struct {
	getByUUIDFn           func(ctx context.Context, uuid string) (*model.UserInfo, error)
	getByEmailFn          func(ctx context.Context, email string) (*model.UserInfo, error)
	existsByEmailFn       func(ctx context.Context, email string) (bool, error)
	createFn              func(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error)
	getSummariesByUUIDsFn func(ctx context.Context, uuids []string) (map[string]*model.UserInfo, error)
	setTracePassFn        func(ctx context.Context, userUUID string, passExpireAt, lastTraceAt time.Time) error
	addBlockFn            func(ctx context.Context, userUUID, peerUUID, source string) error
	removeBlockFn         func(ctx context.Context, userUUID, peerUUID string) error
	isBlockedFn           func(ctx context.Context, userUUID, peerUUID string) (bool, error)
	listBlocksFn          func(ctx context.Context, userUUID string, page, pageSize int) ([]*model.UserBlock, int64, error)
}

func (f *fakeUserRepository) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	if f.getByUUIDFn == nil {
		return &model.UserInfo{Uuid: uuid}, nil
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	if f.getByEmailFn == nil {
		return &model.UserInfo{Email: email}, nil
	}
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsByEmailFn == nil {
		return false, nil
	}
	return f.existsByEmailFn(ctx, email)
}

func (f *fakeUserRepository) Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error) {
	if f.createFn == nil {
		return user, nil
	}
	return f.createFn(ctx, user)
}

func (f *fakeUserRepository) GetSummariesByUUIDs(ctx context.Context, uuids []string) (map[string]*model.UserInfo, error) {
	if f.getSummariesByUUIDsFn == nil {
		out := make(map[string]*model.UserInfo, len(uuids))
		for _, u := range uuids {
			out[u] = &model.UserInfo{Uuid: u, Nickname: "nick-" + u}
		}
		return out, nil
	}
	return f.getSummariesByUUIDsFn(ctx, uuids)
}

func (f *fakeUserRepository) SetTracePass(ctx context.Context, userUUID string, passExpireAt, lastTraceAt time.Time) error {
	if f.setTracePassFn == nil {
		return nil
	}
	return f.setTracePassFn(ctx, userUUID, passExpireAt, lastTraceAt)
}

func (f *fakeUserRepository) AddBlock(ctx context.Context, userUUID, peerUUID, source string) error {
	if f.addBlockFn == nil {
		return nil
	}
	return f.addBlockFn(ctx, userUUID, peerUUID, source)
}

func (f *fakeUserRepository) RemoveBlock(ctx context.Context, userUUID, peerUUID string) error {
	if f.removeBlockFn == nil {
		return nil
	}
	return f.removeBlockFn(ctx, userUUID, peerUUID)
}

func (f *fakeUserRepository) IsBlocked(ctx context.Context, userUUID, peerUUID string) (bool, error) {
	if f.isBlockedFn == nil {
		return false, nil
	}
	return f.isBlockedFn(ctx, userUUID, peerUUID)
}

func (f *fakeUserRepository) ListBlocks(ctx context.Context, userUUID string, page, pageSize int) ([]*model.UserBlock, int64, error) {
	if f.listBlocksFn == nil {
		return nil, 0, nil
	}
	return f.listBlocksFn(ctx, userUUID, page, pageSize)
}

// ==================== 连接 Repository Fake ====================

type fakeConnectionRepository struct {
	createFn            func(ctx context.Context, conn *model.Connection) error
	getByUUIDFn         func(ctx context.Context, uuid string) (*model.Connection, error)
	getLiveByUserFn     func(ctx context.Context, userUUID string) (*model.Connection, error)
	activateFn          func(ctx context.Context, uuid string, startDate, endDate time.Time) error
	terminateFn         func(ctx context.Context, uuid string, fromStatuses []int8, toStatus int8) error
	blockAndTerminateFn func(ctx context.Context, uuid, actingUserUUID, initiatorUUID string) error
}

func (f *fakeConnectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, conn)
}

func (f *fakeConnectionRepository) GetByUUID(ctx context.Context, uuid string) (*model.Connection, error) {
	if f.getByUUIDFn == nil {
		return &model.Connection{Uuid: uuid}, nil
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeConnectionRepository) GetLiveByUser(ctx context.Context, userUUID string) (*model.Connection, error) {
	if f.getLiveByUserFn == nil {
		return nil, nil
	}
	return f.getLiveByUserFn(ctx, userUUID)
}

func (f *fakeConnectionRepository) Activate(ctx context.Context, uuid string, startDate, endDate time.Time) error {
	if f.activateFn == nil {
		return nil
	}
	return f.activateFn(ctx, uuid, startDate, endDate)
}

func (f *fakeConnectionRepository) Terminate(ctx context.Context, uuid string, fromStatuses []int8, toStatus int8) error {
	if f.terminateFn == nil {
		return nil
	}
	return f.terminateFn(ctx, uuid, fromStatuses, toStatus)
}

func (f *fakeConnectionRepository) BlockAndTerminate(ctx context.Context, uuid, actingUserUUID, initiatorUUID string) error {
	if f.blockAndTerminateFn == nil {
		return nil
	}
	return f.blockAndTerminateFn(ctx, uuid, actingUserUUID, initiatorUUID)
}

// ==================== 消息 Repository Fake ====================

type fakeMessageRepository struct {
	createFn             func(ctx context.Context, msg *model.Message) error
	getByUUIDFn          func(ctx context.Context, uuid string) (*model.Message, error)
	existsForDayFn       func(ctx context.Context, connectionUUID, senderUUID, sentDay string) (bool, error)
	getTodayReceivedFn   func(ctx context.Context, connectionUUID, userUUID, sentDay string) (*model.Message, error)
	markReadFn           func(ctx context.Context, uuid string) error
	expireOverdueFn      func(ctx context.Context, now time.Time) (int64, error)
	purgeExpiredBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, msg)
}

func (f *fakeMessageRepository) GetByUUID(ctx context.Context, uuid string) (*model.Message, error) {
	if f.getByUUIDFn == nil {
		return &model.Message{Uuid: uuid}, nil
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeMessageRepository) ExistsForDay(ctx context.Context, connectionUUID, senderUUID, sentDay string) (bool, error) {
	if f.existsForDayFn == nil {
		return false, nil
	}
	return f.existsForDayFn(ctx, connectionUUID, senderUUID, sentDay)
}

func (f *fakeMessageRepository) GetTodayReceived(ctx context.Context, connectionUUID, userUUID, sentDay string) (*model.Message, error) {
	if f.getTodayReceivedFn == nil {
		return nil, nil
	}
	return f.getTodayReceivedFn(ctx, connectionUUID, userUUID, sentDay)
}

func (f *fakeMessageRepository) MarkRead(ctx context.Context, uuid string) error {
	if f.markReadFn == nil {
		return nil
	}
	return f.markReadFn(ctx, uuid)
}

func (f *fakeMessageRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	if f.expireOverdueFn == nil {
		return 0, nil
	}
	return f.expireOverdueFn(ctx, now)
}

func (f *fakeMessageRepository) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.purgeExpiredBeforeFn == nil {
		return 0, nil
	}
	return f.purgeExpiredBeforeFn(ctx, cutoff)
}

// ==================== 足迹 Repository Fake ====================

type fakeTraceRepository struct {
	createWithQuotaFn    func(ctx context.Context, trace *model.Trace, dailyCount int, lastTraceAt time.Time) error
	getByUUIDFn          func(ctx context.Context, uuid string) (*model.Trace, error)
	listByCellFn         func(ctx context.Context, gridX, gridY int64, now time.Time, page, pageSize int) ([]*model.Trace, int64, error)
	getLikedSetFn        func(ctx context.Context, userUUID string, traceUUIDs []string) (map[string]bool, error)
	likeFn               func(ctx context.Context, traceUUID, userUUID string) (int64, error)
	unlikeFn             func(ctx context.Context, traceUUID, userUUID string) (int64, error)
	reportFn             func(ctx context.Context, traceUUID, reporterUUID, reason string, influence float64) (bool, error)
	softDeleteFn         func(ctx context.Context, traceUUID string) error
	purgeExpiredBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeTraceRepository) CreateWithQuota(ctx context.Context, trace *model.Trace, dailyCount int, lastTraceAt time.Time) error {
	if f.createWithQuotaFn == nil {
		return nil
	}
	return f.createWithQuotaFn(ctx, trace, dailyCount, lastTraceAt)
}

func (f *fakeTraceRepository) GetByUUID(ctx context.Context, uuid string) (*model.Trace, error) {
	if f.getByUUIDFn == nil {
		return &model.Trace{Uuid: uuid}, nil
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeTraceRepository) ListByCell(ctx context.Context, gridX, gridY int64, now time.Time, page, pageSize int) ([]*model.Trace, int64, error) {
	if f.listByCellFn == nil {
		return nil, 0, nil
	}
	return f.listByCellFn(ctx, gridX, gridY, now, page, pageSize)
}

func (f *fakeTraceRepository) GetLikedSet(ctx context.Context, userUUID string, traceUUIDs []string) (map[string]bool, error) {
	if f.getLikedSetFn == nil {
		return map[string]bool{}, nil
	}
	return f.getLikedSetFn(ctx, userUUID, traceUUIDs)
}

func (f *fakeTraceRepository) Like(ctx context.Context, traceUUID, userUUID string) (int64, error) {
	if f.likeFn == nil {
		return 0, nil
	}
	return f.likeFn(ctx, traceUUID, userUUID)
}

func (f *fakeTraceRepository) Unlike(ctx context.Context, traceUUID, userUUID string) (int64, error) {
	if f.unlikeFn == nil {
		return 0, nil
	}
	return f.unlikeFn(ctx, traceUUID, userUUID)
}

func (f *fakeTraceRepository) Report(ctx context.Context, traceUUID, reporterUUID, reason string, influence float64) (bool, error) {
	if f.reportFn == nil {
		return false, nil
	}
	return f.reportFn(ctx, traceUUID, reporterUUID, reason, influence)
}

func (f *fakeTraceRepository) SoftDelete(ctx context.Context, traceUUID string) error {
	if f.softDeleteFn == nil {
		return nil
	}
	return f.softDeleteFn(ctx, traceUUID)
}

func (f *fakeTraceRepository) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.purgeExpiredBeforeFn == nil {
		return 0, nil
	}
	return f.purgeExpiredBeforeFn(ctx, cutoff)
}

// ==================== 端口 Fake ====================

type fakePaymentPort struct {
	verifyFn func(ctx context.Context, userUUID, tier, token string) (bool, error)
}

func (f *fakePaymentPort) Verify(ctx context.Context, userUUID, tier, token string) (bool, error) {
	if f.verifyFn == nil {
		return true, nil
	}
	return f.verifyFn(ctx, userUUID, tier, token)
}

type fakeNotificationPort struct {
	mu       sync.Mutex
	sent     []ports.Notification
	onNotify func(n ports.Notification)
}

func (f *fakeNotificationPort) Notify(ctx context.Context, n ports.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	if f.onNotify != nil {
		f.onNotify(n)
	}
}

func (f *fakeNotificationPort) sentKinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}
