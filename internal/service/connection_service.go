package service

import (
	"context"
	"errors"
	"time"

	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/internal/ports"
	"LocusServer/internal/repository"
	"LocusServer/model"
	"LocusServer/pkg/clock"
	"LocusServer/pkg/errs"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/util"
)

// connectionServiceImpl 连接服务实现
type connectionServiceImpl struct {
	connRepo    repository.IConnectionRepository
	userRepo    repository.IUserRepository
	msgRepo     repository.IMessageRepository
	clk         clock.Clock
	paymentPort ports.IPaymentPort
	notifyPort  ports.INotificationPort
}

// NewConnectionService 创建连接服务实例
func NewConnectionService(
	connRepo repository.IConnectionRepository,
	userRepo repository.IUserRepository,
	msgRepo repository.IMessageRepository,
	clk clock.Clock,
	paymentPort ports.IPaymentPort,
	notifyPort ports.INotificationPort,
) IConnectionService {
	return &connectionServiceImpl{
		connRepo:    connRepo,
		userRepo:    userRepo,
		msgRepo:     msgRepo,
		clk:         clk,
		paymentPort: paymentPort,
		notifyPort:  notifyPort,
	}
}

// Request 发起连接请求
// 业务流程：
//  1. 参数校验（时长、不可自连）
//  2. 接收方存在性与拉黑校验
//  3. 支付校验（发起方付费）
//  4. 双方忙碌快速检查（含懒惰过期）
//  5. 创建 PENDING 连接（占位表唯一索引兜底忙碌不变量）
//  6. 通知接收方
//
// 错误码映射：
//   - CodeInvalidDuration: 时长不是1或3
//   - CodeSelfConnection: 自己连自己
//   - CodeUserNotFound: 接收方不存在
//   - CodeUserBlocked: 已被接收方拉黑
//   - CodePaymentRejected: 支付校验未通过
//   - CodeSelfBusy / CodePeerBusy: 任一方已有进行中连接
func (s *connectionServiceImpl) Request(ctx context.Context, userUUID string, req *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error) {
	now := s.clk.Now()

	// 1. 参数校验
	if req.DurationDays != 1 && req.DurationDays != 3 {
		return nil, errs.New(consts.CodeInvalidDuration)
	}
	if req.RecipientUUID == userUUID {
		return nil, errs.New(consts.CodeSelfConnection)
	}

	// 2. 接收方存在性
	if _, err := s.userRepo.GetByUUID(ctx, req.RecipientUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeUserNotFound)
		}
		return nil, errs.Internal(err)
	}

	// 接收方拉黑了发起方则直接拒绝
	blocked, err := s.userRepo.IsBlocked(ctx, req.RecipientUUID, userUUID)
	if err != nil {
		return nil, errs.Internal(err)
	}
	if blocked {
		return nil, errs.New(consts.CodeUserBlocked)
	}

	// 3. 支付校验，未通过不产生任何状态
	ok, err := s.paymentPort.Verify(ctx, userUUID, connectionTier(req.DurationDays), req.PaymentToken)
	if err != nil {
		logger.Error(ctx, "支付校验服务异常",
			logger.ErrorField("error", err),
		)
		return nil, errs.Wrap(consts.CodeServiceUnavailable, err)
	}
	if !ok {
		return nil, errs.New(consts.CodePaymentRejected)
	}

	// 4. 双方忙碌快速检查（带懒惰过期），占位表唯一索引兜底
	if busy, err := s.isBusy(ctx, userUUID, now); err != nil {
		return nil, errs.Internal(err)
	} else if busy {
		return nil, errs.New(consts.CodeSelfBusy)
	}
	if busy, err := s.isBusy(ctx, req.RecipientUUID, now); err != nil {
		return nil, errs.Internal(err)
	} else if busy {
		return nil, errs.New(consts.CodePeerBusy)
	}

	// 5. 创建 PENDING 连接
	conn := &model.Connection{
		Uuid:          util.NewID(),
		InitiatorUuid: userUUID,
		RecipientUuid: req.RecipientUUID,
		Status:        model.ConnStatusPending,
		DurationDays:  req.DurationDays,
		RequestedAt:   now,
		ExpireAt:      now.Add(model.PendingRequestTTL),
	}
	if err := s.connRepo.Create(ctx, conn); err != nil {
		switch {
		case errors.Is(err, repository.ErrInitiatorBusy):
			return nil, errs.New(consts.CodeSelfBusy)
		case errors.Is(err, repository.ErrRecipientBusy):
			return nil, errs.New(consts.CodePeerBusy)
		}
		logger.Error(ctx, "创建连接失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	logger.Info(ctx, "连接请求已创建",
		logger.String("connection_uuid", conn.Uuid),
		logger.String("recipient_uuid", req.RecipientUUID),
		logger.Int("duration_days", int(req.DurationDays)),
	)

	// 6. 通知接收方，失败只记日志
	s.notifyPort.Notify(ctx, ports.Notification{
		Kind:     ports.NotifyKindConnectionRequest,
		UserUUID: req.RecipientUUID,
		Title:    "收到新的连接请求",
		Body:     req.Greeting,
	})

	return s.toConnectionInfo(ctx, conn)
}

// Accept 接收方接受连接
// 错误码映射：
//   - CodeConnectionNotFound: 连接不存在
//   - CodeConnectionNotTarget: 非接收方
//   - CodeConnectionNotPend: 非待处理状态（含并发竞争）
//   - CodeConnectionExpired: 待处理请求已过期
func (s *connectionServiceImpl) Accept(ctx context.Context, userUUID, connectionUUID string) (*dto.ConnectionInfo, error) {
	now := s.clk.Now()

	conn, err := s.getPendingForRecipient(ctx, userUUID, connectionUUID, now)
	if err != nil {
		return nil, err
	}

	// CAS 进入生效期，竞争失败按状态已变更处理
	startDate := now
	endDate := now.Add(time.Duration(conn.DurationDays) * 24 * time.Hour)
	if err := s.connRepo.Activate(ctx, connectionUUID, startDate, endDate); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, errs.New(consts.CodeConnectionNotPend)
		}
		logger.Error(ctx, "连接接受失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	logger.Info(ctx, "连接已进入生效期",
		logger.String("connection_uuid", connectionUUID),
		logger.Time("end_date", endDate),
	)

	s.notifyPort.Notify(ctx, ports.Notification{
		Kind:     ports.NotifyKindConnectionAccepted,
		UserUUID: conn.InitiatorUuid,
		Title:    "连接请求已被接受",
	})

	conn.Status = model.ConnStatusActive
	conn.StartDate = &startDate
	conn.EndDate = &endDate
	return s.toConnectionInfo(ctx, conn)
}

// Reject 接收方拒绝连接
func (s *connectionServiceImpl) Reject(ctx context.Context, userUUID, connectionUUID string) error {
	now := s.clk.Now()

	conn, err := s.getPendingForRecipient(ctx, userUUID, connectionUUID, now)
	if err != nil {
		return err
	}

	if err := s.connRepo.Terminate(ctx, connectionUUID, []int8{model.ConnStatusPending}, model.ConnStatusRejected); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return errs.New(consts.CodeConnectionNotPend)
		}
		return errs.Internal(err)
	}

	logger.Info(ctx, "连接已拒绝",
		logger.String("connection_uuid", connectionUUID),
	)

	s.notifyPort.Notify(ctx, ports.Notification{
		Kind:     ports.NotifyKindConnectionRejected,
		UserUUID: conn.InitiatorUuid,
		Title:    "连接请求已被拒绝",
	})
	return nil
}

// Block 接收方拒绝并拉黑发起方
// 终态翻转、占位释放、拉黑关系写入在同一事务内完成；
// 拉黑不向发起方发送任何通知
func (s *connectionServiceImpl) Block(ctx context.Context, userUUID, connectionUUID string) error {
	now := s.clk.Now()

	conn, err := s.getPendingForRecipient(ctx, userUUID, connectionUUID, now)
	if err != nil {
		return err
	}

	if err := s.connRepo.BlockAndTerminate(ctx, connectionUUID, userUUID, conn.InitiatorUuid); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return errs.New(consts.CodeConnectionNotPend)
		}
		logger.Error(ctx, "连接拉黑失败",
			logger.ErrorField("error", err),
		)
		return errs.Internal(err)
	}

	logger.Info(ctx, "连接已拉黑",
		logger.String("connection_uuid", connectionUUID),
	)
	return nil
}

// Cancel 发起方取消待处理连接
func (s *connectionServiceImpl) Cancel(ctx context.Context, userUUID, connectionUUID string) error {
	conn, err := s.connRepo.GetByUUID(ctx, connectionUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errs.New(consts.CodeConnectionNotFound)
		}
		return errs.Internal(err)
	}
	if conn.InitiatorUuid != userUUID {
		return errs.New(consts.CodeConnectionNotOwner)
	}
	if conn.Status != model.ConnStatusPending {
		return errs.New(consts.CodeConnectionNotPend)
	}

	if err := s.connRepo.Terminate(ctx, connectionUUID, []int8{model.ConnStatusPending}, model.ConnStatusCanceled); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return errs.New(consts.CodeConnectionNotPend)
		}
		return errs.Internal(err)
	}

	logger.Info(ctx, "连接已取消",
		logger.String("connection_uuid", connectionUUID),
	)
	return nil
}

// GetCurrent 查询当前进行中连接
// 读取路径上做懒惰过期：超时的 PENDING 或过了生效期的连接
// 在被观察到的时刻翻转为 EXPIRED 并释放占位
func (s *connectionServiceImpl) GetCurrent(ctx context.Context, userUUID string) (*dto.GetCurrentConnectionResponse, error) {
	now := s.clk.Now()

	conn, err := s.connRepo.GetLiveByUser(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return &dto.GetCurrentConnectionResponse{}, nil
		}
		return nil, errs.Internal(err)
	}

	// 懒惰过期
	expired, err := s.expireIfOverdue(ctx, conn, now)
	if err != nil {
		return nil, errs.Internal(err)
	}
	if expired {
		return &dto.GetCurrentConnectionResponse{}, nil
	}

	// 生效期内计算今日是否还可发送
	canSend := false
	if conn.Status == model.ConnStatusActive {
		sent, err := s.msgRepo.ExistsForDay(ctx, conn.Uuid, userUUID, clock.DayString(now))
		if err != nil {
			return nil, errs.Internal(err)
		}
		canSend = !sent
	}

	info, err := s.toConnectionInfo(ctx, conn)
	if err != nil {
		return nil, err
	}
	return &dto.GetCurrentConnectionResponse{
		Connection:   info,
		CanSendToday: canSend,
	}, nil
}

// BlockUser 手动拉黑（独立于连接处理，幂等）
// 错误码映射：
//   - CodeSelfConnection: 不能拉黑自己
//   - CodeUserNotFound: 对方不存在
func (s *connectionServiceImpl) BlockUser(ctx context.Context, userUUID, peerUUID string) error {
	if peerUUID == userUUID {
		return errs.New(consts.CodeSelfConnection)
	}

	if _, err := s.userRepo.GetByUUID(ctx, peerUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errs.New(consts.CodeUserNotFound)
		}
		return errs.Internal(err)
	}

	if err := s.userRepo.AddBlock(ctx, userUUID, peerUUID, model.BlockSourceManual); err != nil {
		return errs.Internal(err)
	}

	logger.Info(ctx, "用户已手动拉黑",
		logger.String("user_uuid", userUUID),
		logger.String("peer_uuid", peerUUID),
	)
	return nil
}

// Unblock 取消拉黑
func (s *connectionServiceImpl) Unblock(ctx context.Context, userUUID, peerUUID string) error {
	if err := s.userRepo.RemoveBlock(ctx, userUUID, peerUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errs.New(consts.CodeNotBlocked)
		}
		return errs.Internal(err)
	}
	return nil
}

// ListBlocks 获取拉黑列表
func (s *connectionServiceImpl) ListBlocks(ctx context.Context, userUUID string, req *dto.GetBlockListRequest) (*dto.GetBlockListResponse, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	blocks, total, err := s.userRepo.ListBlocks(ctx, userUUID, int(page), int(pageSize))
	if err != nil {
		return nil, errs.Internal(err)
	}

	peerUUIDs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		peerUUIDs = append(peerUUIDs, b.PeerUuid)
	}
	summaries, err := s.userRepo.GetSummariesByUUIDs(ctx, peerUUIDs)
	if err != nil {
		return nil, errs.Internal(err)
	}

	items := make([]*dto.BlockItem, 0, len(blocks))
	for _, b := range blocks {
		nickname := ""
		if u, ok := summaries[b.PeerUuid]; ok {
			nickname = u.Nickname
		}
		items = append(items, dto.ConvertBlockItemFromModel(b, nickname))
	}

	return &dto.GetBlockListResponse{
		Items:      items,
		Pagination: dto.NewPaginationInfo(page, pageSize, total),
	}, nil
}

// ==================== 内部方法 ====================

// getPendingForRecipient 读取连接并校验处理资格：
// 存在、当前用户是接收方、处于待处理且未超时（超时则懒惰翻转为过期）
func (s *connectionServiceImpl) getPendingForRecipient(ctx context.Context, userUUID, connectionUUID string, now time.Time) (*model.Connection, error) {
	conn, err := s.connRepo.GetByUUID(ctx, connectionUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeConnectionNotFound)
		}
		return nil, errs.Internal(err)
	}
	if conn.RecipientUuid != userUUID {
		return nil, errs.New(consts.CodeConnectionNotTarget)
	}
	if conn.Status != model.ConnStatusPending {
		return nil, errs.New(consts.CodeConnectionNotPend)
	}
	if now.After(conn.ExpireAt) {
		if _, err := s.expireIfOverdue(ctx, conn, now); err != nil {
			return nil, errs.Internal(err)
		}
		return nil, errs.New(consts.CodeConnectionExpired)
	}
	return conn, nil
}

// isBusy 判断用户是否有进行中连接（先懒惰过期再判定）
func (s *connectionServiceImpl) isBusy(ctx context.Context, userUUID string, now time.Time) (bool, error) {
	conn, err := s.connRepo.GetLiveByUser(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	expired, err := s.expireIfOverdue(ctx, conn, now)
	if err != nil {
		return false, err
	}
	return !expired, nil
}

// expireIfOverdue 懒惰过期：超时的进行中连接翻转为 EXPIRED 并释放占位。
// CAS 竞争失败（别处已翻转）视为已过期
func (s *connectionServiceImpl) expireIfOverdue(ctx context.Context, conn *model.Connection, now time.Time) (bool, error) {
	overdue := false
	switch conn.Status {
	case model.ConnStatusPending:
		overdue = now.After(conn.ExpireAt)
	case model.ConnStatusActive:
		overdue = conn.EndDate != nil && now.After(*conn.EndDate)
	}
	if !overdue {
		return false, nil
	}

	err := s.connRepo.Terminate(ctx, conn.Uuid,
		[]int8{model.ConnStatusPending, model.ConnStatusActive}, model.ConnStatusExpired)
	if err != nil && !errors.Is(err, repository.ErrStateChanged) {
		return false, err
	}

	logger.Info(ctx, "连接已懒惰过期",
		logger.String("connection_uuid", conn.Uuid),
		logger.Int("status", int(conn.Status)),
	)
	return true, nil
}

// toConnectionInfo 组装连接 DTO，补全双方用户摘要
func (s *connectionServiceImpl) toConnectionInfo(ctx context.Context, conn *model.Connection) (*dto.ConnectionInfo, error) {
	summaries, err := s.userRepo.GetSummariesByUUIDs(ctx, []string{conn.InitiatorUuid, conn.RecipientUuid})
	if err != nil {
		return nil, errs.Internal(err)
	}
	return dto.ConvertConnectionInfoFromModel(conn,
		dto.ConvertUserSummaryFromModel(summaries[conn.InitiatorUuid]),
		dto.ConvertUserSummaryFromModel(summaries[conn.RecipientUuid]),
	), nil
}

// connectionTier 连接时长对应的计费档位
func connectionTier(durationDays int8) string {
	if durationDays == 3 {
		return "connection3d"
	}
	return "connection1d"
}
