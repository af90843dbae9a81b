package service

import (
	"context"
	"errors"
	"unicode/utf8"

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

// messageServiceImpl 消息服务实现
type messageServiceImpl struct {
	msgRepo    repository.IMessageRepository
	connRepo   repository.IConnectionRepository
	clk        clock.Clock
	notifyPort ports.INotificationPort
}

// NewMessageService 创建消息服务实例
func NewMessageService(
	msgRepo repository.IMessageRepository,
	connRepo repository.IConnectionRepository,
	clk clock.Clock,
	notifyPort ports.INotificationPort,
) IMessageService {
	return &messageServiceImpl{
		msgRepo:    msgRepo,
		connRepo:   connRepo,
		clk:        clk,
		notifyPort: notifyPort,
	}
}

// Send 发送消息
// 业务流程：
//  1. 连接存在性与参与方校验
//  2. 连接须处于生效期且未过生效结束时间
//  3. 当日配额快速检查（唯一索引兜底）
//  4. 落库并通知对方
//
// 错误码映射：
//   - CodeConnectionNotFound: 连接不存在
//   - CodeConnectionNotParty: 非连接参与方
//   - CodeConnectionNotActive: 连接不在生效期
//   - CodeConnectionExpired: 连接已过生效结束时间
//   - CodeDailyLimit: 今日已发送（含并发竞争）
//   - CodeMessageTooLong: 内容超长
func (s *messageServiceImpl) Send(ctx context.Context, userUUID string, req *dto.SendMessageRequest) (*dto.MessageInfo, error) {
	now := s.clk.Now()

	if utf8.RuneCountInString(req.Content) > model.MessageMaxLen {
		return nil, errs.New(consts.CodeMessageTooLong)
	}

	// 1. 连接校验
	conn, err := s.connRepo.GetByUUID(ctx, req.ConnectionUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeConnectionNotFound)
		}
		return nil, errs.Internal(err)
	}
	if conn.InitiatorUuid != userUUID && conn.RecipientUuid != userUUID {
		return nil, errs.New(consts.CodeConnectionNotParty)
	}

	// 2. 授权判定直接读取连接状态与生效结束时间，不依赖清扫任务
	if conn.Status != model.ConnStatusActive {
		return nil, errs.New(consts.CodeConnectionNotActive)
	}
	if conn.EndDate == nil || now.After(*conn.EndDate) {
		return nil, errs.New(consts.CodeConnectionExpired)
	}

	// 3. 当日配额快速检查
	sentDay := clock.DayString(now)
	sent, err := s.msgRepo.ExistsForDay(ctx, conn.Uuid, userUUID, sentDay)
	if err != nil {
		return nil, errs.Internal(err)
	}
	if sent {
		return nil, errs.New(consts.CodeDailyLimit)
	}

	// 4. 落库，并发竞争由唯一索引拦截
	msg := &model.Message{
		Uuid:           util.NewID(),
		ConnectionUuid: conn.Uuid,
		SenderUuid:     userUUID,
		SentDay:        sentDay,
		Content:        req.Content,
		Status:         model.MsgStatusActive,
		SentAt:         now,
		ExpireAt:       now.Add(model.MessageDisplayTTL),
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, errs.New(consts.CodeDailyLimit)
		}
		logger.Error(ctx, "消息落库失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	logger.Info(ctx, "消息已发送",
		logger.String("message_uuid", msg.Uuid),
		logger.String("connection_uuid", conn.Uuid),
	)

	receiver := conn.InitiatorUuid
	if receiver == userUUID {
		receiver = conn.RecipientUuid
	}
	s.notifyPort.Notify(ctx, ports.Notification{
		Kind:     ports.NotifyKindMessageReceived,
		UserUUID: receiver,
		Title:    "收到今日消息",
	})

	return dto.ConvertMessageInfoFromModel(msg), nil
}

// MarkRead 接收方标记已读（幂等），返回标记后的消息
// 错误码映射：
//   - CodeMessageNotFound: 消息不存在
//   - CodeMessageNotTarget: 发送者不能标记自己的消息
func (s *messageServiceImpl) MarkRead(ctx context.Context, userUUID, messageUUID string) (*dto.MessageInfo, error) {
	msg, err := s.msgRepo.GetByUUID(ctx, messageUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeMessageNotFound)
		}
		return nil, errs.Internal(err)
	}

	// 只有接收方可以标记已读
	if msg.SenderUuid == userUUID {
		return nil, errs.New(consts.CodeMessageNotTarget)
	}
	conn, err := s.connRepo.GetByUUID(ctx, msg.ConnectionUuid)
	if err != nil {
		return nil, errs.Internal(err)
	}
	if conn.InitiatorUuid != userUUID && conn.RecipientUuid != userUUID {
		return nil, errs.New(consts.CodeMessageNotTarget)
	}

	if err := s.msgRepo.MarkRead(ctx, messageUUID); err != nil {
		return nil, errs.Internal(err)
	}

	// 重复标记直接回显已读记录
	msg.IsRead = true
	return dto.ConvertMessageInfoFromModel(msg), nil
}

// GetTodayReceived 获取今日收到的消息
// 没有进行中的生效期连接或今日对方未发送时返回空
func (s *messageServiceImpl) GetTodayReceived(ctx context.Context, userUUID string) (*dto.GetTodayMessageResponse, error) {
	now := s.clk.Now()

	conn, err := s.connRepo.GetLiveByUser(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return &dto.GetTodayMessageResponse{}, nil
		}
		return nil, errs.Internal(err)
	}
	if conn.Status != model.ConnStatusActive {
		return &dto.GetTodayMessageResponse{}, nil
	}

	msg, err := s.msgRepo.GetTodayReceived(ctx, conn.Uuid, userUUID, clock.DayString(now))
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return &dto.GetTodayMessageResponse{}, nil
		}
		return nil, errs.Internal(err)
	}

	return &dto.GetTodayMessageResponse{
		Message: dto.ConvertMessageInfoFromModel(msg),
	}, nil
}
