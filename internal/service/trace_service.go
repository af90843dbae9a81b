package service

import (
	"context"
	"errors"
	"time"
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

// 足迹写入许可
const (
	// PermFreeAvailable 今日免费次数可用
	PermFreeAvailable = "FREE_AVAILABLE"
	// PermFreeUsed 今日免费次数已用完
	PermFreeUsed = "FREE_USED"
	// PermPaidAvailable 通行证有效且不在冷却中
	PermPaidAvailable = "PAID_AVAILABLE"
	// PermDeniedCooldown 通行证有效但处于冷却窗口
	PermDeniedCooldown = "DENIED_COOLDOWN"
)

// traceServiceImpl 足迹服务实现
type traceServiceImpl struct {
	traceRepo   repository.ITraceRepository
	userRepo    repository.IUserRepository
	clk         clock.Clock
	paymentPort ports.IPaymentPort
}

// NewTraceService 创建足迹服务实例
func NewTraceService(
	traceRepo repository.ITraceRepository,
	userRepo repository.IUserRepository,
	clk clock.Clock,
	paymentPort ports.IPaymentPort,
) ITraceService {
	return &traceServiceImpl{
		traceRepo:   traceRepo,
		userRepo:    userRepo,
		clk:         clk,
		paymentPort: paymentPort,
	}
}

// ResolvePermission 判定当前写入许可
func (s *traceServiceImpl) ResolvePermission(ctx context.Context, userUUID string) (*dto.TracePermissionResponse, error) {
	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeUserNotFound)
		}
		return nil, errs.Internal(err)
	}

	perm, nextAt := resolveWritePermission(user, s.clk.Now())
	resp := &dto.TracePermissionResponse{Permission: perm}
	if nextAt != nil {
		resp.NextAvailableAt = nextAt.UnixMilli()
	}
	return resp, nil
}

// resolveWritePermission 许可判定核心。
// 通行证有效时走付费路径：距上次写入不足 2h 进入冷却拒绝，
// 时间差为负（时钟被回拨）不视为冷却；
// 通行证无效时走免费路径：按完整日历日比较判断当日免费额是否用过。
func resolveWritePermission(user *model.UserInfo, now time.Time) (string, *time.Time) {
	if user.TracePassExpireAt != nil && now.Before(*user.TracePassExpireAt) {
		if user.LastTraceAt != nil {
			diff := now.Sub(*user.LastTraceAt)
			if diff >= 0 && diff < model.TraceCooldown {
				nextAt := user.LastTraceAt.Add(model.TraceCooldown)
				return PermDeniedCooldown, &nextAt
			}
		}
		return PermPaidAvailable, nil
	}

	if user.LastTraceAt != nil && clock.SameCalendarDay(*user.LastTraceAt, now) && user.TraceDailyCount >= 1 {
		return PermFreeUsed, nil
	}
	return PermFreeAvailable, nil
}

// Write 写足迹
// 业务流程：
//  1. 参数校验（坐标、内容长度、语气标签）
//  2. 内联重新判定写入许可
//  3. 计算网格与过期时间，落库并在同事务内更新配额
//
// 错误码映射：
//   - CodeInvalidLocation / CodeTraceTooLong / CodeInvalidToneTag: 参数不合法
//   - CodeTraceFreeUsed: 今日免费次数已用完
//   - CodeTraceCooldown: 冷却中（携带下次可用时间）
func (s *traceServiceImpl) Write(ctx context.Context, userUUID string, req *dto.WriteTraceRequest) (*dto.TraceItem, error) {
	now := s.clk.Now()

	// 1. 参数校验
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		return nil, errs.New(consts.CodeInvalidLocation)
	}
	if utf8.RuneCountInString(req.Content) > model.TraceMaxLen {
		return nil, errs.New(consts.CodeTraceTooLong)
	}
	if req.ToneTag != "" && !model.ValidToneTags[req.ToneTag] {
		return nil, errs.New(consts.CodeInvalidToneTag)
	}

	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeUserNotFound)
		}
		return nil, errs.Internal(err)
	}

	// 2. 内联重新判定许可
	perm, nextAt := resolveWritePermission(user, now)
	switch perm {
	case PermFreeUsed:
		return nil, errs.New(consts.CodeTraceFreeUsed)
	case PermDeniedCooldown:
		return nil, errs.Cooldown(consts.CodeTraceCooldown, *nextAt)
	}

	// 3. 落库。跨自然日后的首次写入把当日计数重置为 1
	dailyCount := 1
	if user.LastTraceAt != nil && clock.SameCalendarDay(*user.LastTraceAt, now) {
		dailyCount = user.TraceDailyCount + 1
	}

	gridX, gridY := model.GridCell(req.Lat, req.Lng)
	trace := &model.Trace{
		Uuid:       util.NewID(),
		AuthorUuid: userUUID,
		Content:    req.Content,
		ToneTag:    req.ToneTag,
		Lat:        req.Lat,
		Lng:        req.Lng,
		GridX:      gridX,
		GridY:      gridY,
		Status:     model.TraceStatusActive,
		CreatedAt:  now,
		ExpireAt:   now.Add(model.TraceTTL),
	}
	if err := s.traceRepo.CreateWithQuota(ctx, trace, dailyCount, now); err != nil {
		logger.Error(ctx, "足迹落库失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	logger.Info(ctx, "足迹已写入",
		logger.String("trace_uuid", trace.Uuid),
		logger.String("permission", perm),
		logger.Int64("grid_x", gridX),
		logger.Int64("grid_y", gridY),
	)

	return dto.ConvertTraceItemFromModel(trace, false, true), nil
}

// List 查询所在网格单元的足迹列表
func (s *traceServiceImpl) List(ctx context.Context, userUUID string, req *dto.ListTraceRequest) (*dto.ListTraceResponse, error) {
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		return nil, errs.New(consts.CodeInvalidLocation)
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	gridX, gridY := model.GridCell(req.Lat, req.Lng)
	traces, total, err := s.traceRepo.ListByCell(ctx, gridX, gridY, s.clk.Now(), int(page), int(pageSize))
	if err != nil {
		return nil, errs.Internal(err)
	}

	// 批量标注当前用户点赞状态
	uuids := make([]string, 0, len(traces))
	for _, t := range traces {
		uuids = append(uuids, t.Uuid)
	}
	likedSet, err := s.traceRepo.GetLikedSet(ctx, userUUID, uuids)
	if err != nil {
		return nil, errs.Internal(err)
	}

	items := make([]*dto.TraceItem, 0, len(traces))
	for _, t := range traces {
		items = append(items, dto.ConvertTraceItemFromModel(t, likedSet[t.Uuid], t.AuthorUuid == userUUID))
	}

	return &dto.ListTraceResponse{
		Items:      items,
		Pagination: dto.NewPaginationInfo(page, pageSize, total),
	}, nil
}

// Like 点赞（幂等）
func (s *traceServiceImpl) Like(ctx context.Context, userUUID, traceUUID string) (*dto.LikeTraceResponse, error) {
	if err := s.getVisibleTrace(ctx, traceUUID); err != nil {
		return nil, err
	}

	count, err := s.traceRepo.Like(ctx, traceUUID, userUUID)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &dto.LikeTraceResponse{LikeCount: count}, nil
}

// Unlike 取消点赞（幂等）
func (s *traceServiceImpl) Unlike(ctx context.Context, userUUID, traceUUID string) (*dto.LikeTraceResponse, error) {
	if err := s.getVisibleTrace(ctx, traceUUID); err != nil {
		return nil, err
	}

	count, err := s.traceRepo.Unlike(ctx, traceUUID, userUUID)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &dto.LikeTraceResponse{LikeCount: count}, nil
}

// Report 举报
// 举报权重取举报人的 report_influence，累加与阈值翻转在仓储层同事务完成
// 错误码映射：
//   - CodeTraceNotFound: 足迹不存在或不可见
//   - CodeAlreadyReported: 重复举报
func (s *traceServiceImpl) Report(ctx context.Context, userUUID, traceUUID string, req *dto.ReportTraceRequest) (*dto.ReportTraceResponse, error) {
	if err := s.getVisibleTrace(ctx, traceUUID); err != nil {
		return nil, err
	}

	reporter, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeUserNotFound)
		}
		return nil, errs.Internal(err)
	}

	hidden, err := s.traceRepo.Report(ctx, traceUUID, userUUID, req.Reason, reporter.ReportInfluence)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, errs.New(consts.CodeAlreadyReported)
		}
		return nil, errs.Internal(err)
	}

	if hidden {
		logger.Info(ctx, "足迹达举报阈值已隐藏",
			logger.String("trace_uuid", traceUUID),
		)
	}
	return &dto.ReportTraceResponse{Hidden: hidden}, nil
}

// Delete 作者删除足迹
func (s *traceServiceImpl) Delete(ctx context.Context, userUUID, traceUUID string) error {
	trace, err := s.traceRepo.GetByUUID(ctx, traceUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errs.New(consts.CodeTraceNotFound)
		}
		return errs.Internal(err)
	}
	if trace.AuthorUuid != userUUID {
		return errs.New(consts.CodeTraceNotAuthor)
	}
	if trace.Status == model.TraceStatusRemoved {
		return errs.New(consts.CodeTraceNotFound)
	}

	if err := s.traceRepo.SoftDelete(ctx, traceUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errs.New(consts.CodeTraceNotFound)
		}
		return errs.Internal(err)
	}
	return nil
}

// MockPayment 通行证支付
// 支付校验通过后写入通行证过期时间，并把最近写入时间回拨到冷却
// 窗口之外，保证购买后立即可写
// 错误码映射：
//   - CodeInvalidTier: 档位不合法
//   - CodePaymentRejected: 支付校验未通过
//   - CodeServiceUnavailable: 支付校验服务异常（含熔断打开）
func (s *traceServiceImpl) MockPayment(ctx context.Context, userUUID string, req *dto.MockPaymentRequest) (*dto.MockPaymentResponse, error) {
	now := s.clk.Now()

	var passTTL time.Duration
	switch req.Tier {
	case model.TracePassTierSingle:
		passTTL = model.TracePassSingleTTL
	case model.TracePassTierThreeDay:
		passTTL = model.TracePassThreeDayTTL
	default:
		return nil, errs.New(consts.CodeInvalidTier)
	}

	ok, err := s.paymentPort.Verify(ctx, userUUID, req.Tier, req.PaymentToken)
	if err != nil {
		logger.Error(ctx, "支付校验服务异常",
			logger.ErrorField("error", err),
		)
		return nil, errs.Wrap(consts.CodeServiceUnavailable, err)
	}
	if !ok {
		return nil, errs.New(consts.CodePaymentRejected)
	}

	passExpireAt := now.Add(passTTL)
	backdatedLastTraceAt := now.Add(-(model.TraceCooldown + time.Hour))
	if err := s.userRepo.SetTracePass(ctx, userUUID, passExpireAt, backdatedLastTraceAt); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeUserNotFound)
		}
		return nil, errs.Internal(err)
	}

	logger.Info(ctx, "足迹通行证已生效",
		logger.String("tier", req.Tier),
		logger.Time("pass_expire_at", passExpireAt),
	)

	return &dto.MockPaymentResponse{PassExpireAt: passExpireAt.UnixMilli()}, nil
}

// getVisibleTrace 校验足迹存在且对外可见（展示中且未过期）
func (s *traceServiceImpl) getVisibleTrace(ctx context.Context, traceUUID string) error {
	trace, err := s.traceRepo.GetByUUID(ctx, traceUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errs.New(consts.CodeTraceNotFound)
		}
		return errs.Internal(err)
	}
	if trace.Status != model.TraceStatusActive || !s.clk.Now().Before(trace.ExpireAt) {
		return errs.New(consts.CodeTraceNotFound)
	}
	return nil
}
