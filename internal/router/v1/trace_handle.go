package v1

import (
	"context"

	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/internal/middleware"
	"LocusServer/internal/service"
	"LocusServer/pkg/errs"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// TraceHandler 足迹处理器
type TraceHandler struct {
	traceService service.ITraceService
}

// NewTraceHandler 创建足迹处理器
func NewTraceHandler(traceService service.ITraceService) *TraceHandler {
	return &TraceHandler{
		traceService: traceService,
	}
}

// failWithCooldown 冷却类拒绝附带下次可用时间，其余业务错误原样透传
func failWithCooldown(c *gin.Context, err error) {
	code := errs.CodeOf(err)
	if next := errs.NextAvailableOf(err); next != nil {
		result.Fail(c, gin.H{"next_available_at": next.UnixMilli()}, code)
		return
	}
	result.Fail(c, nil, code)
}

// Permission 查询写入许可接口
// @Summary 查询足迹写入许可
// @Description 返回当前免费/付费/冷却许可状态，冷却中时附带下次可用时间
// @Tags 足迹接口
// @Produce json
// @Success 200 {object} dto.TracePermissionResponse
// @Router /api/v1/trace/permission [get]
func (h *TraceHandler) Permission(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	resp, err := h.traceService.ResolvePermission(ctx, userUUID)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "查询写入许可服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Write 写足迹接口
// @Summary 写足迹
// @Description 在当前位置写一条足迹，受每日免费额度与通行证冷却约束
// @Tags 足迹接口
// @Accept json
// @Produce json
// @Param request body dto.WriteTraceRequest true "写足迹请求"
// @Success 200 {object} dto.TraceItem
// @Router /api/v1/trace [post]
func (h *TraceHandler) Write(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.WriteTraceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.traceService.Write(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			failWithCooldown(c, err)
			return
		}

		logger.Error(ctx, "写足迹服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// List 足迹列表接口
// @Summary 查询附近足迹
// @Description 返回当前位置所在网格单元内未过期的足迹，按创建时间倒序分页
// @Tags 足迹接口
// @Produce json
// @Param lat query number true "纬度"
// @Param lng query number true "经度"
// @Param page query int false "页码"
// @Param pageSize query int false "每页条数"
// @Success 200 {object} dto.ListTraceResponse
// @Router /api/v1/trace/list [get]
func (h *TraceHandler) List(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.ListTraceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.traceService.List(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "足迹列表服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Like 点赞接口
// @Summary 点赞足迹
// @Description 为足迹点赞，重复点赞幂等
// @Tags 足迹接口
// @Produce json
// @Param uuid path string true "足迹UUID"
// @Success 200 {object} dto.LikeTraceResponse
// @Router /api/v1/trace/{uuid}/like [post]
func (h *TraceHandler) Like(c *gin.Context) {
	h.likeAction(c, h.traceService.Like, "点赞足迹服务内部错误")
}

// Unlike 取消点赞接口
// @Summary 取消点赞
// @Description 取消对足迹的点赞，未点赞时幂等
// @Tags 足迹接口
// @Produce json
// @Param uuid path string true "足迹UUID"
// @Success 200 {object} dto.LikeTraceResponse
// @Router /api/v1/trace/{uuid}/unlike [post]
func (h *TraceHandler) Unlike(c *gin.Context) {
	h.likeAction(c, h.traceService.Unlike, "取消点赞服务内部错误")
}

func (h *TraceHandler) likeAction(
	c *gin.Context,
	action func(ctx context.Context, userUUID, traceUUID string) (*dto.LikeTraceResponse, error),
	errMsg string,
) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	traceUUID := c.Param("uuid")
	if traceUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := action(ctx, userUUID, traceUUID)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, errMsg,
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Report 举报接口
// @Summary 举报足迹
// @Description 举报足迹，举报分达到阈值后足迹被隐藏
// @Tags 足迹接口
// @Accept json
// @Produce json
// @Param uuid path string true "足迹UUID"
// @Param request body dto.ReportTraceRequest true "举报请求"
// @Success 200 {object} dto.ReportTraceResponse
// @Router /api/v1/trace/{uuid}/report [post]
func (h *TraceHandler) Report(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	traceUUID := c.Param("uuid")
	if traceUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	// 举报理由可为空，请求体缺省时按空理由处理
	var req dto.ReportTraceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			result.Fail(c, nil, consts.CodeParamError)
			return
		}
	}

	resp, err := h.traceService.Report(ctx, userUUID, traceUUID, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "举报足迹服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Delete 删除足迹接口
// @Summary 删除足迹
// @Description 作者删除自己的足迹
// @Tags 足迹接口
// @Produce json
// @Param uuid path string true "足迹UUID"
// @Router /api/v1/trace/{uuid} [delete]
func (h *TraceHandler) Delete(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	traceUUID := c.Param("uuid")
	if traceUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.traceService.Delete(ctx, userUUID, traceUUID); err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "删除足迹服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// MockPayment 购买通行证接口
// @Summary 购买足迹通行证
// @Description 购买单次或三天通行证，经支付校验端口验证后生效
// @Tags 足迹接口
// @Accept json
// @Produce json
// @Param request body dto.MockPaymentRequest true "购买请求"
// @Success 200 {object} dto.MockPaymentResponse
// @Router /api/v1/trace/pass/mock-payment [post]
func (h *TraceHandler) MockPayment(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.MockPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.traceService.MockPayment(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "通行证支付服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
