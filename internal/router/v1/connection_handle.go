package v1

import (
	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/internal/middleware"
	"LocusServer/internal/service"
	"LocusServer/pkg/errs"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// ConnectionHandler 连接处理器
type ConnectionHandler struct {
	connectionService service.IConnectionService
}

// NewConnectionHandler 创建连接处理器
func NewConnectionHandler(connectionService service.IConnectionService) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
	}
}

// Request 发起连接请求接口
// @Summary 发起连接请求
// @Description 向指定用户发起1天或3天的消息连接请求，需通过支付校验
// @Tags 连接接口
// @Accept json
// @Produce json
// @Param request body dto.RequestConnectionRequest true "连接请求"
// @Success 200 {object} dto.ConnectionInfo
// @Router /api/v1/connection/request [post]
func (h *ConnectionHandler) Request(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.RequestConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.connectionService.Request(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "发起连接服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Accept 接受连接请求接口
// @Summary 接受连接请求
// @Description 接收方接受待处理的连接请求，连接进入生效期
// @Tags 连接接口
// @Produce json
// @Param uuid path string true "连接UUID"
// @Success 200 {object} dto.ConnectionInfo
// @Router /api/v1/connection/{uuid}/accept [post]
func (h *ConnectionHandler) Accept(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	connUUID := c.Param("uuid")
	if connUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.connectionService.Accept(ctx, userUUID, connUUID)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "接受连接服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Reject 拒绝连接请求接口
// @Summary 拒绝连接请求
// @Description 接收方拒绝待处理的连接请求，发起方会收到通知
// @Tags 连接接口
// @Produce json
// @Param uuid path string true "连接UUID"
// @Router /api/v1/connection/{uuid}/reject [post]
func (h *ConnectionHandler) Reject(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	connUUID := c.Param("uuid")
	if connUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.connectionService.Reject(ctx, userUUID, connUUID); err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "拒绝连接服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Block 拒绝并拉黑接口
// @Summary 拒绝并拉黑
// @Description 接收方拒绝连接请求并拉黑发起方，发起方不会收到任何通知
// @Tags 连接接口
// @Produce json
// @Param uuid path string true "连接UUID"
// @Router /api/v1/connection/{uuid}/block [post]
func (h *ConnectionHandler) Block(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	connUUID := c.Param("uuid")
	if connUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.connectionService.Block(ctx, userUUID, connUUID); err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "拉黑连接服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Cancel 取消连接请求接口
// @Summary 取消连接请求
// @Description 发起方撤回仍处于待处理状态的连接请求
// @Tags 连接接口
// @Produce json
// @Param uuid path string true "连接UUID"
// @Router /api/v1/connection/{uuid}/cancel [post]
func (h *ConnectionHandler) Cancel(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	connUUID := c.Param("uuid")
	if connUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.connectionService.Cancel(ctx, userUUID, connUUID); err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "取消连接服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// GetCurrent 获取当前连接接口
// @Summary 获取当前连接
// @Description 返回当前进行中的连接（待处理或生效期），以及今日是否还能发送消息
// @Tags 连接接口
// @Produce json
// @Success 200 {object} dto.GetCurrentConnectionResponse
// @Router /api/v1/connection/current [get]
func (h *ConnectionHandler) GetCurrent(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	resp, err := h.connectionService.GetCurrent(ctx, userUUID)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "获取当前连接服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
