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

// MessageHandler 消息处理器
type MessageHandler struct {
	messageService service.IMessageService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(messageService service.IMessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// Send 发送今日消息接口
// @Summary 发送今日消息
// @Description 在生效期连接内发送消息，每个自然日每人限一条
// @Tags 消息接口
// @Accept json
// @Produce json
// @Param request body dto.SendMessageRequest true "发送消息请求"
// @Success 200 {object} dto.MessageInfo
// @Router /api/v1/message [post]
func (h *MessageHandler) Send(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.messageService.Send(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "发送消息服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// GetToday 获取今日消息接口
// @Summary 获取今日收到的消息
// @Description 返回当前连接内今日对方发来的消息，未发送时返回空
// @Tags 消息接口
// @Produce json
// @Success 200 {object} dto.GetTodayMessageResponse
// @Router /api/v1/message/today [get]
func (h *MessageHandler) GetToday(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	resp, err := h.messageService.GetTodayReceived(ctx, userUUID)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "获取今日消息服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// MarkRead 标记已读接口
// @Summary 标记消息已读
// @Description 接收方将消息标记为已读，重复标记幂等
// @Tags 消息接口
// @Produce json
// @Param uuid path string true "消息UUID"
// @Router /api/v1/message/{uuid}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	messageUUID := c.Param("uuid")
	if messageUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.messageService.MarkRead(ctx, userUUID, messageUUID)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "标记已读服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
