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

// UserHandler 用户关系处理器
type UserHandler struct {
	connectionService service.IConnectionService
}

// NewUserHandler 创建用户关系处理器
func NewUserHandler(connectionService service.IConnectionService) *UserHandler {
	return &UserHandler{
		connectionService: connectionService,
	}
}

// Block 手动拉黑接口
// @Summary 手动拉黑
// @Description 将指定用户加入拉黑列表，重复拉黑幂等
// @Tags 用户接口
// @Produce json
// @Param uuid path string true "被拉黑用户UUID"
// @Router /api/v1/user/block/{uuid} [post]
func (h *UserHandler) Block(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	peerUUID := c.Param("uuid")
	if peerUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.connectionService.BlockUser(ctx, userUUID, peerUUID); err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "手动拉黑服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Unblock 取消拉黑接口
// @Summary 取消拉黑
// @Description 将指定用户移出拉黑列表
// @Tags 用户接口
// @Produce json
// @Param uuid path string true "被拉黑用户UUID"
// @Router /api/v1/user/block/{uuid}/remove [post]
func (h *UserHandler) Unblock(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	peerUUID := c.Param("uuid")
	if peerUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.connectionService.Unblock(ctx, userUUID, peerUUID); err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "取消拉黑服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// BlockList 拉黑列表接口
// @Summary 获取拉黑列表
// @Description 分页返回当前用户拉黑的用户列表
// @Tags 用户接口
// @Produce json
// @Param page query int false "页码"
// @Param pageSize query int false "每页条数"
// @Success 200 {object} dto.GetBlockListResponse
// @Router /api/v1/user/block/list [get]
func (h *UserHandler) BlockList(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.GetBlockListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.connectionService.ListBlocks(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "拉黑列表服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
