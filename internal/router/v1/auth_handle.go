package v1

import (
	"time"

	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/internal/middleware"
	"LocusServer/internal/service"
	"LocusServer/internal/utils"
	"LocusServer/pkg/errs"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.IAuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册接口
// @Summary 用户注册
// @Description 用户通过邮箱和密码注册
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册请求"
// @Success 200 {object} dto.RegisterResponse
// @Router /api/v1/public/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 参数错误由客户端输入导致,属于正常业务流程,不记录日志
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.authService.Register(ctx, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "注册服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Login 用户登录接口
// @Summary 用户登录
// @Description 用户通过邮箱和密码登录，返回访问令牌
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.LoginResponse
// @Router /api/v1/public/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	startTime := time.Now()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		if consts.IsNonServerError(errs.CodeOf(err)) {
			result.Fail(c, nil, errs.CodeOf(err))
			return
		}

		logger.Error(ctx, "登录服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	logger.Info(ctx, "登录成功",
		logger.String("email", utils.MaskEmail(req.Email)),
		logger.String("ip", c.ClientIP()),
		logger.Duration("total_duration", time.Since(startTime)),
	)

	result.Success(c, resp)
}
