package v1

import (
	"LocusServer/consts"
	"LocusServer/internal/middleware"
	"LocusServer/pkg/clock"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// DevHandler 测试模式辅助接口
// 仅在 TestMode 下注册，通过调整时钟偏移模拟跨天行为
type DevHandler struct {
	clk *clock.OffsetClock
}

// NewDevHandler 创建测试辅助处理器
func NewDevHandler(clk *clock.OffsetClock) *DevHandler {
	return &DevHandler{
		clk: clk,
	}
}

// advanceClockRequest 时钟偏移请求
type advanceClockRequest struct {
	Days int `json:"days" binding:"required"`
}

// clockResponse 当前时钟状态
type clockResponse struct {
	OffsetDays int   `json:"offset_days"`
	Now        int64 `json:"now"`
}

// AdvanceClock 时钟前进接口
// @Summary 业务时钟前进N天
// @Tags 测试接口
// @Accept json
// @Produce json
// @Router /api/v1/dev/clock/advance [post]
func (h *DevHandler) AdvanceClock(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req advanceClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	h.clk.AdvanceDay(req.Days)

	logger.Warn(ctx, "业务时钟偏移已调整",
		logger.Int("days", req.Days),
		logger.Int("offset_days", h.clk.Offset()),
	)

	result.Success(c, clockResponse{
		OffsetDays: h.clk.Offset(),
		Now:        h.clk.Now().UnixMilli(),
	})
}

// ResetClock 时钟归零接口
// @Summary 业务时钟偏移归零
// @Tags 测试接口
// @Produce json
// @Router /api/v1/dev/clock/reset [post]
func (h *DevHandler) ResetClock(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	h.clk.Reset()

	logger.Warn(ctx, "业务时钟偏移已归零")

	result.Success(c, clockResponse{
		OffsetDays: 0,
		Now:        h.clk.Now().UnixMilli(),
	})
}

// GetClock 查询时钟状态接口
// @Summary 查询业务时钟状态
// @Tags 测试接口
// @Produce json
// @Router /api/v1/dev/clock [get]
func (h *DevHandler) GetClock(c *gin.Context) {
	result.Success(c, clockResponse{
		OffsetDays: h.clk.Offset(),
		Now:        h.clk.Now().UnixMilli(),
	})
}
