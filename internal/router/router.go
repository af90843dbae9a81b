package router

import (
	"LocusServer/config"
	rediskey "LocusServer/consts/redisKey"
	"LocusServer/internal/middleware"
	v1 "LocusServer/internal/router/v1"
	"LocusServer/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的处理器集合（依赖注入）
type Handlers struct {
	Auth       *v1.AuthHandler
	Connection *v1.ConnectionHandler
	Message    *v1.MessageHandler
	Trace      *v1.TraceHandler
	User       *v1.UserHandler
	Dev        *v1.DevHandler // TestMode 下非空
}

// InitRouter 初始化路由
func InitRouter(cfg config.ServerConfig, h Handlers) *gin.Engine {
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery(true))

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware())

	// IP 级别限流（带黑名单检查）
	r.Use(middleware.IPRateLimitMiddleware(rediskey.IPBlacklistKey))

	// 请求超时控制
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout))
	}

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus 指标暴露接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 公开接口（不需要认证）
		public := api.Group("/public")
		{
			auth := public.Group("/auth")
			{
				auth.POST("/register", h.Auth.Register)
				auth.POST("/login", h.Auth.Login)
			}
		}

		// 需要认证的接口
		authed := api.Group("")
		authed.Use(middleware.JWTAuthMiddleware())

		// 连接接口
		connection := authed.Group("/connection")
		{
			connection.POST("/request", h.Connection.Request)
			connection.GET("/current", h.Connection.GetCurrent)
			connection.POST("/:uuid/accept", h.Connection.Accept)
			connection.POST("/:uuid/reject", h.Connection.Reject)
			connection.POST("/:uuid/block", h.Connection.Block)
			connection.POST("/:uuid/cancel", h.Connection.Cancel)
		}

		// 消息接口
		message := authed.Group("/message")
		{
			message.POST("", h.Message.Send)
			message.GET("/today", h.Message.GetToday)
			message.POST("/:uuid/read", h.Message.MarkRead)
		}

		// 足迹接口（写操作单独加更严格的用户级限流）
		trace := authed.Group("/trace")
		{
			trace.GET("/permission", h.Trace.Permission)
			trace.GET("/list", h.Trace.List)
			trace.POST("", middleware.UserRateLimitMiddleware(2, 5), h.Trace.Write)
			trace.POST("/:uuid/like", h.Trace.Like)
			trace.POST("/:uuid/unlike", h.Trace.Unlike)
			trace.POST("/:uuid/report", middleware.UserRateLimitMiddleware(1, 3), h.Trace.Report)
			trace.DELETE("/:uuid", h.Trace.Delete)
			trace.POST("/pass/mock-payment", h.Trace.MockPayment)
		}

		// 用户关系接口
		user := authed.Group("/user")
		{
			user.POST("/block/:uuid", h.User.Block)
			user.POST("/block/:uuid/remove", h.User.Unblock)
			user.GET("/block/list", h.User.BlockList)
		}

		// 测试模式辅助接口
		if cfg.TestMode && h.Dev != nil {
			dev := authed.Group("/dev")
			{
				dev.GET("/clock", h.Dev.GetClock)
				dev.POST("/clock/advance", h.Dev.AdvanceClock)
				dev.POST("/clock/reset", h.Dev.ResetClock)
			}
		}
	}

	return r
}
