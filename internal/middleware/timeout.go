package middleware

import (
	"context"
	"time"

	"LocusServer/consts"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// TimeoutMiddleware 请求超时控制中间件
// 安全版本：不开启 Goroutine，依赖下游 Context 感知
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 基于 c.Request.Context() 派生带超时的 context
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		// 2. 替换请求的 context，后续的 Handler、DB、Redis 调用都能感知到超时
		c.Request = c.Request.WithContext(ctx)

		// 3. 直接在当前协程执行
		c.Next()

		// 4. 后置检查：
		// 情况 A: Handler 捕获了超时错误并已写出响应，这里不再介入。
		// 情况 B: 下游处理太慢，没来得及写 Response，ctx 就过期了，中间件兜底。
		if ctx.Err() == context.DeadlineExceeded {
			if !c.Writer.Written() {
				logCtx := NewContextWithGin(c)
				logger.Warn(logCtx, "请求处理超时",
					logger.String("path", c.Request.URL.Path),
					logger.Duration("timeout", timeout),
				)
				result.Fail(c, nil, consts.CodeTimeoutError)
			}
		}
	}
}
