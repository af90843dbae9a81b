package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// ==================== Prometheus 指标定义 ====================

var (
	// httpRequestTotal HTTP 请求总数（按方法、路径、状态码）
	httpRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration HTTP 请求耗时分布
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP 请求耗时分布",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// httpRequestInFlight 正在处理中的 HTTP 请求数
	httpRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "正在处理中的 HTTP 请求数",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestTotal, httpRequestDuration, httpRequestInFlight)
}

// PrometheusMiddleware HTTP 请求监控中间件
// 记录请求总数、耗时分布和并发数，供 /metrics 接口暴露
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestInFlight.Inc()

		c.Next()

		httpRequestInFlight.Dec()

		// 使用路由模板而不是原始路径，避免路径参数导致标签爆炸
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
		).Observe(time.Since(start).Seconds())
	}
}
