package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"LocusServer/config"
	"LocusServer/pkg/logger"

	"github.com/sony/gobreaker"
)

// ==================== 支付校验端口定义 ====================

// IPaymentPort 支付凭证校验接口
// 返回 verified=false 表示凭证被拒绝；返回 error 表示校验服务本身不可用
type IPaymentPort interface {
	Verify(ctx context.Context, userUUID, tier, token string) (bool, error)
}

// ==================== HTTP 校验实现 ====================

// httpPaymentPort 调用外部支付服务校验凭证，带熔断保护
type httpPaymentPort struct {
	cfg     config.PaymentConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPPaymentPort 创建支付校验实现
func NewHTTPPaymentPort(cfg config.PaymentConfig) IPaymentPort {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 3, // 半开状态下最多允许 3 个请求尝试
		Interval:    15 * time.Second,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFail
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "熔断器状态变化",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return &httpPaymentPort{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

type paymentVerifyRequest struct {
	UserUUID string `json:"userUuid"`
	Tier     string `json:"tier"`
	Token    string `json:"token"`
}

type paymentVerifyResponse struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
}

// Verify 调用支付服务校验凭证
func (p *httpPaymentPort) Verify(ctx context.Context, userUUID, tier, token string) (bool, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		body, err := json.Marshal(&paymentVerifyRequest{
			UserUUID: userUUID,
			Tier:     tier,
			Token:    token,
		})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.VerifyURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("支付校验服务返回状态码 %d", resp.StatusCode)
		}

		var out paymentVerifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			logger.Warn(ctx, "支付校验熔断中", logger.String("user_uuid", userUUID))
		}
		return false, err
	}

	out := result.(*paymentVerifyResponse)
	if !out.Verified {
		logger.Info(ctx, "支付凭证被拒绝",
			logger.String("user_uuid", userUUID),
			logger.String("tier", tier),
			logger.String("reason", out.Reason),
		)
	}
	return out.Verified, nil
}

// ==================== Mock 校验实现 ====================

// mockPaymentPort 测试环境的支付校验
// 约定：凭证以 "fail-" 开头视为拒绝，其余非空凭证一律通过
type mockPaymentPort struct{}

// NewMockPaymentPort 创建 Mock 支付校验实现
func NewMockPaymentPort() IPaymentPort {
	return &mockPaymentPort{}
}

func (p *mockPaymentPort) Verify(ctx context.Context, userUUID, tier, token string) (bool, error) {
	if token == "" || strings.HasPrefix(token, "fail-") {
		return false, nil
	}
	return true, nil
}

// BuildPaymentPort 按配置选择支付校验实现
func BuildPaymentPort(cfg config.PaymentConfig) IPaymentPort {
	if cfg.UseMock {
		return NewMockPaymentPort()
	}
	return NewHTTPPaymentPort(cfg)
}
