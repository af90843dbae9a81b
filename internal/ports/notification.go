package ports

import (
	"context"
	"fmt"

	"LocusServer/config"
	"LocusServer/pkg/async"
	"LocusServer/pkg/logger"

	"gopkg.in/gomail.v2"
)

// ==================== 通知端口定义 ====================

// 通知类型
const (
	NotifyKindConnectionRequest  = "connection_request"
	NotifyKindConnectionAccepted = "connection_accepted"
	NotifyKindConnectionRejected = "connection_rejected"
	NotifyKindMessageReceived    = "message_received"
)

// Notification 待投递的通知
type Notification struct {
	Kind     string // 通知类型
	UserUUID string // 接收人
	Title    string
	Body     string
}

// INotificationPort 通知投递接口
// 投递失败不影响主流程，实现方自行消化错误
type INotificationPort interface {
	Notify(ctx context.Context, n Notification)
}

// ==================== 日志投递实现 ====================

// logNotificationPort 将通知写入日志（本地开发与测试环境）
type logNotificationPort struct{}

// NewLogNotificationPort 创建日志通知实现
func NewLogNotificationPort() INotificationPort {
	return &logNotificationPort{}
}

func (p *logNotificationPort) Notify(ctx context.Context, n Notification) {
	logger.Info(ctx, "投递通知",
		logger.String("kind", n.Kind),
		logger.String("to", n.UserUUID),
		logger.String("title", n.Title),
	)
}

// ==================== 邮件投递实现 ====================

// emailNotificationPort 通过 SMTP 投递通知邮件
type emailNotificationPort struct {
	cfg     config.NotifyConfig
	resolve ResolveEmailFunc
}

// ResolveEmailFunc 根据用户 UUID 解析邮箱地址
type ResolveEmailFunc func(ctx context.Context, userUUID string) (string, error)

// NewEmailNotificationPort 创建邮件通知实现
// resolve: 用户邮箱查询函数（由仓储层提供）
func NewEmailNotificationPort(cfg config.NotifyConfig, resolve ResolveEmailFunc) INotificationPort {
	return &emailNotificationPort{cfg: cfg, resolve: resolve}
}

// Notify 异步发送邮件，失败只记日志
func (p *emailNotificationPort) Notify(ctx context.Context, n Notification) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		email, err := p.resolve(runCtx, n.UserUUID)
		if err != nil || email == "" {
			logger.Warn(runCtx, "通知收件人邮箱解析失败",
				logger.String("to", n.UserUUID),
				logger.ErrorField("error", err),
			)
			return
		}

		m := gomail.NewMessage()
		m.SetHeader("From", p.cfg.From)
		m.SetHeader("To", email)
		m.SetHeader("Subject", n.Title)
		m.SetBody("text/plain", n.Body)

		d := gomail.NewDialer(p.cfg.SMTPHost, p.cfg.SMTPPort, p.cfg.SMTPUser, p.cfg.SMTPPass)
		if err := d.DialAndSend(m); err != nil {
			logger.Warn(runCtx, "通知邮件发送失败",
				logger.String("kind", n.Kind),
				logger.String("to", n.UserUUID),
				logger.ErrorField("error", err),
			)
		}
	}, 0)
}

// BuildNotificationPort 按配置选择通知实现
func BuildNotificationPort(cfg config.NotifyConfig, resolve ResolveEmailFunc) (INotificationPort, error) {
	switch cfg.Mode {
	case "log", "":
		return NewLogNotificationPort(), nil
	case "email":
		return NewEmailNotificationPort(cfg, resolve), nil
	default:
		return nil, fmt.Errorf("未知的通知投递方式: %s", cfg.Mode)
	}
}
