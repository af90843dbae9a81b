package sweeper

import (
	"context"
	"time"

	"LocusServer/config"
	"LocusServer/internal/repository"
	"LocusServer/pkg/clock"
	"LocusServer/pkg/logger"
)

// Sweeper 后台清扫任务
// 消息与连接的授权判定都是惰性的，不依赖本任务的及时性；
// 清扫只负责收敛存量数据：翻转过期消息、物理清除超过保留期的消息与过期足迹。
type Sweeper struct {
	msgRepo   repository.IMessageRepository
	traceRepo repository.ITraceRepository
	clk       clock.Clock
	cfg       config.SweeperConfig
}

// New 创建清扫任务
func New(
	msgRepo repository.IMessageRepository,
	traceRepo repository.ITraceRepository,
	clk clock.Clock,
	cfg config.SweeperConfig,
) *Sweeper {
	return &Sweeper{
		msgRepo:   msgRepo,
		traceRepo: traceRepo,
		clk:       clk,
		cfg:       cfg,
	}
}

// Run 周期运行清扫，直到 ctx 取消
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	logger.Info(ctx, "清扫任务启动",
		logger.Duration("interval", interval),
		logger.Int("message_purge_days", s.cfg.MessagePurgeDays),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "清扫任务退出")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce 执行一轮清扫，单步失败不影响后续步骤
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.clk.Now()

	expired, err := s.msgRepo.ExpireOverdue(ctx, now)
	if err != nil {
		logger.Error(ctx, "翻转过期消息失败",
			logger.ErrorField("error", err),
		)
	} else if expired > 0 {
		logger.Info(ctx, "过期消息已翻转",
			logger.Int64("count", expired),
		)
	}

	purgeDays := s.cfg.MessagePurgeDays
	if purgeDays <= 0 {
		purgeDays = 7
	}
	msgCutoff := now.AddDate(0, 0, -purgeDays)
	purgedMsg, err := s.msgRepo.PurgeExpiredBefore(ctx, msgCutoff)
	if err != nil {
		logger.Error(ctx, "清除历史消息失败",
			logger.ErrorField("error", err),
		)
	} else if purgedMsg > 0 {
		logger.Info(ctx, "历史消息已清除",
			logger.Int64("count", purgedMsg),
			logger.Time("cutoff", msgCutoff),
		)
	}

	purgedTrace, err := s.traceRepo.PurgeExpiredBefore(ctx, now)
	if err != nil {
		logger.Error(ctx, "清除过期足迹失败",
			logger.ErrorField("error", err),
		)
	} else if purgedTrace > 0 {
		logger.Info(ctx, "过期足迹已清除",
			logger.Int64("count", purgedTrace),
		)
	}
}
