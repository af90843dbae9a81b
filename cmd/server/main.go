package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LocusServer/config"
	"LocusServer/internal/middleware"
	"LocusServer/internal/mq"
	"LocusServer/internal/ports"
	"LocusServer/internal/repository"
	"LocusServer/internal/router"
	v1 "LocusServer/internal/router/v1"
	"LocusServer/internal/service"
	"LocusServer/internal/sweeper"
	"LocusServer/internal/utils"
	"LocusServer/pkg/async"
	"LocusServer/pkg/clock"
	pkgkafka "LocusServer/pkg/kafka"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/mysql"
	pkgredis "LocusServer/pkg/redis"
	"LocusServer/pkg/util"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，缺省使用内置默认配置")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	zl, err := logger.Build(cfg.Logger)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger.ReplaceGlobal(zl)
	defer zl.Sync()

	// 3. 初始化协程池
	if err := async.Init(cfg.Async); err != nil {
		logger.Fatal(ctx, "初始化协程池失败", logger.ErrorField("error", err))
	}
	defer async.Release()

	// 4. 初始化雪花 ID 节点与 JWT
	if err := util.InitIDNode(0); err != nil {
		logger.Fatal(ctx, "初始化雪花节点失败", logger.ErrorField("error", err))
	}
	utils.InitJWT(cfg.JWT)

	// 5. 初始化MySQL
	db, err := mysql.Build(cfg.MySQL)
	if err != nil {
		logger.Fatal(ctx, "初始化MySQL失败", logger.ErrorField("error", err))
	}
	mysql.ReplaceGlobal(db)

	// 6. 初始化Redis
	// 调整读写超时为快速失败，Redis 故障时降级到 MySQL-Only
	redisCfg := cfg.Redis
	redisCfg.ReadTimeout = 50 * time.Millisecond
	redisCfg.WriteTimeout = 50 * time.Millisecond

	redisClient, err := pkgredis.Build(redisCfg)
	if err != nil {
		logger.Warn(ctx, "Redis 初始化失败，将降级到 MySQL-Only 模式",
			logger.ErrorField("error", err),
		)
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
		logger.Info(ctx, "Redis 初始化成功",
			logger.String("addr", redisCfg.Addr),
		)
	}

	// 7. 初始化 Kafka（仅在 Redis 可用时启动缓存补偿链路）
	var kafkaProducer *pkgkafka.Producer
	var redisConsumer *mq.RedisRetryConsumer
	if redisClient != nil {
		kafkaProducer = pkgkafka.NewProducer(cfg.Kafka, cfg.Kafka.RedisRetryTopic)
		pkgkafka.ReplaceGlobal(kafkaProducer)
		logger.Info(ctx, "Kafka Producer 初始化成功",
			logger.String("topic", cfg.Kafka.RedisRetryTopic),
		)

		redisConsumer = mq.NewRedisRetryConsumer(cfg.Kafka, redisClient)
		go redisConsumer.Run(ctx)

		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				logger.Error(ctx, "关闭 Kafka Producer 失败", logger.ErrorField("error", err))
			}
			if err := redisConsumer.Close(); err != nil {
				logger.Error(ctx, "关闭 Redis 重试消费者失败", logger.ErrorField("error", err))
			}
		}()
	}

	// 8. 初始化限流器
	middleware.InitRedisRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, redisClient)

	// 9. 业务时钟：测试模式下可通过 /dev 接口调整偏移
	var clk clock.Clock
	var offsetClk *clock.OffsetClock
	if cfg.Server.TestMode {
		offsetClk = clock.NewOffsetClock()
		clk = offsetClk
		logger.Warn(ctx, "测试模式已启用，业务时钟可被 /dev 接口调整")
	} else {
		clk = clock.NewSystemClock()
	}

	// 10. 组装依赖 - Repository 层
	userRepo := repository.NewUserRepository(db, redisClient)
	connRepo := repository.NewConnectionRepository(db, redisClient)
	msgRepo := repository.NewMessageRepository(db)
	traceRepo := repository.NewTraceRepository(db, redisClient)

	// 11. 组装依赖 - 外部端口
	paymentPort := ports.BuildPaymentPort(cfg.Payment)
	notifyPort, err := ports.BuildNotificationPort(cfg.Notify, func(ctx context.Context, userUUID string) (string, error) {
		user, err := userRepo.GetByUUID(ctx, userUUID)
		if err != nil {
			return "", err
		}
		return user.Email, nil
	})
	if err != nil {
		logger.Fatal(ctx, "初始化通知端口失败", logger.ErrorField("error", err))
	}

	// 12. 组装依赖 - Service 层
	authService := service.NewAuthService(userRepo)
	connectionService := service.NewConnectionService(connRepo, userRepo, msgRepo, clk, paymentPort, notifyPort)
	messageService := service.NewMessageService(msgRepo, connRepo, clk, notifyPort)
	traceService := service.NewTraceService(traceRepo, userRepo, clk, paymentPort)

	// 13. 组装依赖 - Handler 层与路由
	handlers := router.Handlers{
		Auth:       v1.NewAuthHandler(authService),
		Connection: v1.NewConnectionHandler(connectionService),
		Message:    v1.NewMessageHandler(messageService),
		Trace:      v1.NewTraceHandler(traceService),
		User:       v1.NewUserHandler(connectionService),
	}
	if offsetClk != nil {
		handlers.Dev = v1.NewDevHandler(offsetClk)
	}
	engine := router.InitRouter(cfg.Server, handlers)

	// 14. 启动清扫任务
	sw := sweeper.New(msgRepo, traceRepo, clk, cfg.Sweeper)
	go sw.Run(ctx)

	// 15. 启动 HTTP 服务
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info(ctx, "HTTP 服务启动",
			logger.String("addr", cfg.Server.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP 服务异常退出", logger.ErrorField("error", err))
		}
	}()

	// 16. 等待退出信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "收到退出信号，开始优雅关闭")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP 服务关闭失败", logger.ErrorField("error", err))
	}

	logger.Info(context.Background(), "服务已退出")
}
