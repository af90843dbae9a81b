package mq

import (
	"context"
	"encoding/json"
	"time"

	"LocusServer/config"
	pkgkafka "LocusServer/pkg/kafka"
	"LocusServer/pkg/logger"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// RedisRetryConsumer 消费 Kafka 重试队列，重放失败的 Redis 写操作
type RedisRetryConsumer struct {
	reader      *kafkago.Reader
	redisClient *redis.Client
}

// NewRedisRetryConsumer 创建重试消费者
func NewRedisRetryConsumer(cfg config.KafkaConfig, redisClient *redis.Client) *RedisRetryConsumer {
	return &RedisRetryConsumer{
		reader:      pkgkafka.NewReader(cfg, cfg.RedisRetryTopic),
		redisClient: redisClient,
	}
}

// Run 阻塞消费直到 ctx 取消
func (c *RedisRetryConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "读取 Redis 重试任务失败", logger.ErrorField("error", err))
			continue
		}

		var task RedisTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			// 消息体损坏，直接丢弃
			logger.Error(ctx, "Redis 重试任务反序列化失败", logger.ErrorField("error", err))
			continue
		}

		c.handle(ctx, task)
	}
}

// Close 关闭消费者
func (c *RedisRetryConsumer) Close() error {
	return c.reader.Close()
}

// handle 执行单个重试任务，失败且未达上限时重新入队
func (c *RedisRetryConsumer) handle(ctx context.Context, task RedisTask) {
	execCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := c.execute(execCtx, task)
	if err == nil {
		return
	}

	logger.Warn(ctx, "Redis 重试任务执行失败",
		logger.ErrorField("error", err),
		logger.String("task_type", string(task.Type)),
		logger.String("command", task.Command),
		logger.Int("retry_count", task.RetryCount),
	)

	task.RetryCount++
	if task.RetryCount >= task.MaxRetries {
		// 达到最大重试次数，记录错误用于监控报警后放弃
		logger.Error(ctx, "Redis 重试任务达到最大重试次数，放弃",
			logger.String("task_type", string(task.Type)),
			logger.String("command", task.Command),
			logger.String("original_err", task.OriginalErr),
			logger.String("source", task.Source),
		)
		return
	}

	if sendErr := SendRedisTask(ctx, task); sendErr != nil {
		logger.Error(ctx, "Redis 重试任务重新入队失败，放弃",
			logger.ErrorField("error", sendErr),
			logger.String("command", task.Command),
		)
	}
}

// execute 按任务类型重放 Redis 命令
func (c *RedisRetryConsumer) execute(ctx context.Context, task RedisTask) error {
	switch task.Type {
	case CmdSimple:
		args := make([]interface{}, 0, len(task.Args)+1)
		args = append(args, task.Command)
		args = append(args, task.Args...)
		return c.redisClient.Do(ctx, args...).Err()

	case CmdLua:
		return redis.NewScript(task.LuaScript).Run(ctx, c.redisClient, task.LuaKeys, task.LuaArgs...).Err()

	default:
		logger.Warn(ctx, "未知的 Redis 任务类型", logger.String("type", string(task.Type)))
		return nil
	}
}
