package mq

import (
	"context"
	"encoding/json"
	"errors"

	pkgkafka "LocusServer/pkg/kafka"
)

// ErrProducerNotReady 生产者未初始化
var ErrProducerNotReady = errors.New("mq: redis retry producer not initialized")

// SendRedisTask 将 Redis 重试任务发送到 Kafka
// 生产者未初始化（如本地无 Kafka）时返回错误，由调用方记日志放弃
func SendRedisTask(ctx context.Context, task RedisTask) error {
	producer := pkgkafka.P()
	if producer == nil {
		return ErrProducerNotReady
	}

	payload, err := json.Marshal(&task)
	if err != nil {
		return err
	}

	// 以 user_uuid 作为分区 key，同一用户的重试任务保序
	return producer.Send(ctx, task.UserUUID, payload)
}
