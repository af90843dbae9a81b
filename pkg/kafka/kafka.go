package kafka

import (
	"context"
	"fmt"
	"time"

	"LocusServer/config"
	"LocusServer/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ==================== Kafka 生产者封装 ====================

var globalProducer *Producer

// P 返回全局生产者（未初始化时为 nil）。
func P() *Producer { return globalProducer }

// ReplaceGlobal 设置全局生产者（进程启动时调用一次）。
func ReplaceGlobal(p *Producer) { globalProducer = p }

// Producer 封装 kafka-go 的 Writer
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建指定 Topic 的生产者
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		ErrorLogger:  kafka.LoggerFunc(kafkaErrorLog),
	}
	return &Producer{writer: w}
}

// Send 发送一条消息
func (p *Producer) Send(ctx context.Context, key string, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ==================== Kafka 消费者封装 ====================

// NewReader 创建消费组 Reader
func NewReader(cfg config.KafkaConfig, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		ErrorLogger:    kafka.LoggerFunc(kafkaErrorLog),
	})
}

// kafkaErrorLog 将 kafka-go 内部错误日志接入 zap
func kafkaErrorLog(msg string, args ...interface{}) {
	logger.Error(context.Background(), "Kafka 内部错误",
		logger.String("detail", fmt.Sprintf(msg, args...)),
	)
}
