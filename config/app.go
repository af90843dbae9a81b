package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig 服务完整配置
type AppConfig struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Logger    LoggerConfig    `json:"logger" yaml:"logger"`
	MySQL     MySQLConfig     `json:"mysql" yaml:"mysql"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	JWT       JWTConfig       `json:"jwt" yaml:"jwt"`
	Kafka     KafkaConfig     `json:"kafka" yaml:"kafka"`
	Payment   PaymentConfig   `json:"payment" yaml:"payment"`
	Notify    NotifyConfig    `json:"notify" yaml:"notify"`
	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
	Sweeper   SweeperConfig   `json:"sweeper" yaml:"sweeper"`
	Async     AsyncConfig     `json:"async" yaml:"async"`
}

// DefaultAppConfig 返回本地开发的默认配置
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server:    DefaultServerConfig(),
		Logger:    DefaultLoggerConfig(),
		MySQL:     DefaultMySQLConfig(),
		Redis:     DefaultRedisConfig(),
		JWT:       DefaultJWTConfig(),
		Kafka:     DefaultKafkaConfig(),
		Payment:   DefaultPaymentConfig(),
		Notify:    DefaultNotifyConfig(),
		RateLimit: DefaultRateLimitConfig(),
		Sweeper:   DefaultSweeperConfig(),
		Async:     DefaultAsyncConfig(),
	}
}

// Load 加载配置：path 为空时返回默认配置，
// 否则在默认配置的基础上用 YAML 文件覆盖
func Load(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return cfg, nil
}
