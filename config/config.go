package config

import "time"

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`                       // 监听地址，如: :8080
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`         // 读超时
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`       // 写超时
	RequestTimeout  time.Duration `json:"requestTimeout" yaml:"requestTimeout"`   // 单请求超时（中间件层）
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"` // 优雅关闭等待时间
	TestMode        bool          `json:"testMode" yaml:"testMode"`               // 测试模式：启用时间偏移接口与支付Mock
}

// DefaultServerConfig 返回本地开发的默认配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		RequestTimeout:  3 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		TestMode:        false,
	}
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level            string   `json:"level" yaml:"level"`                       // 日志级别: debug/info/warn/error
	Encoding         string   `json:"encoding" yaml:"encoding"`                 // 编码: json/console
	EnableColor      bool     `json:"enableColor" yaml:"enableColor"`           // console 模式下是否启用彩色
	Development      bool     `json:"development" yaml:"development"`           // 开发模式（错误带堆栈）
	OutputPaths      []string `json:"outputPaths" yaml:"outputPaths"`           // 普通日志输出路径
	ErrorOutputPaths []string `json:"errorOutputPaths" yaml:"errorOutputPaths"` // 错误日志输出路径
}

// DefaultLoggerConfig 返回本地开发的默认配置
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:            "info",
		Encoding:         "json",
		EnableColor:      false,
		Development:      false,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// MySQLConfig MySQL 配置
// Replicas 非空时通过 dbresolver 做读写分离：写走 DSN，读走 Replicas。
type MySQLConfig struct {
	DSN             string        `json:"dsn" yaml:"dsn"`                         // 主库 DSN
	Replicas        []string      `json:"replicas" yaml:"replicas"`               // 只读副本 DSN 列表
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`       // 最大连接数
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`       // 最大空闲连接数
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"` // 连接最大存活时间
	LogSlowQuery    time.Duration `json:"logSlowQuery" yaml:"logSlowQuery"`       // 慢查询阈值
}

// DefaultMySQLConfig 返回本地开发的默认配置
func DefaultMySQLConfig() MySQLConfig {
	return MySQLConfig{
		DSN:             "root:root@tcp(127.0.0.1:3306)/locus?charset=utf8mb4&parseTime=True&loc=Local",
		Replicas:        nil,
		MaxOpenConns:    100,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		LogSlowQuery:    200 * time.Millisecond,
	}
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr"`                 // 地址，如: 127.0.0.1:6379
	Password     string        `json:"password" yaml:"password"`         // 密码
	DB           int           `json:"db" yaml:"db"`                     // 库编号
	PoolSize     int           `json:"poolSize" yaml:"poolSize"`         // 连接池大小
	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout"`   // 连接超时
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`   // 读超时
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"` // 写超时
}

// DefaultRedisConfig 返回本地开发的默认配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "127.0.0.1:6379",
		Password:     "",
		DB:           0,
		PoolSize:     64,
		DialTimeout:  time.Second,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
	}
}

// JWTConfig 访问令牌配置
type JWTConfig struct {
	Secret     string        `json:"secret" yaml:"secret"`         // 签名密钥
	Issuer     string        `json:"issuer" yaml:"issuer"`         // 签发者
	ExpireTime time.Duration `json:"expireTime" yaml:"expireTime"` // 有效期
}

// DefaultJWTConfig 返回本地开发的默认配置
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:     "locus-dev-secret",
		Issuer:     "LocusServer",
		ExpireTime: 7 * 24 * time.Hour,
	}
}

// KafkaConfig Kafka 配置
// 仅用于 Redis 缓存写失败的重试队列
type KafkaConfig struct {
	Brokers         []string `json:"brokers" yaml:"brokers"`                 // Broker 地址列表
	RedisRetryTopic string   `json:"redisRetryTopic" yaml:"redisRetryTopic"` // Redis 重试任务 Topic
	ConsumerGroupID string   `json:"consumerGroupId" yaml:"consumerGroupId"` // 消费组 ID
}

// DefaultKafkaConfig 返回本地开发的默认配置
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:         []string{"127.0.0.1:9092"},
		RedisRetryTopic: "locus-redis-retry",
		ConsumerGroupID: "locus-redis-retry-group",
	}
}

// PaymentConfig 支付校验配置
type PaymentConfig struct {
	VerifyURL      string        `json:"verifyUrl" yaml:"verifyUrl"`           // 校验服务地址
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`               // 单次校验超时
	BreakerName    string        `json:"breakerName" yaml:"breakerName"`       // 熔断器名称
	BreakerMaxFail uint32        `json:"breakerMaxFail" yaml:"breakerMaxFail"` // 连续失败多少次后熔断
	BreakerOpenFor time.Duration `json:"breakerOpenFor" yaml:"breakerOpenFor"` // 熔断打开持续时间
	UseMock        bool          `json:"useMock" yaml:"useMock"`               // 测试环境使用Mock校验器
}

// DefaultPaymentConfig 返回本地开发的默认配置
func DefaultPaymentConfig() PaymentConfig {
	return PaymentConfig{
		VerifyURL:      "http://127.0.0.1:9090/pay/verify",
		Timeout:        2 * time.Second,
		BreakerName:    "payment-verify",
		BreakerMaxFail: 5,
		BreakerOpenFor: 30 * time.Second,
		UseMock:        true,
	}
}

// NotifyConfig 通知投递配置
type NotifyConfig struct {
	Mode     string `json:"mode" yaml:"mode"`         // 投递方式: log / email
	SMTPHost string `json:"smtpHost" yaml:"smtpHost"` // SMTP 服务器
	SMTPPort int    `json:"smtpPort" yaml:"smtpPort"` // SMTP 端口
	SMTPUser string `json:"smtpUser" yaml:"smtpUser"` // SMTP 账号
	SMTPPass string `json:"smtpPass" yaml:"smtpPass"` // SMTP 密码
	From     string `json:"from" yaml:"from"`         // 发件人
}

// DefaultNotifyConfig 返回本地开发的默认配置
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		Mode:     "log",
		SMTPHost: "127.0.0.1",
		SMTPPort: 25,
		SMTPUser: "",
		SMTPPass: "",
		From:     "noreply@locus.local",
	}
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Rate  float64 `json:"rate" yaml:"rate"`   // 每秒产生的令牌数
	Burst int     `json:"burst" yaml:"burst"` // 令牌桶容量
}

// DefaultRateLimitConfig 返回本地开发的默认配置
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Rate:  20,
		Burst: 40,
	}
}

// SweeperConfig 后台清扫任务配置
type SweeperConfig struct {
	Interval         time.Duration `json:"interval" yaml:"interval"`                 // 扫描间隔
	MessagePurgeDays int           `json:"messagePurgeDays" yaml:"messagePurgeDays"` // 过期消息保留天数
}

// DefaultSweeperConfig 返回本地开发的默认配置
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:         time.Minute,
		MessagePurgeDays: 7,
	}
}
