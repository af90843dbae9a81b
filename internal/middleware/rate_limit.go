package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"LocusServer/consts"
	rediskey "LocusServer/consts/redisKey"
	"LocusServer/pkg/logger"
	pkgredis "LocusServer/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ==================== Redis 令牌桶 Lua 脚本 ====================

// luaTokenBucketRedis Redis 令牌桶 Lua 脚本
// 功能：原子性地更新令牌桶并判断是否允许通过
// 参数：
//
//	KEYS[1]: 限流 key (如: rate:limit:ip:{ip})
//	ARGV[1]: 当前时间戳 (毫秒)
//	ARGV[2]: 令牌桶容量
//	ARGV[3]: 每秒产生的令牌数
//	ARGV[4]: 每次请求消耗的令牌数
//
// 返回值：
//   - 1: 允许通过
//   - 0: 不允许通过 (令牌不足)
//
// 注意：时间戳使用毫秒级精度以提高计算准确性
const luaTokenBucketRedis = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3]) -- 每秒产生的令牌数
local requested = tonumber(ARGV[4])

-- 获取当前状态
local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

-- 初始化
if current_tokens == nil then
    current_tokens = capacity
end
if last_time == nil then
    last_time = now
end

-- 计算时间差 (毫秒)
local time_diff = math.max(0, now - last_time)

-- 计算补充令牌: (时间差ms * 速率) / 1000
local new_tokens = math.floor((time_diff * rate) / 1000)

-- 更新令牌数
if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now -- 只有产生了新令牌才更新时间，防止精度丢失
end

-- 判断是否允许通过
local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

-- 更新 Redis
redis.call('HMSET', key, 'tokens', current_tokens, 'last_time', last_time)

-- 设置过期时间：桶填满所需时间 * 2，至少 60 秒
local fill_time = math.ceil(capacity / rate)
local ttl = math.max(60, fill_time * 2)
redis.call('EXPIRE', key, ttl)

return allowed
`

// ==================== Redis 限流器 ====================

// RedisRateLimiter 基于 Redis 的令牌桶限流器
// Redis 不可用时退化为进程内限流器兜底，避免裸放行
type RedisRateLimiter struct {
	redisClient *redis.Client
	rate        float64 // 每秒产生的令牌数
	burst       int     // 令牌桶容量
	mu          *sync.RWMutex
	local       *rate.Limiter // 进程内兜底限流器
}

// NewRedisRateLimiter 创建 Redis 限流器
// r: 每秒产生的令牌数 (如: 10.0 表示每秒10个令牌)
// burst: 令牌桶容量 (如: 20 表示桶最多20个令牌)
func NewRedisRateLimiter(r float64, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{
		rate:  r,
		burst: burst,
		mu:    &sync.RWMutex{},
		// 兜底限流器不区分 key，整体限制单实例吞吐
		local: rate.NewLimiter(rate.Limit(r*10), burst*10),
	}
}

// RedisSetClient 设置 Redis 客户端
// 使用延迟初始化避免循环依赖
func (r *RedisRateLimiter) RedisSetClient(redisClient *redis.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redisClient = redisClient
}

// Allow 检查是否允许请求通过
// key: Redis 限流 key (如: rate:limit:ip:{ip})
// Redis 不可用或超时，走进程内兜底限流器
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	client := r.redisClient
	r.mu.RUnlock()

	if client == nil {
		return r.local.Allow(), nil
	}

	now := time.Now().UnixMilli()

	// 给 Redis 操作加一个独立的短超时（50ms），防止 Redis 响应慢拖死请求链路
	redisCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	cmd := client.Eval(redisCtx, luaTokenBucketRedis, []string{key}, now, r.burst, r.rate, 1)
	result, err := cmd.Result()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 限流检查超时，本地兜底",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
			return r.local.Allow(), nil
		}

		logger.Error(ctx, "Redis 限流检查失败，本地兜底",
			logger.String("key", key),
			logger.ErrorField("error", err),
		)
		return r.local.Allow(), nil
	}

	allowed, ok := result.(int64)
	if !ok {
		logger.Warn(ctx, "Redis 限流返回值类型错误，本地兜底",
			logger.String("key", key),
			logger.Any("result", result),
		)
		return r.local.Allow(), nil
	}

	return allowed == 1, nil
}

// CheckBlacklist 检查 IP 是否在黑名单中
// 返回值：
//   - bool: true 表示在黑名单中
//   - error: Redis 不可用时降级返回 nil（视为不在黑名单）
func CheckBlacklist(ctx context.Context, blacklistKey, ip string) (bool, error) {
	client := pkgredis.Client()
	if client == nil {
		return false, nil
	}

	cmd := client.SIsMember(ctx, blacklistKey, ip)
	exists, err := cmd.Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 黑名单检查超时，降级放行",
				logger.String("ip", ip),
				logger.ErrorField("error", err),
			)
			return false, nil
		}

		logger.Error(ctx, "Redis 黑名单检查失败，降级放行",
			logger.String("ip", ip),
			logger.ErrorField("error", err),
		)
		return false, nil
	}

	return exists, nil
}

// ==================== Redis 限流中间件 ====================

// 全局 Redis 限流器实例
var globalRedisLimiter *RedisRateLimiter

// InitRedisRateLimiter 初始化全局 Redis 限流器
func InitRedisRateLimiter(r float64, burst int, redisClient *redis.Client) {
	globalRedisLimiter = NewRedisRateLimiter(r, burst)
	globalRedisLimiter.RedisSetClient(redisClient)

	logger.Info(context.Background(), "Redis 限流器初始化完成",
		logger.Float64("rate", r),
		logger.Int("burst", burst),
	)
}

// IPRateLimitMiddleware 基于 Redis 的 IP 级别限流中间件
// 支持黑名单检查、令牌桶限流、本地兜底
//
// 使用示例：
//
//	router.Use(IPRateLimitMiddleware(rediskey.IPBlacklistKey))
func IPRateLimitMiddleware(blacklistKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c

		// 1. 获取客户端 IP
		ip, exists := GetClientIPSafe(c)
		if !exists || ip == "" {
			logger.Warn(ctx, "无法获取客户端 IP，跳过限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		// 2. 检查 IP 黑名单
		inBlacklist, err := CheckBlacklist(ctx, blacklistKey, ip)
		if err == nil && inBlacklist {
			logger.Warn(ctx, "IP 在黑名单中，拒绝访问",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)

			c.JSON(http.StatusForbidden, gin.H{
				"code":    consts.CodePermissionDeny,
				"message": "访问被禁止，请联系管理员",
			})
			c.Abort()
			return
		}

		// 3. 执行 IP 限流检查
		if globalRedisLimiter == nil {
			logger.Warn(ctx, "Redis 限流器未初始化，跳过限流检查",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		allowed, err := globalRedisLimiter.Allow(ctx, rediskey.RateLimitIPKey(ip))
		if err == nil && !allowed {
			logger.Warn(ctx, "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    consts.CodeTooManyRequests,
				"message": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserRateLimitMiddleware 基于用户 UUID 的限流中间件
// 需要在 JWTAuthMiddleware 之后使用
// 允许为不同的路由组设置独立的限流参数
func UserRateLimitMiddleware(r float64, burst int) gin.HandlerFunc {
	// 创建独立的限流器实例
	limiter := NewRedisRateLimiter(r, burst)

	// 使用 sync.Once 懒加载 Redis Client（只执行一次，避免每次请求都加锁）
	var once sync.Once

	return func(c *gin.Context) {
		ctx := c

		once.Do(func() {
			if client := pkgredis.Client(); client != nil {
				limiter.RedisSetClient(client)
			}
		})

		// 1. 获取用户 UUID
		userUUID, exists := GetUserUUID(c)
		if !exists || userUUID == "" {
			logger.Warn(ctx, "无法获取用户 UUID，跳过用户限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		// 2. 检查是否允许通过
		allowed, err := limiter.Allow(ctx, rediskey.RateLimitUserKey(userUUID))
		if err == nil && !allowed {
			logger.Warn(ctx, "用户请求被限流",
				logger.String("user_uuid", userUUID),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    consts.CodeTooManyRequests,
				"message": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
