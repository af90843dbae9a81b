package rediskey

import (
	"fmt"
	"time"
)

// ==================== TTL 常量 ====================

const (
	// TraceCellTTL 网格单元足迹缓存 TTL
	TraceCellTTL = 6 * time.Hour
	// TraceCellEmptyTTL 网格单元空值缓存 TTL
	TraceCellEmptyTTL = 5 * time.Minute

	// BlockSetTTL 拉黑关系缓存 TTL
	BlockSetTTL = 24 * time.Hour
	// BlockSetEmptyTTL 拉黑关系空值缓存 TTL
	BlockSetEmptyTTL = 5 * time.Minute

	// RateLimitBaseTTL 限流 key 最小 TTL
	RateLimitBaseTTL = time.Minute
)

// EmptyPlaceholder 空值占位符，防止缓存穿透
const EmptyPlaceholder = "__EMPTY__"

// ==================== Key 构造函数 ====================

// TraceCellKey 生成网格单元足迹缓存 Key: trace:cell:{gridX}:{gridY}
// 成员为足迹 uuid，score 为创建时间戳
func TraceCellKey(gridX, gridY int64) string {
	return fmt.Sprintf("trace:cell:%d:%d", gridX, gridY)
}

// BlockSetKey 生成拉黑关系缓存 Key: user:relation:block:{userUUID}
// Set 成员为被该用户拉黑的用户 uuid
func BlockSetKey(userUUID string) string {
	return fmt.Sprintf("user:relation:block:%s", userUUID)
}

// RateLimitIPKey 生成 IP 限流 Key: rate:limit:ip:{ip}
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("rate:limit:ip:%s", ip)
}

// RateLimitUserKey 生成用户限流 Key: rate:limit:user:{userUUID}
func RateLimitUserKey(userUUID string) string {
	return fmt.Sprintf("rate:limit:user:%s", userUUID)
}

// IPBlacklistKey IP 黑名单 Set 的 Key，成员为被封禁的 IP
const IPBlacklistKey = "rate:limit:blacklist:ips"
