package repository

import (
	"context"
	"time"

	rediskey "LocusServer/consts/redisKey"
	"LocusServer/internal/mq"
	"LocusServer/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userSummaryCacheSize 进程内用户摘要缓存容量
const userSummaryCacheSize = 4096

// userSummaryCacheTTL 进程内用户摘要缓存 TTL
const userSummaryCacheTTL = 5 * time.Minute

// userRepositoryImpl 用户数据访问层实现
type userRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client

	// summaryCache 连接详情组装时的昵称查询热点缓存
	summaryCache *expirable.LRU[string, *model.UserInfo]
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB, redisClient *redis.Client) IUserRepository {
	return &userRepositoryImpl{
		db:           db,
		redisClient:  redisClient,
		summaryCache: expirable.NewLRU[string, *model.UserInfo](userSummaryCacheSize, nil, userSummaryCacheTTL),
	}
}

// GetByUUID 根据UUID查询用户信息
func (r *userRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	err := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		First(&user).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// GetByEmail 根据邮箱查询用户信息
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	var user model.UserInfo
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// ExistsByEmail 检查邮箱是否已被注册
func (r *userRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// Create 创建新用户
func (r *userRepositoryImpl) Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return user, nil
}

// GetSummariesByUUIDs 批量查询用户摘要
// 进程内 LRU 吸收连接详情组装的热点查询，未命中部分批量回源
func (r *userRepositoryImpl) GetSummariesByUUIDs(ctx context.Context, uuids []string) (map[string]*model.UserInfo, error) {
	result := make(map[string]*model.UserInfo, len(uuids))
	missing := make([]string, 0, len(uuids))

	for _, uuid := range uuids {
		if u, ok := r.summaryCache.Get(uuid); ok {
			result[uuid] = u
			continue
		}
		missing = append(missing, uuid)
	}
	if len(missing) == 0 {
		return result, nil
	}

	var users []*model.UserInfo
	err := r.db.WithContext(ctx).
		Select("uuid", "nickname", "email").
		Where("uuid IN ?", missing).
		Find(&users).Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	for _, u := range users {
		result[u.Uuid] = u
		r.summaryCache.Add(u.Uuid, u)
	}
	return result, nil
}

// SetTracePass 设置通行证过期时间并回拨最近写入时间（仅支付流程调用）
func (r *userRepositoryImpl) SetTracePass(ctx context.Context, userUUID string, passExpireAt, lastTraceAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("uuid = ?", userUUID).
		Updates(map[string]interface{}{
			"trace_pass_expire_at": passExpireAt,
			"last_trace_at":        lastTraceAt,
		})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ==================== 拉黑关系 ====================

// AddBlock 拉黑用户（幂等）
// 重复拉黑时通过 Upsert 恢复软删行，不报错
func (r *userRepositoryImpl) AddBlock(ctx context.Context, userUUID, peerUUID, source string) error {
	now := time.Now()
	block := &model.UserBlock{
		UserUuid:  userUUID,
		PeerUuid:  peerUUID,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_uuid"}, {Name: "peer_uuid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"source":     source,
			"deleted_at": nil,
			"updated_at": now,
		}),
	}).Create(block).Error
	if err != nil {
		return WrapDBError(err)
	}

	// MySQL-Only 降级模式下没有缓存可维护
	if r.redisClient == nil {
		return nil
	}

	// 尽力而为地更新拉黑缓存：只有 Key 存在时才增量添加，
	// Key 不存在时不操作，让读接口负责全量加载
	cacheKey := rediskey.BlockSetKey(userUUID)
	expireSeconds := int(getRandomExpireTime(rediskey.BlockSetTTL).Seconds())
	script := redis.NewScript(luaAddBlockIfExists)
	if _, err := script.Run(ctx, r.redisClient, []string{cacheKey}, peerUUID, expireSeconds).Result(); err != nil && err != redis.Nil {
		task := mq.BuildLuaTask(luaAddBlockIfExists, []string{cacheKey}, peerUUID, expireSeconds).
			WithSource("UserRepository.AddBlock")
		LogAndRetryRedisError(ctx, task, err)
	}

	return nil
}

// RemoveBlock 取消拉黑
func (r *userRepositoryImpl) RemoveBlock(ctx context.Context, userUUID, peerUUID string) error {
	result := r.db.WithContext(ctx).
		Where("user_uuid = ? AND peer_uuid = ?", userUUID, peerUUID).
		Delete(&model.UserBlock{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	if r.redisClient == nil {
		return nil
	}

	// 移除操作对不存在的 Key 天然无害，重试时直接重放 SREM 即可
	cacheKey := rediskey.BlockSetKey(userUUID)
	expireSeconds := int(getRandomExpireTime(rediskey.BlockSetTTL).Seconds())
	script := redis.NewScript(luaRemoveBlockIfExists)
	if _, err := script.Run(ctx, r.redisClient, []string{cacheKey}, peerUUID, expireSeconds).Result(); err != nil && err != redis.Nil {
		task := mq.BuildSRemTask(cacheKey, peerUUID).
			WithSource("UserRepository.RemoveBlock")
		LogAndRetryRedisError(ctx, task, err)
	}

	return nil
}

// IsBlocked 检查 userUUID 是否拉黑了 peerUUID（单向）
// 采用 Cache-Aside Pattern：优先查 Redis Set，未命中则回源 MySQL 并重建缓存
func (r *userRepositoryImpl) IsBlocked(ctx context.Context, userUUID, peerUUID string) (bool, error) {
	cacheKey := rediskey.BlockSetKey(userUUID)

	// ==================== 1. 组合查询 Redis (Pipeline) ====================
	// MySQL-Only 降级模式下跳过缓存直查 DB
	if r.redisClient != nil {
		pipe := r.redisClient.Pipeline()
		existsCmd := pipe.Exists(ctx, cacheKey)
		isMemberCmd := pipe.SIsMember(ctx, cacheKey, peerUUID)

		// 概率续期优化：1% 的概率在读取时顺便续期
		if getRandomBool(0.01) {
			pipe.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.BlockSetTTL))
		}

		_, err := pipe.Exec(ctx)
		if err != nil && err != redis.Nil {
			// Redis 挂了，记录日志，降级去查 DB
			LogRedisError(ctx, err)
		} else if err == nil {
			if existsCmd.Val() > 0 {
				// 缓存命中时 Redis 是权威的；Set 里只有占位符时
				// SIsMember 也会正确返回 false
				return isMemberCmd.Val(), nil
			}
		}
	}

	// ==================== 2. 缓存未命中，回源查询 MySQL ====================
	var blocks []model.UserBlock
	err := r.db.WithContext(ctx).
		Select("peer_uuid").
		Where("user_uuid = ?", userUUID).
		Find(&blocks).Error
	if err != nil {
		return false, WrapDBError(err)
	}

	// ==================== 3. 重建缓存 ====================
	if r.redisClient != nil {
		pipe := r.redisClient.Pipeline()
		pipe.Del(ctx, cacheKey)
		if len(blocks) == 0 {
			// 空值占位，防止缓存穿透
			pipe.SAdd(ctx, cacheKey, rediskey.EmptyPlaceholder)
			pipe.Expire(ctx, cacheKey, rediskey.BlockSetEmptyTTL)
		} else {
			members := make([]interface{}, 0, len(blocks))
			for _, b := range blocks {
				members = append(members, b.PeerUuid)
			}
			pipe.SAdd(ctx, cacheKey, members...)
			pipe.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.BlockSetTTL))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			// Pipeline 半途失败可能留下残缺 Key，入队 DEL 丢弃，
			// 下次读取触发全量重建
			task := mq.BuildDelTask(cacheKey).
				WithSource("UserRepository.IsBlocked")
			LogAndRetryRedisError(ctx, task, err)
		}
	}

	// ==================== 4. 根据回源结果判断 ====================
	for _, b := range blocks {
		if b.PeerUuid == peerUUID {
			return true, nil
		}
	}
	return false, nil
}

// ListBlocks 获取拉黑列表
func (r *userRepositoryImpl) ListBlocks(ctx context.Context, userUUID string, page, pageSize int) ([]*model.UserBlock, int64, error) {
	// 兜底分页参数
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).
		Model(&model.UserBlock{}).
		Where("user_uuid = ?", userUUID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var blocks []*model.UserBlock
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&blocks).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	return blocks, total, nil
}
