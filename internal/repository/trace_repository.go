package repository

import (
	"context"
	"errors"
	"time"

	rediskey "LocusServer/consts/redisKey"
	"LocusServer/internal/mq"
	"LocusServer/model"
	"LocusServer/pkg/async"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// traceRepositoryImpl 足迹数据访问层实现
type traceRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewTraceRepository 创建足迹仓储实例
func NewTraceRepository(db *gorm.DB, redisClient *redis.Client) ITraceRepository {
	return &traceRepositoryImpl{db: db, redisClient: redisClient}
}

// CreateWithQuota 创建足迹并在同事务内更新作者的配额字段
// 配额的懒惰重置在这里落盘：跨自然日后的首次写入 dailyCount 传 1
func (r *traceRepositoryImpl) CreateWithQuota(ctx context.Context, trace *model.Trace, dailyCount int, lastTraceAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trace).Error; err != nil {
			return err
		}

		result := tx.Model(&model.UserInfo{}).
			Where("uuid = ?", trace.AuthorUuid).
			Updates(map[string]interface{}{
				"trace_daily_count": dailyCount,
				"last_trace_at":     lastTraceAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return WrapDBError(err)
	}

	// MySQL-Only 降级模式下没有缓存可维护
	if r.redisClient == nil {
		return nil
	}

	// 尽力而为地更新网格缓存。
	// 关键原则：只有 Key 存在时才增量添加，Key 不存在时不操作（让读接口负责全量加载）。
	// 这避免了 Key 过期后增量添加导致缓存数据不完整的问题。
	cacheKey := rediskey.TraceCellKey(trace.GridX, trace.GridY)
	expireSeconds := int(getRandomExpireTime(rediskey.TraceCellTTL).Seconds())
	script := redis.NewScript(luaAddTraceToCellIfExists)
	_, err = script.Run(ctx, r.redisClient,
		[]string{cacheKey},
		trace.CreatedAt.Unix(),
		trace.Uuid,
		expireSeconds,
	).Result()
	if err != nil && err != redis.Nil {
		task := mq.BuildLuaTask(luaAddTraceToCellIfExists, []string{cacheKey}, trace.CreatedAt.Unix(), trace.Uuid, expireSeconds).
			WithSource("TraceRepository.CreateWithQuota")
		LogAndRetryRedisError(ctx, task, err)
	}

	return nil
}

// GetByUUID 根据UUID查询足迹
func (r *traceRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.Trace, error) {
	var trace model.Trace
	err := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		First(&trace).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &trace, nil
}

// ListByCell 查询网格单元内展示中且未过期的足迹
// 冷热分离：优先查 Redis ZSet（仅存 uuid），完整行始终回 MySQL 补全，
// 由 MySQL 的 status/expire_at 条件兜底正确性；缓存失败降级直查
func (r *traceRepositoryImpl) ListByCell(ctx context.Context, gridX, gridY int64, now time.Time, page, pageSize int) ([]*model.Trace, int64, error) {
	// 兜底分页参数
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	// MySQL-Only 降级模式下直查 DB
	if r.redisClient == nil {
		return r.listCellFromDB(ctx, gridX, gridY, now, page, pageSize)
	}

	traces, total, err := r.listCellFromCache(ctx, gridX, gridY, now, page, pageSize)
	if err == nil {
		return traces, total, nil
	}
	// Redis 未命中或失败，降级走 MySQL 其中失败情况下打日志
	if !errors.Is(err, ErrRedisNil) {
		LogRedisError(ctx, err)
	}

	return r.listCellFromDB(ctx, gridX, gridY, now, page, pageSize)
}

// listCellFromCache 从 Redis ZSet 获取网格单元足迹列表
// 返回 error 表示缓存未命中或失败，调用方应降级到 MySQL
func (r *traceRepositoryImpl) listCellFromCache(ctx context.Context, gridX, gridY int64, now time.Time, page, pageSize int) ([]*model.Trace, int64, error) {
	cacheKey := rediskey.TraceCellKey(gridX, gridY)

	// 1. Pipeline 查询：总数 + 分页成员
	pipe := r.redisClient.Pipeline()
	totalCmd := pipe.ZCard(ctx, cacheKey)
	start := int64((page - 1) * pageSize)
	stop := start + int64(pageSize) - 1
	membersCmd := pipe.ZRevRange(ctx, cacheKey, start, stop) // 按 score(created_at) 倒序

	// 概率续期：1% 概率续期避免热点 key 过期
	if getRandomBool(0.01) {
		pipe.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.TraceCellTTL))
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return nil, 0, WrapRedisError(err)
	}

	total := totalCmd.Val()
	uuids := membersCmd.Val()

	// 2. 缓存未命中（key 不存在）
	if total == 0 {
		return nil, 0, ErrRedisNil
	}

	// 3. 空值占位符检查
	if total == 1 && len(uuids) == 1 && uuids[0] == rediskey.EmptyPlaceholder {
		return []*model.Trace{}, 0, nil
	}

	// 过滤掉可能的空值占位符
	filtered := make([]string, 0, len(uuids))
	for _, uuid := range uuids {
		if uuid != rediskey.EmptyPlaceholder {
			filtered = append(filtered, uuid)
		}
	}
	if len(filtered) == 0 {
		return []*model.Trace{}, total, nil
	}

	// 4. 批量查 MySQL 补全完整字段，同时兜底状态与过期过滤
	var traces []*model.Trace
	err = r.db.WithContext(ctx).
		Where("uuid IN ? AND status = ? AND expire_at > ?", filtered, model.TraceStatusActive, now).
		Order("created_at DESC").
		Find(&traces).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}

	// 5. 如果有占位符，总数需要减 1
	realTotal := total
	for _, uuid := range uuids {
		if uuid == rediskey.EmptyPlaceholder {
			realTotal--
			break
		}
	}

	return traces, realTotal, nil
}

// listCellFromDB 从 MySQL 查询网格单元足迹列表，并异步重建缓存
func (r *traceRepositoryImpl) listCellFromDB(ctx context.Context, gridX, gridY int64, now time.Time, page, pageSize int) ([]*model.Trace, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Trace{}).
		Where("grid_x = ? AND grid_y = ? AND status = ? AND expire_at > ?",
			gridX, gridY, model.TraceStatusActive, now)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var traces []*model.Trace
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&traces).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	r.rebuildCellCacheAsync(ctx, gridX, gridY, now)

	return traces, total, nil
}

// rebuildCellCacheAsync 异步重建网格单元的 Redis 缓存
// 注意：必须重新查询全量数据，不能使用分页数据
func (r *traceRepositoryImpl) rebuildCellCacheAsync(ctx context.Context, gridX, gridY int64, now time.Time) {
	if r.redisClient == nil {
		return
	}

	cacheKey := rediskey.TraceCellKey(gridX, gridY)

	async.RunSafe(ctx, func(runCtx context.Context) {
		// 1. 重新查询全量展示中足迹（只需要 uuid 和 created_at）
		var traces []model.Trace
		err := r.db.WithContext(runCtx).
			Select("uuid", "created_at").
			Where("grid_x = ? AND grid_y = ? AND status = ? AND expire_at > ?",
				gridX, gridY, model.TraceStatusActive, now).
			Find(&traces).Error
		if err != nil {
			// 异步重建缓存失败静默忽略，不影响主流程
			return
		}

		// 2. 重建缓存
		pipe := r.redisClient.Pipeline()
		pipe.Del(runCtx, cacheKey)

		if len(traces) == 0 {
			// 空值占位，防止缓存穿透
			pipe.ZAdd(runCtx, cacheKey, redis.Z{
				Score:  0,
				Member: rediskey.EmptyPlaceholder,
			})
			pipe.Expire(runCtx, cacheKey, rediskey.TraceCellEmptyTTL)
		} else {
			zs := make([]redis.Z, 0, len(traces))
			for _, trace := range traces {
				zs = append(zs, redis.Z{
					Score:  float64(trace.CreatedAt.Unix()),
					Member: trace.Uuid,
				})
			}
			pipe.ZAdd(runCtx, cacheKey, zs...)
			pipe.Expire(runCtx, cacheKey, getRandomExpireTime(rediskey.TraceCellTTL))
		}

		if _, err := pipe.Exec(runCtx); err != nil {
			// Pipeline 半途失败可能留下残缺 Key，入队 DEL 丢弃，
			// 下次读取触发全量重建
			task := mq.BuildDelTask(cacheKey).
				WithSource("TraceRepository.rebuildCellCacheAsync")
			LogAndRetryRedisError(runCtx, task, err)
		}
	}, 0)
}

// GetLikedSet 查询用户在给定足迹集合中点赞过的子集
func (r *traceRepositoryImpl) GetLikedSet(ctx context.Context, userUUID string, traceUUIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(traceUUIDs))
	if len(traceUUIDs) == 0 {
		return liked, nil
	}

	var likes []model.TraceLike
	err := r.db.WithContext(ctx).
		Select("trace_uuid").
		Where("user_uuid = ? AND trace_uuid IN ?", userUUID, traceUUIDs).
		Find(&likes).Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	for _, l := range likes {
		liked[l.TraceUuid] = true
	}
	return liked, nil
}

// Like 点赞（幂等）
// 同事务内：插入点赞行 + 条件自增计数，计数增减以成员插入是否生效为准，
// 保证 like_count 与 trace_like 行数永不漂移
func (r *traceRepositoryImpl) Like(ctx context.Context, traceUUID, userUUID string) (int64, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &model.TraceLike{
			TraceUuid: traceUUID,
			UserUuid:  userUUID,
		}
		if err := tx.Create(like).Error; err != nil {
			// 重复点赞：不计数，幂等成功
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}

		return tx.Model(&model.Trace{}).
			Where("uuid = ?", traceUUID).
			Update("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		return 0, WrapDBError(err)
	}

	return r.getLikeCount(ctx, traceUUID)
}

// Unlike 取消点赞（幂等）
func (r *traceRepositoryImpl) Unlike(ctx context.Context, traceUUID, userUUID string) (int64, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("trace_uuid = ? AND user_uuid = ?", traceUUID, userUUID).
			Delete(&model.TraceLike{})
		if result.Error != nil {
			return result.Error
		}
		// 本就未点赞：不计数，幂等成功
		if result.RowsAffected == 0 {
			return nil
		}

		return tx.Model(&model.Trace{}).
			Where("uuid = ? AND like_count > 0", traceUUID).
			Update("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		return 0, WrapDBError(err)
	}

	return r.getLikeCount(ctx, traceUUID)
}

// getLikeCount 读取最新点赞数
func (r *traceRepositoryImpl) getLikeCount(ctx context.Context, traceUUID string) (int64, error) {
	var trace model.Trace
	err := r.db.WithContext(ctx).
		Select("like_count").
		Where("uuid = ?", traceUUID).
		First(&trace).Error
	if err != nil {
		return 0, WrapDBError(err)
	}
	return trace.LikeCount, nil
}

// Report 举报
// 同事务内：插入举报行（唯一索引拦截重复）、累加举报分、
// 达阈值单向翻转 HIDDEN。返回值表示本次是否触发隐藏
func (r *traceRepositoryImpl) Report(ctx context.Context, traceUUID, reporterUUID, reason string, influence float64) (bool, error) {
	var hidden bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report := &model.TraceReport{
			TraceUuid:    traceUUID,
			ReporterUuid: reporterUUID,
			Reason:       reason,
			Influence:    influence,
		}
		if err := tx.Create(report).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Trace{}).
			Where("uuid = ?", traceUUID).
			Update("report_score", gorm.Expr("report_score + ?", influence)).Error; err != nil {
			return err
		}

		// 达阈值翻转为 HIDDEN（仅从 ACTIVE 翻转，单向）
		result := tx.Model(&model.Trace{}).
			Where("uuid = ? AND status = ? AND report_score >= ?",
				traceUUID, model.TraceStatusActive, model.TraceHideScore).
			Update("status", model.TraceStatusHidden)
		if result.Error != nil {
			return result.Error
		}
		hidden = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, WrapDBError(err)
	}

	if hidden {
		r.removeFromCellCache(ctx, traceUUID, "TraceRepository.Report")
	}
	return hidden, nil
}

// SoftDelete 作者软删除，置为 REMOVED
func (r *traceRepositoryImpl) SoftDelete(ctx context.Context, traceUUID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Trace{}).
		Where("uuid = ? AND status <> ?", traceUUID, model.TraceStatusRemoved).
		Update("status", model.TraceStatusRemoved)
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	r.removeFromCellCache(ctx, traceUUID, "TraceRepository.SoftDelete")
	return nil
}

// removeFromCellCache 尽力而为地将足迹移出网格缓存
func (r *traceRepositoryImpl) removeFromCellCache(ctx context.Context, traceUUID, source string) {
	if r.redisClient == nil {
		return
	}

	trace, err := r.GetByUUID(ctx, traceUUID)
	if err != nil {
		return
	}

	// 移除操作对不存在的 Key 天然无害，重试时直接重放 ZREM 即可
	cacheKey := rediskey.TraceCellKey(trace.GridX, trace.GridY)
	expireSeconds := int(getRandomExpireTime(rediskey.TraceCellTTL).Seconds())
	script := redis.NewScript(luaRemoveTraceFromCellIfExists)
	if _, err := script.Run(ctx, r.redisClient, []string{cacheKey}, traceUUID, expireSeconds).Result(); err != nil && err != redis.Nil {
		task := mq.BuildZRemTask(cacheKey, traceUUID).
			WithSource(source)
		LogAndRetryRedisError(ctx, task, err)
	}
}

// PurgeExpiredBefore 物理清除过期足迹
func (r *traceRepositoryImpl) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expire_at <= ?", cutoff).
		Delete(&model.Trace{})
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}
