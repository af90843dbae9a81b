package repository

import (
	"context"
	"errors"
	"time"

	rediskey "LocusServer/consts/redisKey"
	"LocusServer/internal/mq"
	"LocusServer/model"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// connectionRepositoryImpl 连接数据访问层实现
type connectionRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewConnectionRepository 创建连接仓储实例
func NewConnectionRepository(db *gorm.DB, redisClient *redis.Client) IConnectionRepository {
	return &connectionRepositoryImpl{db: db, redisClient: redisClient}
}

// Create 创建待处理连接并为双方插入占位行（同事务）
// connection_lock.user_uuid 的唯一索引是 "每人至多一条进行中连接" 的最终防线：
// 先插发起方占位再插接收方占位，借插入顺序区分冲突方。
func (r *connectionRepositoryImpl) Create(ctx context.Context, conn *model.Connection) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conn).Error; err != nil {
			return err
		}

		initiatorLock := &model.ConnectionLock{
			UserUuid:       conn.InitiatorUuid,
			ConnectionUuid: conn.Uuid,
		}
		if err := tx.Create(initiatorLock).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrInitiatorBusy
			}
			return err
		}

		recipientLock := &model.ConnectionLock{
			UserUuid:       conn.RecipientUuid,
			ConnectionUuid: conn.Uuid,
		}
		if err := tx.Create(recipientLock).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrRecipientBusy
			}
			return err
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInitiatorBusy) || errors.Is(err, ErrRecipientBusy) {
			return err
		}
		return WrapDBError(err)
	}
	return nil
}

// GetByUUID 根据UUID查询连接
func (r *connectionRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		First(&conn).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &conn, nil
}

// GetLiveByUser 查询用户的进行中连接
// 通过占位行定位，与唯一性约束共用同一数据源
func (r *connectionRepositoryImpl) GetLiveByUser(ctx context.Context, userUUID string) (*model.Connection, error) {
	var lock model.ConnectionLock
	err := r.db.WithContext(ctx).
		Where("user_uuid = ?", userUUID).
		First(&lock).Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	return r.GetByUUID(ctx, lock.ConnectionUuid)
}

// Activate 接受连接：CAS 置为生效期并写入起止时间
func (r *connectionRepositoryImpl) Activate(ctx context.Context, uuid string, startDate, endDate time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("uuid = ? AND status = ?", uuid, model.ConnStatusPending).
		Updates(map[string]interface{}{
			"status":     model.ConnStatusActive,
			"start_date": startDate,
			"end_date":   endDate,
		})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}

	// 未命中说明状态已被并发修改（已处理/已过期）
	if result.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}

// Terminate 将连接 CAS 置为终态，并在同事务内释放双方占位行
func (r *connectionRepositoryImpl) Terminate(ctx context.Context, uuid string, fromStatuses []int8, toStatus int8) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Connection{}).
			Where("uuid = ? AND status IN ?", uuid, fromStatuses).
			Update("status", toStatus)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateChanged
		}

		// 释放双方占位行，进行中名额即刻归还
		return tx.Where("connection_uuid = ?", uuid).
			Delete(&model.ConnectionLock{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrStateChanged) {
			return err
		}
		return WrapDBError(err)
	}
	return nil
}

// BlockAndTerminate 接收方拉黑处理
// 同一事务内：连接置为 BLOCKED、释放占位、写入拉黑关系（幂等 Upsert）
func (r *connectionRepositoryImpl) BlockAndTerminate(ctx context.Context, uuid, actingUserUUID, initiatorUUID string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Connection{}).
			Where("uuid = ? AND status = ?", uuid, model.ConnStatusPending).
			Update("status", model.ConnStatusBlocked)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateChanged
		}

		if err := tx.Where("connection_uuid = ?", uuid).
			Delete(&model.ConnectionLock{}).Error; err != nil {
			return err
		}

		// 拉黑关系幂等写入，重复拉黑恢复软删行
		block := &model.UserBlock{
			UserUuid:  actingUserUUID,
			PeerUuid:  initiatorUUID,
			Source:    model.BlockSourceConnection,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_uuid"}, {Name: "peer_uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"source":     model.BlockSourceConnection,
				"deleted_at": nil,
				"updated_at": now,
			}),
		}).Create(block).Error
	})
	if err != nil {
		if errors.Is(err, ErrStateChanged) {
			return err
		}
		return WrapDBError(err)
	}

	// MySQL-Only 降级模式下没有缓存可维护
	if r.redisClient == nil {
		return nil
	}

	// 事务成功后尽力而为地同步拉黑缓存（仅 Key 存在时增量添加）
	cacheKey := rediskey.BlockSetKey(actingUserUUID)
	expireSeconds := int(getRandomExpireTime(rediskey.BlockSetTTL).Seconds())
	script := redis.NewScript(luaAddBlockIfExists)
	if _, scriptErr := script.Run(ctx, r.redisClient, []string{cacheKey}, initiatorUUID, expireSeconds).Result(); scriptErr != nil && scriptErr != redis.Nil {
		task := mq.BuildLuaTask(luaAddBlockIfExists, []string{cacheKey}, initiatorUUID, expireSeconds).
			WithSource("ConnectionRepository.BlockAndTerminate")
		LogAndRetryRedisError(ctx, task, scriptErr)
	}

	return nil
}
