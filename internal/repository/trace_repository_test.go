package repository

import (
	"context"
	"testing"
	"time"

	"LocusServer/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis 客户端为 nil 时网格缓存全部旁路，读写只走 MySQL
func TestTraceRepositoryRedisDegraded(t *testing.T) {
	initRepoTestLogger()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	t.Run("create_with_quota_commits_without_cache", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTraceRepository(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `trace`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE `user_info` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		trace := &model.Trace{
			Uuid:       "t1",
			AuthorUuid: "u1",
			Content:    "hello",
			GridX:      100,
			GridY:      200,
			CreatedAt:  now,
			ExpireAt:   now.Add(72 * time.Hour),
		}
		err := repo.CreateWithQuota(context.Background(), trace, 1, now)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create_with_quota_missing_author_rolls_back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTraceRepository(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `trace`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE `user_info` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		trace := &model.Trace{Uuid: "t1", AuthorUuid: "ghost", CreatedAt: now, ExpireAt: now.Add(72 * time.Hour)}
		err := repo.CreateWithQuota(context.Background(), trace, 1, now)
		require.ErrorIs(t, err, ErrRecordNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list_by_cell_falls_back_to_db", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTraceRepository(db, nil)

		mock.ExpectQuery("SELECT count(.+) FROM `trace`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))
		mock.ExpectQuery("SELECT(.+)FROM `trace`").
			WillReturnRows(sqlmock.NewRows([]string{"uuid", "author_uuid", "grid_x", "grid_y"}).
				AddRow("t2", "u2", 100, 200).
				AddRow("t1", "u1", 100, 200))

		traces, total, err := repo.ListByCell(context.Background(), 100, 200, now, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, traces, 2)
		assert.Equal(t, "t2", traces[0].Uuid)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
