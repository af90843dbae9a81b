package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// Redis 客户端为 nil 时拉黑终止只做事务落库，跳过缓存同步
func TestConnectionRepositoryRedisDegraded(t *testing.T) {
	initRepoTestLogger()

	t.Run("block_and_terminate_commits_without_cache", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewConnectionRepository(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `connection` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM `connection_lock`").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO `user_block`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.BlockAndTerminate(context.Background(), "c1", "u2", "u1")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("block_and_terminate_state_changed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewConnectionRepository(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `connection` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.BlockAndTerminate(context.Background(), "c1", "u2", "u1")
		require.ErrorIs(t, err, ErrStateChanged)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
