package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gdb, mock
}

func TestIncrementFailedAttemptsLocksAtThreshold(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	// The increment and the lock happen in one statement, then the row is
	// re-read with roles preloaded.
	mock.ExpectExec(`UPDATE users`).
		WithArgs(5, 5, sqlmock.AnyArg(), 5, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "is_active", "is_locked", "failed_login_attempts"}).
			AddRow(7, "alice", true, true, 5))
	mock.ExpectQuery("SELECT \\* FROM `user_roles`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role_id"}))

	user, err := repo.IncrementFailedAttempts(context.Background(), 7, 5, time.Now())
	require.NoError(t, err)
	assert.True(t, user.IsLocked)
	assert.Equal(t, 5, user.FailedLoginAttempts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetFailedAttemptsTouchesOnlyCounter(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectExec("UPDATE `users` SET `failed_login_attempts`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ResetFailedAttempts(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockClearsLockStateAndCounter(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectExec("UPDATE `users` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Unlock(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsernameNotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsernamePreloadsRolesByPriority(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "is_active"}).
			AddRow(7, "alice", true))
	mock.ExpectQuery("SELECT \\* FROM `user_roles`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role_id"}).
			AddRow(7, 2).
			AddRow(7, 11))
	mock.ExpectQuery("SELECT \\* FROM `roles`.*ORDER BY roles.priority ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "priority"}).
			AddRow(2, "ROLE_ADMIN", 10).
			AddRow(11, "ROLE_MEMBER", 300))

	user, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, user.Roles, 2)
	assert.Equal(t, "ROLE_ADMIN", user.Roles[0].Name)
	assert.Equal(t, "ROLE_MEMBER", user.Roles[1].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActive(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectExec("UPDATE `users` SET `is_active`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), 7, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
