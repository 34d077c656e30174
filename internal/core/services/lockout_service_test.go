package services

import (
	"context"
	"sync"
	"testing"

	"knowhub-backend/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAccess(t *testing.T) {
	store := newMemStore()
	_, _, lockout, _ := newTestServices(store)

	tests := []struct {
		name string
		user models.User
		want AccessDecision
	}{
		{"active unlocked", models.User{IsActive: true}, AccessAllowed},
		{"deactivated", models.User{IsActive: false}, AccessDeactivated},
		{"deactivated wins over locked", models.User{IsActive: false, IsLocked: true, FailedLoginAttempts: 5}, AccessDeactivated},
		{"locked by administrator", models.User{IsActive: true, IsLocked: true, FailedLoginAttempts: 0}, AccessLocked},
		{"locked by exhausted attempts", models.User{IsActive: true, IsLocked: true, FailedLoginAttempts: 5}, AccessAttemptsExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lockout.CheckAccess(&tt.user))
		})
	}
}

func TestRecordFailureLocksAtThreshold(t *testing.T) {
	store := newMemStore()
	_, _, lockout, _ := newTestServices(store)
	user := seedUser(t, store, "alice", "password123")
	ctx := context.Background()

	for i := 1; i < MaxFailedAttempts; i++ {
		updated, lockedNow, err := lockout.RecordFailure(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, i, updated.FailedLoginAttempts)
		assert.False(t, lockedNow)
		assert.False(t, updated.IsLocked)
		assert.Nil(t, updated.LockedAt)
	}

	updated, lockedNow, err := lockout.RecordFailure(ctx, user)
	require.NoError(t, err)
	assert.True(t, lockedNow)
	assert.True(t, updated.IsLocked)
	assert.Equal(t, MaxFailedAttempts, updated.FailedLoginAttempts)
	require.NotNil(t, updated.LockedAt)
	lockedAt := *updated.LockedAt

	// Further failures stay capped and keep the original lock timestamp
	updated, lockedNow, err = lockout.RecordFailure(ctx, updated)
	require.NoError(t, err)
	assert.False(t, lockedNow)
	assert.Equal(t, MaxFailedAttempts, updated.FailedLoginAttempts)
	require.NotNil(t, updated.LockedAt)
	assert.Equal(t, lockedAt, *updated.LockedAt)
}

func TestRecordFailureConcurrent(t *testing.T) {
	store := newMemStore()
	_, _, lockout, _ := newTestServices(store)
	user := seedUser(t, store, "alice", "password123")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := lockout.RecordFailure(ctx, user)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	row, err := (&memUserRepo{s: store}).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, MaxFailedAttempts, row.FailedLoginAttempts)
	assert.True(t, row.IsLocked)
}

func TestRecordSuccessResetsCounterButNeverUnlocks(t *testing.T) {
	store := newMemStore()
	_, _, lockout, _ := newTestServices(store)
	user := seedUser(t, store, "alice", "password123")
	ctx := context.Background()
	repo := &memUserRepo{s: store}

	for i := 0; i < MaxFailedAttempts; i++ {
		_, _, err := lockout.RecordFailure(ctx, user)
		require.NoError(t, err)
	}

	locked, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, locked.IsLocked)

	require.NoError(t, lockout.RecordSuccess(ctx, locked))

	after, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.FailedLoginAttempts)
	assert.True(t, after.IsLocked, "a successful verification must not clear the lock")
	assert.NotNil(t, after.LockedAt)
}

func TestAdminUnlock(t *testing.T) {
	store := newMemStore()
	_, _, lockout, _ := newTestServices(store)
	user := seedUser(t, store, "alice", "password123")
	ctx := context.Background()
	repo := &memUserRepo{s: store}

	for i := 0; i < MaxFailedAttempts; i++ {
		_, _, err := lockout.RecordFailure(ctx, user)
		require.NoError(t, err)
	}

	require.NoError(t, lockout.AdminUnlock(ctx, user.ID))

	after, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, after.IsLocked)
	assert.Nil(t, after.LockedAt)
	assert.Equal(t, 0, after.FailedLoginAttempts)
	assert.Equal(t, AccessAllowed, lockout.CheckAccess(after))
}
