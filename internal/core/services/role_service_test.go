package services

import (
	"context"
	"testing"

	"knowhub-backend/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsRolesByAscendingPriority(t *testing.T) {
	store := newMemStore()
	_, _, _, roleService := newTestServices(store)
	user := seedUser(t, store, "alice", "password123",
		domain.RoleMember, domain.RoleAdmin, domain.RoleEditor)

	roles, err := roleService.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, "ROLE_ADMIN", roles[0].Name)
	assert.Equal(t, "ROLE_EDITOR", roles[1].Name)
	assert.Equal(t, "ROLE_MEMBER", roles[2].Name)
}

func TestPrimaryRole(t *testing.T) {
	store := newMemStore()
	_, _, _, roleService := newTestServices(store)
	user := seedUser(t, store, "alice", "password123",
		domain.RoleViewer, domain.RoleKnowledgeManager)

	primary, err := roleService.PrimaryRole(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ROLE_KNOWLEDGE_MANAGER", primary.Name)
}

func TestPrimaryRoleEmptySet(t *testing.T) {
	store := newMemStore()
	_, _, _, roleService := newTestServices(store)
	user := seedUser(t, store, "alice", "password123")

	store.mu.Lock()
	store.users[user.ID].Roles = nil
	store.mu.Unlock()

	_, err := roleService.PrimaryRole(context.Background(), user.ID)
	assert.ErrorIs(t, err, domain.ErrNoRole)
}

func TestValidateRequestedRole(t *testing.T) {
	store := newMemStore()
	_, _, _, roleService := newTestServices(store)
	ctx := context.Background()

	t.Run("empty name defaults to viewer", func(t *testing.T) {
		role, err := roleService.ValidateRequestedRole(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "ROLE_VIEWER", role.Name)
	})

	t.Run("casing and padding are normalized", func(t *testing.T) {
		role, err := roleService.ValidateRequestedRole(ctx, "  role_member ")
		require.NoError(t, err)
		assert.Equal(t, "ROLE_MEMBER", role.Name)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := roleService.ValidateRequestedRole(ctx, "ROLE_WIZARD")
		assert.ErrorIs(t, err, domain.ErrInvalidRole)
	})

	t.Run("inactive catalog role is rejected", func(t *testing.T) {
		store.mu.Lock()
		store.roles["ROLE_MEMBER"].IsActive = false
		store.mu.Unlock()

		_, err := roleService.ValidateRequestedRole(ctx, "ROLE_MEMBER")
		assert.ErrorIs(t, err, domain.ErrInvalidRole)

		store.mu.Lock()
		store.roles["ROLE_MEMBER"].IsActive = true
		store.mu.Unlock()
	})
}

func TestRoleServiceIsSelfAssignable(t *testing.T) {
	store := newMemStore()
	_, _, _, roleService := newTestServices(store)

	assert.True(t, roleService.IsSelfAssignable("ROLE_VIEWER"))
	assert.True(t, roleService.IsSelfAssignable("ROLE_CONTRIBUTOR"))
	assert.False(t, roleService.IsSelfAssignable("ROLE_SUPER_ADMIN"))
	assert.False(t, roleService.IsSelfAssignable("ROLE_CONTENT_MANAGER"))
}
