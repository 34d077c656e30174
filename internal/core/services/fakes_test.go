package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"knowhub-backend/internal/adapters/persistence/models"
	"knowhub-backend/internal/config"
	"knowhub-backend/internal/core/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// memStore is a shared in-memory backing store for the repository fakes.
// It mimics row semantics: reads hand out copies, writes go through the
// repository methods, and the failed-attempt increment is serialized the
// way the real single-statement UPDATE is.
type memStore struct {
	mu         sync.Mutex
	nextUserID uint
	users      map[uint]*models.User
	roles      map[string]*models.Role
	audits     []*models.LoginAudit
}

func newMemStore() *memStore {
	s := &memStore{
		nextUserID: 1,
		users:      make(map[uint]*models.User),
		roles:      make(map[string]*models.Role),
	}
	for i, entry := range domain.RoleCatalog {
		s.roles[string(entry.Name)] = &models.Role{
			ID:           uint(i + 1),
			Name:         string(entry.Name),
			DisplayName:  entry.DisplayName,
			Description:  entry.Description,
			Priority:     entry.Priority,
			IsSystemRole: entry.SystemRole,
			IsActive:     true,
		}
	}
	return s
}

func (s *memStore) copyUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]models.Role(nil), u.Roles...)
	sort.Slice(c.Roles, func(i, j int) bool { return c.Roles[i].Priority < c.Roles[j].Priority })
	return &c
}

// memUserRepo implements repositories.UserRepository
type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.nextUserID
	r.s.nextUserID++
	user.CreatedAt = time.Now()
	r.s.users[user.ID] = r.s.copyUser(user)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return r.s.copyUser(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return r.s.copyUser(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return r.s.copyUser(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.users[user.ID] = r.s.copyUser(user)
	return nil
}

func (r *memUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]uint, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*models.User
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		out = append(out, r.s.copyUser(r.s.users[id]))
	}
	return out, int64(len(ids)), nil
}

func (r *memUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) IncrementFailedAttempts(_ context.Context, id uint, maxAttempts int, now time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	next := u.FailedLoginAttempts + 1
	if next >= maxAttempts {
		u.IsLocked = true
		if u.LockedAt == nil {
			at := now
			u.LockedAt = &at
		}
	}
	if next > maxAttempts {
		next = maxAttempts
	}
	u.FailedLoginAttempts = next
	return r.s.copyUser(u), nil
}

func (r *memUserRepo) ResetFailedAttempts(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.FailedLoginAttempts = 0
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *memUserRepo) Unlock(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.IsLocked = false
		u.LockedAt = nil
		u.FailedLoginAttempts = 0
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *memUserRepo) SetActive(_ context.Context, id uint, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.IsActive = active
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		t := at
		u.LastLoginAt = &t
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *memUserRepo) AddRole(_ context.Context, user *models.User, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Roles = append(u.Roles, *role)
	return nil
}

func (r *memUserRepo) RemoveRole(_ context.Context, user *models.User, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := u.Roles[:0]
	for _, held := range u.Roles {
		if held.Name != role.Name {
			kept = append(kept, held)
		}
	}
	u.Roles = kept
	return nil
}

// memRoleRepo implements repositories.RoleRepository
type memRoleRepo struct{ s *memStore }

func (r *memRoleRepo) GetByName(_ context.Context, name string) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if role, ok := r.s.roles[name]; ok {
		c := *role
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRoleRepo) List(_ context.Context) ([]*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		c := *role
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (r *memRoleRepo) ListByUserID(_ context.Context, userID uint) ([]*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]*models.Role, 0, len(u.Roles))
	for i := range u.Roles {
		c := u.Roles[i]
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (r *memRoleRepo) Upsert(_ context.Context, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *role
	r.s.roles[role.Name] = &c
	return nil
}

// memAuditRepo implements repositories.LoginAuditRepository
type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Create(_ context.Context, audit *models.LoginAudit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	audit.CreatedAt = time.Now()
	r.s.audits = append(r.s.audits, audit)
	return nil
}

func (r *memAuditRepo) ListByUsername(_ context.Context, username string, limit int) ([]*models.LoginAudit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.LoginAudit
	for i := len(r.s.audits) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.audits[i].Username == username {
			out = append(out, r.s.audits[i])
		}
	}
	return out, nil
}

func (r *memAuditRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.audits[:0]
	var deleted int64
	for _, a := range r.s.audits {
		if a.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	r.s.audits = kept
	return deleted, nil
}

// testConfig returns a config suitable for service tests
func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			RefreshTokenDays: 7,
		},
		Auth: config.AuthConfig{
			RegisterAutoActivate: true,
			AuditRetentionDays:   90,
		},
	}
}

// newTestServices wires the service graph on top of a fresh in-memory store
func newTestServices(store *memStore) (*AuthService, *UserService, *LockoutService, *RoleService) {
	userRepo := &memUserRepo{s: store}
	roleRepo := &memRoleRepo{s: store}
	auditRepo := &memAuditRepo{s: store}

	roleService := NewRoleService(roleRepo)
	lockoutService := NewLockoutService(userRepo)
	authService := NewAuthService(userRepo, auditRepo, roleService, lockoutService, testConfig())
	userService := NewUserService(userRepo, roleRepo, roleService, lockoutService)
	return authService, userService, lockoutService, roleService
}

// seedUser creates a user directly in the store. MinCost keeps bcrypt from
// dominating the test runtime; Verify accepts any cost.
func seedUser(t *testing.T, store *memStore, username, plainPassword string, roleNames ...domain.RoleName) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	user := &models.User{
		ID:       store.nextUserID,
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		FullName: "Test " + username,
		IsActive: true,
	}
	store.nextUserID++

	if len(roleNames) == 0 {
		roleNames = []domain.RoleName{domain.RoleMember}
	}
	for _, name := range roleNames {
		user.Roles = append(user.Roles, *store.roles[string(name)])
	}

	store.users[user.ID] = store.copyUser(user)
	return user
}
