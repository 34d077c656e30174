package repositories

import (
	"context"
	"time"

	"knowhub-backend/internal/adapters/persistence/models"
)

// UserRepository defines the credential store interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// IncrementFailedAttempts performs the increment-and-maybe-lock step as a
	// single atomic statement and returns the refreshed row.
	IncrementFailedAttempts(ctx context.Context, id uint, maxAttempts int, now time.Time) (*models.User, error)
	ResetFailedAttempts(ctx context.Context, id uint) error
	Unlock(ctx context.Context, id uint) error
	SetActive(ctx context.Context, id uint, active bool) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error

	AddRole(ctx context.Context, user *models.User, role *models.Role) error
	RemoveRole(ctx context.Context, user *models.User, role *models.Role) error
}

// RoleRepository defines the role catalog store interface
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]*models.Role, error)
	ListByUserID(ctx context.Context, userID uint) ([]*models.Role, error)
	Upsert(ctx context.Context, role *models.Role) error
}

// LoginAuditRepository defines the login audit trail interface
type LoginAuditRepository interface {
	Create(ctx context.Context, audit *models.LoginAudit) error
	ListByUsername(ctx context.Context, username string, limit int) ([]*models.LoginAudit, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
