package repositories

import (
	"context"
	"time"

	"knowhub-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// withRoles preloads the user's roles ordered by ascending priority, so the
// first loaded role is always the primary role.
func withRoles(db *gorm.DB) *gorm.DB {
	return db.Preload("Roles", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("roles.priority ASC")
	})
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID with roles
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := withRoles(r.db.WithContext(ctx)).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername gets a user by username with roles
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := withRoles(r.db.WithContext(ctx)).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email with roles
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := withRoles(r.db.WithContext(ctx)).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// List lists users with pagination
func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := withRoles(r.db.WithContext(ctx)).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ExistsByUsername checks if username exists
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// IncrementFailedAttempts bumps the failed-attempt counter and locks the
// account in the same statement when the threshold is reached. A single
// UPDATE keeps concurrent failures on the same row from losing increments.
// MySQL evaluates SET clauses left to right, so the lock columns must be
// assigned before the counter itself.
func (r *userRepository) IncrementFailedAttempts(ctx context.Context, id uint, maxAttempts int, now time.Time) (*models.User, error) {
	err := r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET is_locked = IF(failed_login_attempts + 1 >= ?, TRUE, is_locked),
		     locked_at = IF(failed_login_attempts + 1 >= ? AND locked_at IS NULL, ?, locked_at),
		     failed_login_attempts = LEAST(failed_login_attempts + 1, ?)
		 WHERE id = ? AND deleted_at IS NULL`,
		maxAttempts, maxAttempts, now, maxAttempts, id,
	).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ResetFailedAttempts clears the failed-attempt counter. It never touches
// is_locked: a locked account stays locked until an administrative unlock.
func (r *userRepository) ResetFailedAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("failed_login_attempts", 0).Error
}

// Unlock clears the lock state and the failed-attempt counter
func (r *userRepository) Unlock(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_locked":             false,
			"locked_at":             nil,
			"failed_login_attempts": 0,
		}).Error
}

// SetActive sets the active flag
func (r *userRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// UpdateLastLogin records the last successful login timestamp
func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// AddRole attaches a role to a user
func (r *userRepository) AddRole(ctx context.Context, user *models.User, role *models.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Append(role)
}

// RemoveRole detaches a role from a user
func (r *userRepository) RemoveRole(ctx context.Context, user *models.User, role *models.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Delete(role)
}
