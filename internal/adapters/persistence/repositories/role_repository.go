package repositories

import (
	"context"

	"knowhub-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// roleRepository implements RoleRepository interface
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// GetByName gets a role by its catalog name
func (r *roleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// List lists all roles ordered by ascending priority
func (r *roleRepository) List(ctx context.Context) ([]*models.Role, error) {
	var roles []*models.Role
	err := r.db.WithContext(ctx).Order("priority ASC").Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// ListByUserID lists a user's roles ordered by ascending priority
func (r *roleRepository) ListByUserID(ctx context.Context, userID uint) ([]*models.Role, error) {
	var roles []*models.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.priority ASC").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// Upsert inserts a role or refreshes its display fields. Name is the
// conflict key; is_system_role is immutable once created.
func (r *roleRepository) Upsert(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "description", "priority"}),
		}).
		Create(role).Error
}
