package services

import (
	"context"
	"errors"

	"knowhub-backend/internal/adapters/persistence/models"
	"knowhub-backend/internal/adapters/persistence/repositories"
	"knowhub-backend/internal/core/domain"

	"gorm.io/gorm"
)

// RoleService resolves identity role sets against the fixed catalog
type RoleService struct {
	roleRepo repositories.RoleRepository
}

// NewRoleService creates a new role service
func NewRoleService(roleRepo repositories.RoleRepository) *RoleService {
	return &RoleService{roleRepo: roleRepo}
}

// Resolve returns a user's roles sorted ascending by priority. The result
// is recomputed on every call, never cached.
func (s *RoleService) Resolve(ctx context.Context, userID uint) ([]*models.Role, error) {
	return s.roleRepo.ListByUserID(ctx, userID)
}

// PrimaryRole returns the highest-precedence role of a user. An empty role
// set is an invariant violation post-registration and yields ErrNoRole.
func (s *RoleService) PrimaryRole(ctx context.Context, userID uint) (*models.Role, error) {
	roles, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, domain.ErrNoRole
	}
	return roles[0], nil
}

// ValidateRequestedRole checks a requested role name against the fixed
// catalog. An empty name defaults to the lowest-privilege catalog entry.
// Casing and whitespace padding do not affect the result.
func (s *RoleService) ValidateRequestedRole(ctx context.Context, name string) (*models.Role, error) {
	entry, ok := domain.LookupRole(name)
	if name == "" {
		entry, ok = domain.DefaultRole(), true
	}
	if !ok {
		return nil, domain.ErrInvalidRole
	}

	role, err := s.roleRepo.GetByName(ctx, string(entry.Name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidRole
		}
		return nil, err
	}
	if !role.IsActive {
		return nil, domain.ErrInvalidRole
	}

	return role, nil
}

// IsSelfAssignable reports whether a registrant may request the role for
// themselves. Administrative role grants bypass this check.
func (s *RoleService) IsSelfAssignable(name string) bool {
	return domain.IsSelfAssignable(name)
}
