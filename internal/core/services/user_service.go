package services

import (
	"context"
	"errors"
	"log"

	"knowhub-backend/internal/adapters/persistence/models"
	"knowhub-backend/internal/adapters/persistence/repositories"
	"knowhub-backend/internal/core/domain"
	"knowhub-backend/internal/pkg/password"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"gorm.io/gorm"
)

// UserService handles user administration and profile management
type UserService struct {
	userRepo       repositories.UserRepository
	roleRepo       repositories.RoleRepository
	roleService    *RoleService
	lockoutService *LockoutService
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	roleRepo repositories.RoleRepository,
	roleService *RoleService,
	lockoutService *LockoutService,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		roleService:    roleService,
		lockoutService: lockoutService,
	}
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users []*models.UserResponse `json:"users"`
	Total int64                  `json:"total"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email       *string `json:"email"`
	FullName    *string `json:"fullName"`
	Department  *string `json:"department"`
	Position    *string `json:"position"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Validate runs validation rules
func (i UpdateProfileInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, is.Email, validation.Length(6, 100)),
		validation.Field(&i.FullName, validation.Length(1, 100)),
		validation.Field(&i.Department, validation.Length(0, 100)),
		validation.Field(&i.Position, validation.Length(0, 100)),
		validation.Field(&i.PhoneNumber, validation.Length(0, 30)),
	)
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Validate runs validation rules
func (i ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.OldPassword, validation.Required),
		validation.Field(&i.NewPassword, validation.Required, validation.Length(password.MinLength, 100)),
	)
}

// ListUsers lists users with pagination
func (s *UserService) ListUsers(ctx context.Context, offset, limit int) (*ListUsersOutput, error) {
	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.ToResponse())
	}

	return &ListUsersOutput{Users: responses, Total: total}, nil
}

// GetUser gets a user by ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// SetActive activates or deactivates an account
func (s *UserService) SetActive(ctx context.Context, id uint, active bool) error {
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return err
	}
	log.Printf("✅ User %d active flag set to %v", id, active)
	return nil
}

// Unlock clears an account lock through the administrative path
func (s *UserService) Unlock(ctx context.Context, id uint) error {
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	return s.lockoutService.AdminUnlock(ctx, id)
}

// GrantRole attaches a catalog role to a user. This is the administrative
// path; it accepts any active catalog role, not just self-assignable ones.
func (s *UserService) GrantRole(ctx context.Context, id uint, roleName string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	role, err := s.roleService.ValidateRequestedRole(ctx, roleName)
	if err != nil {
		return err
	}

	for _, held := range user.Roles {
		if held.Name == role.Name {
			return nil // already granted
		}
	}

	if err := s.userRepo.AddRole(ctx, user, role); err != nil {
		return err
	}
	log.Printf("✅ Role %s granted to user %s", role.Name, user.Username)
	return nil
}

// RevokeRole detaches a role from a user. Every identity keeps at least one
// role; removing the last one is rejected.
func (s *UserService) RevokeRole(ctx context.Context, id uint, roleName string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	normalized := string(domain.NormalizeRoleName(roleName))
	var held *models.Role
	for idx := range user.Roles {
		if user.Roles[idx].Name == normalized {
			held = &user.Roles[idx]
			break
		}
	}
	if held == nil {
		return domain.ErrInvalidRole
	}
	if len(user.Roles) <= 1 {
		return domain.ErrLastRole
	}

	if err := s.userRepo.RemoveRole(ctx, user, held); err != nil {
		return err
	}
	log.Printf("✅ Role %s revoked from user %s", held.Name, user.Username)
	return nil
}

// GetProfile returns the caller's own profile
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.UserResponse, error) {
	user, err := s.getUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile updates the caller's own profile fields
func (s *UserService) UpdateProfile(ctx context.Context, username string, input *UpdateProfileInput) (*models.UserResponse, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.getUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		taken, err := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrEmailTaken
		}
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Department != nil {
		user.Department = *input.Department
	}
	if input.Position != nil {
		user.Position = *input.Position
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = *input.PhoneNumber
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ChangePassword changes the caller's own password after verifying the old one
func (s *UserService) ChangePassword(ctx context.Context, username string, input *ChangePasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	user, err := s.getUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return domain.ErrOldPasswordWrong
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ Password changed for user: %s", username)
	return nil
}

func (s *UserService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) getUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
