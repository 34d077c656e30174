package services

import (
	"context"
	"errors"
	"log"
	"time"

	"knowhub-backend/internal/adapters/persistence/models"
	"knowhub-backend/internal/adapters/persistence/repositories"
	"knowhub-backend/internal/config"
	"knowhub-backend/internal/core/domain"
	"knowhub-backend/internal/pkg/password"
	"knowhub-backend/internal/pkg/token"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService orchestrates login, registration, refresh, and logout.
// It is stateless across calls; all durable state lives in the user row.
type AuthService struct {
	userRepo       repositories.UserRepository
	auditRepo      repositories.LoginAuditRepository
	roleService    *RoleService
	lockoutService *LockoutService
	cfg            *config.Config
	now            func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	auditRepo repositories.LoginAuditRepository,
	roleService *RoleService,
	lockoutService *LockoutService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		roleService:    roleService,
		lockoutService: lockoutService,
		cfg:            cfg,
		now:            time.Now,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
}

// Validate runs validation rules
func (i LoginInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Username, validation.Required),
		validation.Field(&i.Password, validation.Required),
	)
}

// LoginResult represents a successful login
type LoginResult struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	TokenType    string               `json:"tokenType"`
	ExpiresIn    int                  `json:"expiresIn"`
	User         *models.UserResponse `json:"user"`
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Department  string `json:"department"`
	Position    string `json:"position"`
	PhoneNumber string `json:"phoneNumber"`
	RoleName    string `json:"roleName"`
}

// Validate runs validation rules
func (i RegisterInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&i.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&i.Password, validation.Required, validation.Length(password.MinLength, 100)),
		validation.Field(&i.FullName, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.Department, validation.Length(0, 100)),
		validation.Field(&i.Position, validation.Length(0, 100)),
		validation.Field(&i.PhoneNumber, validation.Length(0, 30)),
	)
}

// RegisterResult represents a successful registration
type RegisterResult struct {
	UserID          uint   `json:"userId"`
	Username        string `json:"username"`
	RoleName        string `json:"roleName"`
	RoleDisplayName string `json:"roleDisplayName"`
	IsActive        bool   `json:"isActive"`
}

// RefreshResult represents a successful token refresh
type RefreshResult struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// MeResult represents the authenticated user's own view
type MeResult struct {
	User        *models.UserResponse `json:"user"`
	Roles       []*models.Role       `json:"roles"`
	PrimaryRole string               `json:"primaryRole"`
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	// 1. Find user by username
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.audit(ctx, input.Username, input.IPAddress, models.AuditOutcomeUnknownUser)
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	// 2. Gate on the account state before touching the password
	switch s.lockoutService.CheckAccess(user) {
	case AccessDeactivated:
		s.audit(ctx, user.Username, input.IPAddress, models.AuditOutcomeDeactivated)
		return nil, domain.ErrAccountDeactivated
	case AccessAttemptsExceeded:
		s.audit(ctx, user.Username, input.IPAddress, models.AuditOutcomeLocked)
		return nil, domain.ErrAttemptsExceeded
	case AccessLocked:
		s.audit(ctx, user.Username, input.IPAddress, models.AuditOutcomeLocked)
		return nil, domain.ErrAccountLocked
	}

	// 3. Verify password
	if !password.Verify(input.Password, user.Password) {
		_, lockedNow, ferr := s.lockoutService.RecordFailure(ctx, user)
		if ferr != nil {
			return nil, ferr
		}
		outcome := models.AuditOutcomeBadCredential
		if lockedNow {
			outcome = models.AuditOutcomeAttemptsExceeded
		}
		s.audit(ctx, user.Username, input.IPAddress, outcome)
		return nil, domain.ErrBadCredential
	}

	// 4. Success: reset the counter and stamp the login
	if err := s.lockoutService.RecordSuccess(ctx, user); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, err
	}

	// 5. Resolve roles and issue tokens
	roles, err := s.roleService.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	accessToken, refreshToken, err := s.issueTokens(user, roleNames(roles))
	if err != nil {
		return nil, err
	}

	s.audit(ctx, user.Username, input.IPAddress, models.AuditOutcomeSuccess)
	log.Printf("✅ User logged in: %s", user.Username)

	user.FailedLoginAttempts = 0
	now := s.now()
	user.LastLoginAt = &now

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    token.AccessTokenSeconds,
		User:         user.ToResponse(),
	}, nil
}

// Register registers a new user
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*RegisterResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// 1. Uniqueness checks
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	// 2. Validate the requested role; public registration only accepts
	// self-assignable catalog entries
	role, err := s.roleService.ValidateRequestedRole(ctx, input.RoleName)
	if err != nil {
		return nil, err
	}
	if !s.roleService.IsSelfAssignable(role.Name) {
		return nil, domain.ErrInvalidRole
	}

	// 3. Hash password and build the identity
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    input.Username,
		Email:       input.Email,
		Password:    hashedPassword,
		FullName:    input.FullName,
		Department:  input.Department,
		Position:    input.Position,
		PhoneNumber: input.PhoneNumber,
		IsActive:    s.cfg.Auth.RegisterAutoActivate,
		Roles:       []models.Role{*role},
	}

	// 4. Persist with the role attached
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User registered: %s (role: %s)", user.Username, role.Name)

	return &RegisterResult{
		UserID:          user.ID,
		Username:        user.Username,
		RoleName:        role.Name,
		RoleDisplayName: role.DisplayName,
		IsActive:        user.IsActive,
	}, nil
}

// Refresh reissues an access token from a valid refresh token. The refresh
// token itself is not rotated or invalidated; it stays usable until its own
// expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	// 1. Extract the subject
	subject, err := token.ExtractSubject(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, mapTokenError(err)
	}

	// 2. Look the identity up by subject
	user, err := s.userRepo.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	// 3. Re-evaluate the account gate; a lock applied after issuance must
	// block the refresh
	switch s.lockoutService.CheckAccess(user) {
	case AccessDeactivated:
		return nil, domain.ErrAccountDeactivated
	case AccessAttemptsExceeded:
		return nil, domain.ErrAttemptsExceeded
	case AccessLocked:
		return nil, domain.ErrAccountLocked
	}

	// 4. Full validation against the expected subject
	if !token.Validate(refreshToken, user.Username, s.cfg.JWT.RefreshSecret) {
		return nil, domain.ErrSubjectMismatch
	}

	// 5. Reissue the access token only
	roles, err := s.roleService.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	accessToken, err := token.IssueAccess(
		user.Username, user.FullName, user.Email, user.Department,
		roleNames(roles), s.cfg.JWT.Secret,
	)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Username)

	return &RefreshResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   token.AccessTokenSeconds,
	}, nil
}

// Me returns the authenticated user's profile with resolved roles
func (s *AuthService) Me(ctx context.Context, username string) (*MeResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	roles, err := s.roleService.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	primary, err := s.roleService.PrimaryRole(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &MeResult{
		User:        user.ToResponse(),
		Roles:       roles,
		PrimaryRole: primary.Name,
	}, nil
}

// Logout acknowledges a logout. Bearer tokens cannot be invalidated
// server-side in this design; the client discards them.
func (s *AuthService) Logout(username string) {
	log.Printf("✅ User logged out: %s", username)
}

// issueTokens generates the access/refresh token pair
func (s *AuthService) issueTokens(user *models.User, roles []string) (string, string, error) {
	accessToken, err := token.IssueAccess(
		user.Username, user.FullName, user.Email, user.Department,
		roles, s.cfg.JWT.Secret,
	)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := token.IssueRefresh(
		user.Username, uuid.New().String(),
		s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// audit records a login attempt outcome; failures only log, they never
// block the authentication path
func (s *AuthService) audit(ctx context.Context, username, ip, outcome string) {
	entry := &models.LoginAudit{
		Username:  username,
		IPAddress: ip,
		Outcome:   outcome,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to record login audit for %s: %v", username, err)
	}
}

// roleNames flattens resolved roles to their catalog names, keeping order
func roleNames(roles []*models.Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names
}

// mapTokenError converts token package errors into domain token errors
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, token.ErrSignatureInvalid):
		return domain.ErrTokenSignature
	default:
		return domain.ErrTokenMalformed
	}
}
