package handlers

import (
	"errors"
	"strings"

	"knowhub-backend/internal/adapters/http/middleware"
	"knowhub-backend/internal/core/domain"
	"knowhub-backend/internal/core/services"
	"knowhub-backend/internal/pkg/response"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	input := new(services.LoginInput)
	if err := c.BodyParser(input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input.Username = strings.TrimSpace(input.Username)
	input.IPAddress = c.IP()

	if err := input.Validate(); err != nil {
		return validationError(c, err)
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrBadCredential):
			// One message for both; the response must not reveal whether the
			// username exists.
			return response.Unauthorized(c, "Invalid username or password")
		case errors.Is(err, domain.ErrAttemptsExceeded):
			return response.Forbidden(c, "Account locked: too many failed login attempts")
		case errors.Is(err, domain.ErrAccountLocked):
			return response.Forbidden(c, "Account is locked, contact an administrator")
		case errors.Is(err, domain.ErrAccountDeactivated):
			return response.Forbidden(c, "Account is deactivated")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	return response.Success(c, "Login successful", result)
}

// Register handles user registration
// POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	input := new(services.RegisterInput)
	if err := c.BodyParser(input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)

	result, err := h.authService.Register(c.Context(), input)
	if err != nil {
		switch {
		case isValidationError(err):
			return validationError(c, err)
		case errors.Is(err, domain.ErrUsernameTaken), errors.Is(err, domain.ErrEmailTaken):
			return response.Conflict(c, "Username or email already exists")
		case errors.Is(err, domain.ErrInvalidRole):
			return response.BadRequest(c, "Invalid role")
		default:
			return response.InternalServerError(c, "Failed to register user")
		}
	}

	return response.Created(c, "User registered successfully", result)
}

// RefreshRequest represents the refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles access token reissue
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.Unauthorized(c, "Refresh token required")
	}

	result, err := h.authService.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, domain.ErrTokenMalformed),
			errors.Is(err, domain.ErrTokenSignature),
			errors.Is(err, domain.ErrSubjectMismatch),
			errors.Is(err, domain.ErrUserNotFound):
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, domain.ErrAccountLocked):
			return response.Forbidden(c, "Account is locked")
		case errors.Is(err, domain.ErrAccountDeactivated):
			return response.Forbidden(c, "Account is deactivated")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	return response.Success(c, "Token refreshed successfully", result)
}

// Logout acknowledges a logout. Tokens are not server-side invalidated in
// this design; clients discard them.
// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if identity := middleware.IdentityFrom(c); identity != nil {
		h.authService.Logout(identity.Username)
	}
	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current user with resolved roles
// GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	result, err := h.authService.Me(c.Context(), identity.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.Unauthorized(c, "Unauthorized")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	return response.Success(c, "User retrieved successfully", result)
}

// isValidationError reports whether err carries ozzo field errors
func isValidationError(err error) bool {
	var fields validation.Errors
	return errors.As(err, &fields)
}

// validationError maps ozzo field errors to a 400 response
func validationError(c *fiber.Ctx, err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return response.ValidationFailed(c, fields)
	}
	return response.BadRequest(c, err.Error())
}
