package handlers

import (
	"errors"

	"knowhub-backend/internal/adapters/http/middleware"
	"knowhub-backend/internal/core/domain"
	"knowhub-backend/internal/core/services"
	"knowhub-backend/internal/pkg/pagination"
	"knowhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user administration and profile endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers lists users with pagination (admin only)
// GET /users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.userService.ListUsers(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", fiber.Map{
		"users": result.Users,
		"meta":  pagination.GetMeta(params, result.Total),
	})
}

// GetUser gets a single user (admin only)
// GET /users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUser(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{"user": user})
}

// SetActiveRequest represents the active flag request body
type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// SetActive activates or deactivates an account (admin only)
// PUT /users/:id/active
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.userService.SetActive(c.Context(), uint(id), req.IsActive); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", nil)
}

// Unlock clears an account lock (admin only)
// POST /users/:id/unlock
func (h *UserHandler) Unlock(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.Unlock(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to unlock user")
	}

	return response.Success(c, "User unlocked successfully", nil)
}

// GrantRoleRequest represents the grant role request body
type GrantRoleRequest struct {
	RoleName string `json:"roleName"`
}

// GrantRole attaches a catalog role to a user (admin only)
// POST /users/:id/roles
func (h *UserHandler) GrantRole(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req GrantRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.userService.GrantRole(c.Context(), uint(id), req.RoleName); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrInvalidRole):
			return response.BadRequest(c, "Invalid role")
		default:
			return response.InternalServerError(c, "Failed to grant role")
		}
	}

	return response.Success(c, "Role granted successfully", nil)
}

// RevokeRole detaches a role from a user (admin only)
// DELETE /users/:id/roles/:name
func (h *UserHandler) RevokeRole(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid user ID")
	}
	roleName := c.Params("name")

	if err := h.userService.RevokeRole(c.Context(), uint(id), roleName); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrInvalidRole):
			return response.BadRequest(c, "User does not hold that role")
		case errors.Is(err, domain.ErrLastRole):
			return response.BadRequest(c, "Cannot remove the last role from a user")
		default:
			return response.InternalServerError(c, "Failed to revoke role")
		}
	}

	return response.Success(c, "Role revoked successfully", nil)
}

// GetProfile returns the caller's own profile
// GET /profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.GetProfile(c.Context(), identity.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.Unauthorized(c, "Unauthorized")
		}
		return response.InternalServerError(c, "Failed to get profile")
	}

	return response.Success(c, "Profile retrieved successfully", fiber.Map{"user": user})
}

// UpdateProfile updates the caller's own profile
// PUT /profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	input := new(services.UpdateProfileInput)
	if err := c.BodyParser(input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(c.Context(), identity.Username, input)
	if err != nil {
		switch {
		case isValidationError(err):
			return validationError(c, err)
		case errors.Is(err, domain.ErrEmailTaken):
			return response.Conflict(c, "Email already exists")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.Unauthorized(c, "Unauthorized")
		default:
			return response.InternalServerError(c, "Failed to update profile")
		}
	}

	return response.Success(c, "Profile updated successfully", fiber.Map{"user": user})
}

// ChangePassword changes the caller's own password
// PUT /profile/password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	input := new(services.ChangePasswordInput)
	if err := c.BodyParser(input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.userService.ChangePassword(c.Context(), identity.Username, input); err != nil {
		switch {
		case isValidationError(err):
			return validationError(c, err)
		case errors.Is(err, domain.ErrOldPasswordWrong):
			return response.BadRequest(c, "Old password is incorrect")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.Unauthorized(c, "Unauthorized")
		default:
			return response.InternalServerError(c, "Failed to change password")
		}
	}

	return response.Success(c, "Password changed successfully", nil)
}
