package middleware

import (
	"strings"

	"knowhub-backend/internal/config"
	"knowhub-backend/internal/core/domain"
	"knowhub-backend/internal/pkg/response"
	"knowhub-backend/internal/pkg/token"

	"github.com/gofiber/fiber/v2"
)

// identityKey is the fiber locals key carrying the AuthenticatedIdentity
const identityKey = "identity"

// AuthenticatedIdentity is the verified caller identity, passed explicitly
// through the request context instead of any ambient security context.
type AuthenticatedIdentity struct {
	Username   string
	FullName   string
	Email      string
	Department string
	Roles      []string
}

// HasRole reports whether the identity holds the given role name
func (a *AuthenticatedIdentity) HasRole(name string) bool {
	for _, role := range a.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// IdentityFrom returns the AuthenticatedIdentity set by AuthMiddleware,
// or nil when the request is unauthenticated.
func IdentityFrom(c *fiber.Ctx) *AuthenticatedIdentity {
	identity, _ := c.Locals(identityKey).(*AuthenticatedIdentity)
	return identity
}

// AuthMiddleware creates authentication middleware. It validates the bearer
// access token and stores the verified identity in the request locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := token.ParseAccess(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == token.ErrExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(identityKey, &AuthenticatedIdentity{
			Username:   claims.Subject,
			FullName:   claims.FullName,
			Email:      claims.Email,
			Department: claims.Department,
			Roles:      claims.Roles,
		})

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := IdentityFrom(c)
		if identity == nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if identity.HasRole(allowed) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only administrator roles
func AdminOnly() fiber.Handler {
	return RoleMiddleware(string(domain.RoleSuperAdmin), string(domain.RoleAdmin))
}

// bearerToken extracts the access token from the Authorization header
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
