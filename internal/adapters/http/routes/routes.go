package routes

import (
	"knowhub-backend/internal/adapters/http/handlers"
	"knowhub-backend/internal/adapters/http/middleware"
	"knowhub-backend/internal/adapters/persistence/repositories"
	"knowhub-backend/internal/config"
	"knowhub-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	auditRepo := repositories.NewLoginAuditRepository(db)

	// Initialize services
	roleService := services.NewRoleService(roleRepo)
	lockoutService := services.NewLockoutService(userRepo)
	authService := services.NewAuthService(userRepo, auditRepo, roleService, lockoutService, cfg)
	userService := services.NewUserService(userRepo, roleRepo, roleService, lockoutService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (authenticated users)
	profileRoutes := apiV1.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.Refresh)

	// Logout is a stateless acknowledgment; it works with or without a token
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupUserRoutes configures user management routes (admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id/active", handler.SetActive)
	router.Post("/:id/unlock", handler.Unlock)
	router.Post("/:id/roles", handler.GrantRole)
	router.Delete("/:id/roles/:name", handler.RevokeRole)
}

// setupProfileRoutes configures profile routes (authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}
