package handlers

import (
	"knowhub-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Root handles the root endpoint
// GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 KnowHub Portal API v1.0 is running",
		"mode":    config.AppConfig.AppMode,
	})
}

// HealthCheck handles health check
// GET /health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	status := fiber.StatusOK
	if err := config.HealthCheck(); err != nil {
		dbStatus = "unhealthy"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
