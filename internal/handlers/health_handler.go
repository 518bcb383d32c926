package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	store *services.CredentialStore
}

func NewHealthHandler(store *services.CredentialStore) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, dbStatus := "ok", "ok"
	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check: database unreachable", "error", err.Error())
		status, dbStatus = "degraded", "unhealthy"
		c.Status(fiber.StatusServiceUnavailable)
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
