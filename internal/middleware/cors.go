package middleware

import (
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows credentials because the session travels in a cookie. Fiber
// refuses a wildcard origin together with credentials, so CORS_ORIGINS must
// list explicit origins.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:     "GET, POST, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	})
}
