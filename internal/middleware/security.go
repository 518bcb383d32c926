package middleware

import (
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
)

func SecurityHeaders(cfg *config.Config) fiber.Handler {
	hsts := 0
	if cfg.IsProduction() {
		hsts = 31536000
	}
	return helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         hsts,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})
}
