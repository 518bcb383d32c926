package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/apierror"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	m *metrics.Metrics,
	guard *session.Guard,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api")

	// General API rate limit per IP
	api.Use(ipLimiter(cfg.APIRateLimitPerMinute))

	api.Get("/health", healthHandler.Check)

	// Auth: stricter per-IP limit on top of the per-email buckets in the services
	auth := api.Group("/auth")
	auth.Get("/me", authHandler.Me)
	auth.Post("/logout", authHandler.Logout)
	auth.Patch("/me", guard.SessionRequired(), authHandler.UpdateMe)
	auth.Post("/bootstrap", guard.SessionRequired(), authHandler.Bootstrap)

	authLimit := ipLimiter(cfg.AuthRateLimitPerMinute)
	auth.Post("/register", authLimit, authHandler.Register)
	auth.Post("/login", authLimit, authHandler.Login)
	auth.Post("/recover", authLimit, authHandler.Recover)

	// Managed users (session + live admin check)
	admin := api.Group("/admin", guard.SessionRequired(), guard.AdminRequired())
	admin.Get("/users", userHandler.List)
	admin.Post("/users", userHandler.Create)
	admin.Get("/users/:id", userHandler.Get)
	admin.Patch("/users/:id", userHandler.Update)
	admin.Delete("/users/:id", userHandler.Delete)
}

func ipLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:               perMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return apierror.Message(c, fiber.StatusTooManyRequests, apierror.KindRateLimited, "Too many requests, please slow down")
		},
	})
}
