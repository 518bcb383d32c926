// Package server assembles the Fiber application from its collaborators.
package server

import (
	"fmt"
	"io"
	"os"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/apierror"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/session"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Dependencies struct {
	Config  *config.Config
	Users   repository.UserRepository
	Mailer  mailer.Gateway
	Metrics *metrics.Metrics
	// AccessLog receives one line per request; nil means stdout.
	AccessLog io.Writer
}

func New(deps Dependencies) (*fiber.App, error) {
	cfg := deps.Config
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	// Services
	hasher, err := services.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency, m)
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}
	store := services.NewCredentialStore(deps.Users, hasher)
	tokens := services.NewTokenService(cfg)
	policy := services.NewPolicy(cfg)
	authService := services.NewAuthService(cfg, store, tokens, policy, m)
	recoveryService := services.NewRecoveryService(cfg, store, deps.Mailer, m)
	userAdminService := services.NewUserAdminService(cfg, store, policy, m)

	guard := session.NewGuard(tokens, session.NewCookieTransport(cfg), store, policy, m)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, recoveryService, guard, cfg.RecoveryRevealUnknown)
	userHandler := handlers.NewUserHandler(userAdminService, policy)
	healthHandler := handlers.NewHealthHandler(store)

	app := fiber.New(fiber.Config{
		BodyLimit:    64 * 1024,
		ErrorHandler: errorHandler,
	})

	if cfg.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
		Output: accessLog,
	}))
	app.Use(m.Middleware())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders(cfg))

	routes.Setup(app, cfg, m, guard, authHandler, userHandler, healthHandler)
	return app, nil
}

// errorHandler renders anything a handler returned without responding
// itself, including Fiber's own 404 and 405 errors.
func errorHandler(c *fiber.Ctx, err error) error {
	return apierror.Respond(c, err)
}
