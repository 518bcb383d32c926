package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/server"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	level := logging.ParseLevel(cfg.LogLevel)
	stdout := logging.Setup(level)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// User storage
	var (
		users       repository.UserRepository
		db          *gorm.DB
		pgLog       *logging.PGHandler
		cleanupDone = make(chan struct{})
	)
	switch cfg.DBDriver {
	case "postgres":
		var err error
		db, err = database.Connect(cfg)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}

		// PostgreSQL log handler (WARN+ async batch)
		pgLog = logging.NewPGHandler(db)
		slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLog)))

		// Log cleanup (30-day retention)
		logging.StartCleanup(db, cleanupDone)

		users = repository.NewGormUserRepository(db)
	default:
		slog.Warn("using in-memory user storage, accounts are lost on restart")
		users = repository.NewMemoryUserRepository()
	}

	mail, err := mailer.New(cfg)
	if err != nil {
		slog.Error("mailer setup failed", "error", err)
		os.Exit(1)
	}

	app, err := server.New(server.Dependencies{
		Config:  cfg,
		Users:   users,
		Mailer:  mail,
		Metrics: metrics.New(),
	})
	if err != nil {
		slog.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "db_driver", cfg.DBDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if pgLog != nil {
		pgLog.Stop()
	}
	sentry.Flush(2 * time.Second)

	if db != nil {
		if err := database.Close(db); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
