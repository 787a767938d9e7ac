// Command notifier is the DriveMate push notification service.
//
// Usage:
//
//	notifier
//	STORE_BACKEND=firestore FIREBASE_PROJECT_ID=drivemate notifier

// @title DriveMate Notify API
// @version 1.0.0
// @description Push notification engine for the DriveMate driving-school app.
// @BasePath /
// @schemes http https
// @contact.name DriveMate
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/drivemate/notify/internal/api"
	"github.com/drivemate/notify/internal/app"
	"github.com/drivemate/notify/internal/config"
	"github.com/drivemate/notify/internal/listener"
	"github.com/drivemate/notify/internal/maintenance"
	"github.com/drivemate/notify/internal/worker"

	_ "github.com/drivemate/notify/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Store, Firebase clients and engine
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	logger.Info("Engine ready",
		"backend", cfg.StoreBackend,
		"timezone", cfg.Timezone,
		"fcm_enabled", cfg.FCMEnabled(),
		"name_cache", cfg.CacheEnabled)

	// Worker pool for change events
	pool, err := worker.New("events", cfg.ListenerWorkers, logger)
	if err != nil {
		logger.Error("Failed to create worker pool", "error", err)
		os.Exit(1)
	}
	defer pool.Shutdown()
	dispatch := listener.NewDispatcher(a.Engine, pool, logger)

	// Change feed
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		go listener.NewFirestore(a.Firestore, dispatch, logger).Start(ctx)
	default:
		go listener.NewPostgres(cfg.DatabaseURL, dispatch, logger).Start(ctx)
	}

	// Maintenance tickers (reminders, cleanup)
	go maintenance.Start(ctx, &maintenance.Tasks{
		Sweeper: a.Engine,
		Store:   a.Store,
		Names:   a.Names,
		Logger:  logger,
	}, maintenance.Config{
		ReminderInterval: cfg.ReminderInterval,
		CleanupInterval:  cfg.SignalCleanupInterval,
		SignalMaxAge:     cfg.SignalMaxAge,
	})

	// Create router
	router := api.NewRouter(api.Deps{
		Engine:  a.Engine,
		Store:   a.Store,
		Names:   a.Names,
		Workers: pool,
		Logger:  logger,
	}, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting DriveMate notifier",
			"addr", addr,
			"environment", cfg.Environment,
			"admin_auth", cfg.AdminJWTSecret != "",
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
