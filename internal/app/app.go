// Package app wires configuration into a running notification engine:
// store backend, Firebase clients, name cache and delivery adapter. Shared
// by cmd/notifier and cmd/notifyctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"

	"github.com/drivemate/notify/internal/cache"
	"github.com/drivemate/notify/internal/config"
	"github.com/drivemate/notify/internal/db"
	"github.com/drivemate/notify/internal/firebaseapp"
	"github.com/drivemate/notify/internal/notifications"
	"github.com/drivemate/notify/internal/store"
	fsstore "github.com/drivemate/notify/internal/store/firestore"
	pgstore "github.com/drivemate/notify/internal/store/postgres"
)

// App holds the process-scoped clients. Close releases them.
type App struct {
	Config    *config.Config
	Store     store.Store
	Engine    *notifications.Engine
	Names     *cache.Cache
	Pool      *db.Pool          // postgres backend only
	Firestore *firestore.Client // firestore backend only

	closers []func()
}

// New opens the configured store and builds the engine.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg}

	var fb *firebase.App
	if cfg.FCMEnabled() || cfg.StoreBackend == config.BackendFirestore {
		var err error
		fb, err = firebaseapp.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.StoreBackend {
	case config.BackendFirestore:
		client, err := firebaseapp.Firestore(ctx, fb)
		if err != nil {
			return nil, err
		}
		a.Firestore = client
		a.Store = fsstore.New(client, logger)
		a.closers = append(a.closers, func() { client.Close() })
		logger.Info("Firestore connected", "project", cfg.FirebaseProjectID)
	default:
		logger.Info("Connecting to database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.Pool = pool
		a.Store = pgstore.New(pool)
		a.closers = append(a.closers, pool.Close)
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
	}

	var transport notifications.Transport
	if fb != nil {
		client, err := firebaseapp.Messaging(ctx, fb, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		if client != nil {
			transport = client
		}
	}
	if transport == nil {
		logger.Info("Push delivery disabled (no FIREBASE_CREDENTIALS_FILE)")
	}

	a.Names = cache.New(cfg.CacheEnabled, cfg.NameCacheTTL)
	sender := notifications.NewFCMSender(transport, cfg.FCMSendRate, logger)
	a.Engine = notifications.NewEngine(a.Store, sender, notifications.Options{
		Location:  cfg.Location(),
		NameCache: a.Names,
	}, logger)
	return a, nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
