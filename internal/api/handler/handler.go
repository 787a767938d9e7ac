// Package handler provides HTTP handlers for health, event ingress and the
// admin operations of the notification engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/drivemate/notify/internal/api/respond"
	"github.com/drivemate/notify/internal/cache"
	"github.com/drivemate/notify/internal/config"
	"github.com/drivemate/notify/internal/notifications"
)

// Engine is the slice of *notifications.Engine the API drives.
type Engine interface {
	Route(ctx context.Context, ev notifications.Event) (int, error)
	SweepReminders(ctx context.Context, now time.Time) (notifications.SweepResult, error)
	Deliver(ctx context.Context, p notifications.Push) bool
}

// Pinger checks document-store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter reports worker pool occupancy.
type StatsReporter interface {
	Stats() map[string]int
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	engine  Engine
	store   Pinger
	names   *cache.Cache
	workers StatsReporter
	cfg     *config.Config
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Handler with shared dependencies. workers may be nil.
func New(engine Engine, st Pinger, names *cache.Cache, workers StatsReporter, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		store:   st,
		names:   names,
		workers: workers,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns service name, version, status and the active store backend.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":          "DriveMate Notify",
		"version":       "1.0.0",
		"status":        "running",
		"docs":          "/docs",
		"store_backend": h.cfg.StoreBackend,
		"fcm_enabled":   h.cfg.FCMEnabled(),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status, worker pool occupancy and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if h.workers != nil {
		body["workers"] = h.workers.Stats()
	}
	respond.WriteJSONObject(w, http.StatusOK, body)
}

// HealthCheckDB verifies document-store connectivity.
// @Summary Store health check
// @Description Verifies connectivity to the configured document store.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("Store health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"backend":   h.cfg.StoreBackend,
			"error":     "Store connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"backend":   h.cfg.StoreBackend,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns display-name cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.names.Stats(),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
