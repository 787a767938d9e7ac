// Package api assembles the HTTP surface: health, metrics, docs and the
// authenticated /api/v1 admin and event-ingress routes.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/drivemate/notify/internal/api/handler"
	"github.com/drivemate/notify/internal/cache"
	"github.com/drivemate/notify/internal/config"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Engine  handler.Engine
	Store   handler.Pinger
	Names   *cache.Cache
	Workers handler.StatsReporter
	Logger  *slog.Logger
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Request-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(deps.Engine, deps.Store, deps.Names, deps.Workers, cfg, deps.Logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AdminJWTSecret != "" {
			r.Use(AdminAuth(cfg.AdminJWTSecret))
		}

		// Event ingress
		r.Post("/events", h.IngestEvent)

		// Admin
		r.Post("/reminders/sweep", h.SweepReminders)
		r.Post("/push/test", h.SendTestPush)
	})

	return r
}
