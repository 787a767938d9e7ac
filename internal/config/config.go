// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/notifier and cmd/notifyctl.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Store backends
// --------------------------------------------------------------------------

const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// --------------------------------------------------------------------------
// Config struct: populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Document store
	StoreBackend   string
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Firebase
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	FCMSendRate             float64 // sends per second, 0 = unlimited

	// Notification engine
	Timezone              string
	ReminderInterval      time.Duration
	SignalCleanupInterval time.Duration
	SignalMaxAge          time.Duration
	ListenerWorkers       int

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    slog.Level

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Admin API auth (HS256)
	AdminJWTSecret string

	// Name cache
	CacheEnabled bool
	NameCacheTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend:   strings.ToLower(envOr("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  envMinutes("DB_POOL_MAX_LIFE_MINUTES", 30),

		FirebaseProjectID:       envOr("FIREBASE_PROJECT_ID", envOr("GOOGLE_CLOUD_PROJECT", "")),
		FirebaseCredentialsFile: envOr("FIREBASE_CREDENTIALS_FILE", ""),
		FCMSendRate:             envFloat("FCM_SEND_RATE", 0),

		Timezone:              envOr("NOTIFY_TIMEZONE", "UTC"),
		ReminderInterval:      envMinutes("REMINDER_INTERVAL_MINUTES", 60),
		SignalCleanupInterval: envMinutes("SIGNAL_CLEANUP_INTERVAL_MINUTES", 30),
		SignalMaxAge:          envMinutes("SIGNAL_MAX_AGE_MINUTES", 60),
		ListenerWorkers:       envInt("LISTENER_WORKERS", 16),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8080)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envLevel("LOG_LEVEL", slog.LevelInfo),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		AdminJWTSecret: envOr("ADMIN_JWT_SECRET", ""),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		NameCacheTTL: envMinutes("NAME_CACHE_TTL_MINUTES", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend-specific requirements and value ranges.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when STORE_BACKEND=%s", BackendPostgres)
		}
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID must be set when STORE_BACKEND=%s", BackendFirestore)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.StoreBackend, BackendPostgres, BackendFirestore)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid NOTIFY_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL_MINUTES must be positive")
	}
	if c.ListenerWorkers < 1 {
		return fmt.Errorf("LISTENER_WORKERS must be at least 1")
	}
	if c.IsProduction() && c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET must be set in production")
	}
	return nil
}

// Location returns the rendering time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// FCMEnabled reports whether push delivery has credentials to work with.
func (c *Config) FCMEnabled() bool {
	return c.FirebaseCredentialsFile != ""
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envMinutes(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Minute
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
