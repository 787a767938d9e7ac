package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PostgresDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/drivemate")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.Equal(t, 16, cfg.ListenerWorkers)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.FCMEnabled())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_RequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_FirestoreNeedsProject(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("FIREBASE_PROJECT_ID", "drivemate-test")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendFirestore, cfg.StoreBackend)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/drivemate")
	t.Setenv("NOTIFY_TIMEZONE", "Europe/London")
	t.Setenv("REMINDER_INTERVAL_MINUTES", "30")
	t.Setenv("FCM_SEND_RATE", "25.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", cfg.Location().String())
	assert.Equal(t, 30*time.Minute, cfg.ReminderInterval)
	assert.InDelta(t, 25.5, cfg.FCMSendRate, 0.001)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreBackend:     BackendPostgres,
			DatabaseURL:      "postgres://x",
			Timezone:         "UTC",
			ReminderInterval: time.Hour,
			ListenerWorkers:  1,
		}
	}

	cases := map[string]func(c *Config){
		"unknown backend": func(c *Config) { c.StoreBackend = "mongo" },
		"bad timezone":    func(c *Config) { c.Timezone = "Mars/Olympus" },
		"zero interval":   func(c *Config) { c.ReminderInterval = 0 },
		"no workers":      func(c *Config) { c.ListenerWorkers = 0 },
		"prod no secret":  func(c *Config) { c.Environment = "production" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, base().Validate())
}
