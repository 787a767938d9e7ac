// Package maintenance runs periodic background tasks as Go tickers: the
// hourly lesson-reminder sweep and stale-signal cleanup.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/drivemate/notify/internal/cache"
	"github.com/drivemate/notify/internal/notifications"
	"github.com/drivemate/notify/internal/store"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	ReminderInterval time.Duration // Lesson reminder sweep
	CleanupInterval  time.Duration // Stale instructor signals + expired cache entries
	SignalMaxAge     time.Duration // Age after which an unconsumed signal is purged
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		ReminderInterval: 1 * time.Hour,
		CleanupInterval:  30 * time.Minute,
		SignalMaxAge:     1 * time.Hour,
	}
}

// Sweeper runs one reminder sweep.
type Sweeper interface {
	SweepReminders(ctx context.Context, now time.Time) (notifications.SweepResult, error)
}

// Tasks holds the dependencies of every maintenance task.
type Tasks struct {
	Sweeper Sweeper
	Store   store.Store
	Names   *cache.Cache
	Logger  *slog.Logger
	now     func() time.Time
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, tasks *Tasks, cfg Config) {
	logger := tasks.Logger
	logger.Info("Maintenance tickers started",
		"reminders", cfg.ReminderInterval,
		"cleanup", cfg.CleanupInterval,
		"signal_max_age", cfg.SignalMaxAge)

	tickers := make([]*time.Ticker, 0, 1)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Reminders: one sweep per interval boundary, never overlapping. Aligning
	// to the clock keeps restarts from stretching the gap between sweeps.
	if cfg.ReminderInterval > 0 {
		go runAligned(ctx, tasks.clock(), cfg.ReminderInterval, "reminders", func() { tasks.sweepReminders(ctx) })
	}

	// Cleanup: purge signals nobody consumed and expired cache entries
	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "cleanup", func() { tasks.cleanup(ctx, cfg.SignalMaxAge) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

// nextBoundary returns the first multiple of every strictly after now.
func nextBoundary(now time.Time, every time.Duration) time.Time {
	return now.Truncate(every).Add(every)
}

// runAligned waits for the next interval boundary, runs fn, then keeps
// running it on a ticker.
func runAligned(ctx context.Context, now time.Time, every time.Duration, name string, fn func()) {
	wait := time.NewTimer(nextBoundary(now, every).Sub(now))
	defer wait.Stop()
	select {
	case <-wait.C:
	case <-ctx.Done():
		return
	}
	fn()

	t := time.NewTicker(every)
	defer t.Stop()
	runLoop(ctx, t.C, name, fn)
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
