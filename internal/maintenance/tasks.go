package maintenance

import (
	"context"
	"time"
)

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

func (t *Tasks) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// sweepReminders runs one reminder sweep at the current time.
func (t *Tasks) sweepReminders(ctx context.Context) {
	res, err := t.Sweeper.SweepReminders(ctx, t.clock())
	if err != nil {
		t.Logger.Warn("Reminder sweep: failed", "error", err)
		return
	}
	t.Logger.Info("Reminder sweep: complete", "run_id", res.RunID, "sent", res.Sent, "candidates", res.Candidates)
}

// cleanup removes instructor signals older than maxAge. They are normally
// deleted as soon as they are handled; leftovers were written while no
// listener was running and are too old to be worth delivering.
func (t *Tasks) cleanup(ctx context.Context, maxAge time.Duration) {
	if maxAge > 0 {
		n, err := t.Store.PurgeInstructorNotifications(ctx, t.clock().Add(-maxAge))
		if err != nil {
			t.Logger.Warn("Cleanup: failed to purge stale signals", "error", err)
		} else if n > 0 {
			t.Logger.Info("Cleanup: purged stale signals", "count", n)
		}
	}

	if n := t.Names.Evict(); n > 0 {
		t.Logger.Debug("Cleanup: evicted cached names", "count", n)
	}
}
