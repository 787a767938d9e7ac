package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/drivemate/notify/internal/cache"
	"github.com/drivemate/notify/internal/notifications"
	"github.com/drivemate/notify/internal/store"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type stubSweeper struct {
	at  []time.Time
	err error
}

func (s *stubSweeper) SweepReminders(_ context.Context, now time.Time) (notifications.SweepResult, error) {
	s.at = append(s.at, now)
	return notifications.SweepResult{RunID: "run-1", Sent: 2}, s.err
}

// stubStore implements store.Store; only the purge is exercised.
type stubStore struct {
	store.Store
	cutoffs []time.Time
	purged  int64
	err     error
}

func (s *stubStore) PurgeInstructorNotifications(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.purged, s.err
}

func newTasks(sw Sweeper, st store.Store, names *cache.Cache) *Tasks {
	return &Tasks{
		Sweeper: sw,
		Store:   st,
		Names:   names,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     func() time.Time { return fixedNow },
	}
}

func TestSweepReminders_UsesClock(t *testing.T) {
	sw := &stubSweeper{}
	newTasks(sw, &stubStore{}, nil).sweepReminders(context.Background())
	assert.Equal(t, []time.Time{fixedNow}, sw.at)

	sw.err = errors.New("query failed")
	newTasks(sw, &stubStore{}, nil).sweepReminders(context.Background())
	assert.Len(t, sw.at, 2)
}

func TestCleanup_PurgesStaleSignals(t *testing.T) {
	st := &stubStore{purged: 3}
	newTasks(&stubSweeper{}, st, cache.New(true, time.Minute)).cleanup(context.Background(), time.Hour)
	assert.Equal(t, []time.Time{fixedNow.Add(-time.Hour)}, st.cutoffs)
}

func TestCleanup_ZeroMaxAgeSkipsPurge(t *testing.T) {
	st := &stubStore{}
	newTasks(&stubSweeper{}, st, nil).cleanup(context.Background(), 0)
	assert.Empty(t, st.cutoffs)
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, newTasks(&stubSweeper{}, &stubStore{}, nil), Config{ReminderInterval: time.Hour})
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestNextBoundary(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)},
		{time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC), time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)},
		{time.Date(2026, 10, 19, 23, 59, 59, 0, time.UTC), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextBoundary(tt.now, time.Hour), tt.now.String())
	}
}

func TestRunAligned_FirstRunAtBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 50ms before a boundary: the first run comes well before a full interval.
	every := time.Second
	now := time.Now()
	now = nextBoundary(now, every).Add(-50 * time.Millisecond)

	ran := make(chan time.Time, 1)
	start := time.Now()
	go runAligned(ctx, now, every, "test", func() {
		select {
		case ran <- time.Now():
		default:
		}
	})

	select {
	case at := <-ran:
		assert.Less(t, at.Sub(start), every/2)
	case <-time.After(2 * time.Second):
		t.Fatal("aligned task never ran")
	}
}

func TestRunLoop_RunsPerTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan time.Time)
	ran := make(chan struct{}, 2)
	go runLoop(ctx, ch, "test", func() { ran <- struct{}{} })

	ch <- fixedNow
	ch <- fixedNow
	<-ran
	<-ran
}
