package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/drivemate/notify/internal/store"
)

// SweepResult tracks counts from one reminder sweep.
type SweepResult struct {
	RunID      string
	At         time.Time
	Candidates int
	Planned    int
	Sent       int
	Skipped    int
	Duration   time.Duration
}

// Summary returns a human-readable summary of the sweep.
func (r *SweepResult) Summary() string {
	return fmt.Sprintf(
		"run=%s candidates=%d planned=%d sent=%d skipped=%d duration=%s",
		r.RunID, r.Candidates, r.Planned, r.Sent, r.Skipped, r.Duration.Round(time.Millisecond),
	)
}

// PlanReminders selects the lessons due a reminder at now and renders one
// push per student. Candidates are processed in order; a student reminded
// earlier in the run is skipped.
func (e *Engine) PlanReminders(ctx context.Context, now time.Time) ([]Push, SweepResult, error) {
	res := SweepResult{RunID: uuid.NewString(), At: now}

	lessons, err := e.store.ListUpcomingLessons(ctx, now, now.Add(reminderLookahead))
	if err != nil {
		return nil, res, fmt.Errorf("list upcoming lessons: %w", err)
	}
	res.Candidates = len(lessons)

	reminded := make(map[string]struct{})
	var pushes []Push
	for i := range lessons {
		l := &lessons[i]
		if l.StudentID == "" || l.InstructorID == "" || l.StartAt.IsZero() {
			continue
		}
		if _, done := reminded[l.StudentID]; done {
			continue
		}

		instructor, err := e.store.GetUser(ctx, l.InstructorID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				e.logger.Warn("Reminder instructor lookup failed", "instructor_id", l.InstructorID, "error", err)
			}
			continue
		}

		hours := l.StartAt.Sub(now).Hours()
		if !reminderDue(hours, instructor.ReminderLeadHours()) {
			continue
		}

		token, ok := e.dir.TokenByStudentID(ctx, l.StudentID)
		if !ok {
			continue
		}

		pushes = append(pushes, e.render.LessonReminder(*l, now).To(token))
		reminded[l.StudentID] = struct{}{}
	}
	res.Planned = len(pushes)
	res.Skipped = res.Candidates - res.Planned
	return pushes, res, nil
}

// SweepReminders runs one sweep at now and delivers the reminders.
func (e *Engine) SweepReminders(ctx context.Context, now time.Time) (SweepResult, error) {
	start := time.Now()
	e.logger.Info("Running lesson reminders", "at", now.Format(time.RFC3339))

	pushes, res, err := e.PlanReminders(ctx, now)
	if err != nil {
		return res, err
	}
	for _, p := range pushes {
		if e.sender.Deliver(ctx, p) {
			res.Sent++
			remindersSent.Inc()
		}
	}
	res.Duration = time.Since(start)
	sweepDuration.Observe(res.Duration.Seconds())
	e.logger.Info("Lesson reminders complete", "run_id", res.RunID, "summary", res.Summary())
	return res, nil
}
