package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivemate/notify/internal/model"
)

func reminderStore() *fakeStore {
	st := baseStore()
	st.users = append(st.users,
		model.User{ID: "u-inst2", Role: model.RoleInstructor, ReminderHoursBefore: 2},
		model.User{ID: "u-s2", Role: model.RoleStudent, StudentID: "s-2", FCMToken: "tok-s2"},
		model.User{ID: "u-s4", Role: model.RoleStudent, StudentID: "s-4", FCMToken: "tok-s4"},
		model.User{ID: "u-s5", Role: model.RoleStudent, StudentID: "s-5"},
	)
	st.lessons = []model.Lesson{
		{ID: "A", StudentID: "s-1", InstructorID: "u-inst", StartAt: monday.Add(24 * time.Hour)},
		{ID: "B", StudentID: "s-1", InstructorID: "u-inst", StartAt: monday.Add(23*time.Hour + 30*time.Minute)},
		{ID: "C", StudentID: "s-2", InstructorID: "u-inst", StartAt: monday.Add(22 * time.Hour)},
		{ID: "D", StudentID: "s-2", InstructorID: "u-missing", StartAt: monday.Add(24 * time.Hour)},
		{ID: "E", StudentID: "s-4", InstructorID: "u-inst2", StartAt: monday.Add(90 * time.Minute)},
		{ID: "F", InstructorID: "u-inst", StartAt: monday.Add(24 * time.Hour)},
		{ID: "G", StudentID: "s-5", InstructorID: "u-inst", StartAt: monday.Add(24 * time.Hour)},
	}
	return st
}

func TestPlanReminders(t *testing.T) {
	st := reminderStore()
	e, _ := newTestEngine(st)

	pushes, res, err := e.PlanReminders(context.Background(), monday)
	require.NoError(t, err)

	assert.Equal(t, [2]time.Time{monday, monday.Add(24 * time.Hour)}, st.lessonRange)
	require.Len(t, pushes, 2)
	assert.Equal(t, "tok-student", pushes[0].Token)
	assert.Equal(t, "A", pushes[0].Data["lessonId"])
	assert.Equal(t, "Reminder: You have a lesson Tuesday at 10:00", pushes[0].Body)
	assert.Equal(t, "tok-s4", pushes[1].Token)
	assert.Equal(t, "Your lesson is starting soon at 11:30", pushes[1].Body)

	assert.Equal(t, 7, res.Candidates)
	assert.Equal(t, 2, res.Planned)
	assert.Equal(t, 5, res.Skipped)
	assert.NotEmpty(t, res.RunID)
}

func TestPlanReminders_OneReminderPerStudent(t *testing.T) {
	st := baseStore()
	for i := 0; i < 5; i++ {
		st.lessons = append(st.lessons, model.Lesson{
			ID: "L", StudentID: "s-1", InstructorID: "u-inst",
			StartAt: monday.Add(23*time.Hour + time.Duration(i)*10*time.Minute),
		})
	}
	e, _ := newTestEngine(st)

	pushes, _, err := e.PlanReminders(context.Background(), monday)
	require.NoError(t, err)
	assert.Len(t, pushes, 1)
}

func TestPlanReminders_Window(t *testing.T) {
	tests := []struct {
		name  string
		until time.Duration
		want  int
	}{
		{"at lead time", 24 * time.Hour, 1},
		{"one hour inside", 23 * time.Hour, 1},
		{"beyond lead", 25 * time.Hour, 0},
		{"past window", 22 * time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := baseStore()
			st.lessons = []model.Lesson{{ID: "L", StudentID: "s-1", InstructorID: "u-inst", StartAt: monday.Add(tt.until)}}
			e, _ := newTestEngine(st)

			pushes, _, err := e.PlanReminders(context.Background(), monday)
			require.NoError(t, err)
			assert.Len(t, pushes, tt.want)
		})
	}
}

func TestSweepReminders(t *testing.T) {
	st := reminderStore()
	e, tr := newTestEngine(st)
	tr.fail["tok-s4"] = true

	res, err := e.SweepReminders(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Planned)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, []string{"tok-student"}, tr.tokens())
	assert.Contains(t, res.Summary(), "sent=1")
}

func TestSweepReminders_QueryError(t *testing.T) {
	st := baseStore()
	st.err = errors.New("timeout")
	e, tr := newTestEngine(st)

	_, err := e.SweepReminders(context.Background(), monday)
	assert.Error(t, err)
	assert.Empty(t, tr.sent)
}
