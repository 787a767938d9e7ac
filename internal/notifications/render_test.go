package notifications

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/drivemate/notify/internal/model"
)

var monday = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func TestRenderer_FormatDateTime(t *testing.T) {
	r := Renderer{}
	at := time.Date(2026, 10, 20, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "Tuesday 20 October", r.FormatDate(at))
	assert.Equal(t, "09:05", r.FormatTime(at))

	plusOne := Renderer{Location: time.FixedZone("BST", 3600)}
	late := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "Tuesday 20 October", plusOne.FormatDate(late))
	assert.Equal(t, "00:30", plusOne.FormatTime(late))
}

func TestRenderer_LessonCreated(t *testing.T) {
	msg := Renderer{}.LessonCreated(model.Lesson{ID: "l-1", StartAt: time.Date(2026, 10, 21, 14, 0, 0, 0, time.UTC)})
	assert.Equal(t, "New Lesson Scheduled", msg.Title)
	assert.Equal(t, "You have a new lesson on Wednesday 21 October at 14:00", msg.Body)
	assert.Equal(t, map[string]any{"type": TypeLessonCreated, "lessonId": "l-1"}, msg.Data)
}

func TestRenderer_CancellationRequested(t *testing.T) {
	r := Renderer{}
	req := model.CancellationRequest{ID: "r-1", StudentID: "s-1", LessonStartAt: time.Date(2026, 10, 22, 8, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Sam requested to cancel a lesson on Thursday 22 October", r.CancellationRequested(req, "Sam").Body)

	req.LessonStartAt = time.Time{}
	assert.Equal(t, "Sam requested to cancel a lesson", r.CancellationRequested(req, "Sam").Body)
}

func TestRenderer_CancellationResolved(t *testing.T) {
	r := Renderer{}
	approved := r.CancellationResolved(model.CancellationRequest{ID: "r-1", Status: model.RequestApproved})
	assert.Equal(t, "Cancellation Approved", approved.Title)
	assert.Equal(t, "Your lesson cancellation has been approved", approved.Body)
	assert.Equal(t, model.RequestApproved, approved.Data["status"])

	for _, status := range []string{model.RequestDeclined, "rejected", ""} {
		msg := r.CancellationResolved(model.CancellationRequest{Status: status})
		assert.Equal(t, "Cancellation Declined", msg.Title, status)
		assert.Equal(t, "Your lesson cancellation request was declined", msg.Body, status)
	}
}

func TestRenderer_InstructorPresence(t *testing.T) {
	r := Renderer{}
	n := model.InstructorNotification{LessonID: "l-1", InstructorID: "u-inst", NotificationType: model.SignalOnWay}

	msg, ok := r.InstructorPresence(n, "Jordan")
	assert.True(t, ok)
	assert.Equal(t, "Instructor On Way", msg.Title)
	assert.Equal(t, "Jordan is on their way to you", msg.Body)

	n.NotificationType = model.SignalArrived
	msg, ok = r.InstructorPresence(n, "Jordan")
	assert.True(t, ok)
	assert.Equal(t, "Instructor Arrived", msg.Title)
	assert.Equal(t, "Jordan has arrived", msg.Body)

	n.NotificationType = "snoozed"
	_, ok = r.InstructorPresence(n, "Jordan")
	assert.False(t, ok)
}

func TestRenderer_Announcement(t *testing.T) {
	msg := Renderer{}.Announcement(model.Announcement{ID: "a-1", SchoolID: "school-1", Body: "Closed Friday"})
	assert.Equal(t, "New Announcement", msg.Title)
	assert.Equal(t, "Closed Friday", msg.Body)
	assert.Equal(t, "school-1", msg.Data["schoolId"])
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  int // rune length of output
	}{
		{"chat at limit", strings.Repeat("a", 100), chatPreviewLimit, 100},
		{"chat over limit", strings.Repeat("a", 101), chatPreviewLimit, 103},
		{"announcement at limit", strings.Repeat("b", 150), announcementPreviewLimit, 150},
		{"announcement over limit", strings.Repeat("b", 151), announcementPreviewLimit, 153},
		{"multibyte", strings.Repeat("é", 101), chatPreviewLimit, 103},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.limit)
			assert.Equal(t, tt.want, len([]rune(got)))
			if len([]rune(tt.in)) > tt.limit {
				assert.True(t, strings.HasSuffix(got, ellipsis))
				assert.Equal(t, string([]rune(tt.in)[:tt.limit]), strings.TrimSuffix(got, ellipsis))
			} else {
				assert.Equal(t, tt.in, got)
			}
		})
	}
}

func TestRenderer_LessonReminder(t *testing.T) {
	r := Renderer{}
	tests := []struct {
		name  string
		now   time.Time
		start time.Time
		want  string
	}{
		{"soon", monday, monday.Add(90 * time.Minute), "Your lesson is starting soon at 11:30"},
		{"later today", monday, monday.Add(8 * time.Hour), "Don't forget your lesson today at 18:00"},
		{"early tomorrow", monday.Add(12 * time.Hour), time.Date(2026, 10, 20, 7, 0, 0, 0, time.UTC), "Don't forget your lesson tomorrow at 07:00"},
		{"today far", monday.Add(-time.Hour), monday.Add(12 * time.Hour), "Reminder: You have a lesson today at 22:00"},
		{"next day far", monday, time.Date(2026, 10, 20, 6, 0, 0, 0, time.UTC), "Reminder: You have a lesson Tuesday at 06:00"},
		{"same weekday next week", monday, monday.Add(7 * 24 * time.Hour), "Reminder: You have a lesson Monday at 10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := r.LessonReminder(model.Lesson{ID: "l-1", StartAt: tt.start}, tt.now)
			assert.Equal(t, "Lesson Reminder", msg.Title)
			assert.Equal(t, tt.want, msg.Body)
			assert.Equal(t, TypeLessonReminder, msg.Data["type"])
		})
	}
}
