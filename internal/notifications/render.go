package notifications

import (
	"fmt"
	"time"

	"github.com/drivemate/notify/internal/model"
)

// Layouts for the app's single locale: "Tuesday 20 October", "09:30".
const (
	dateLayout    = "Monday 2 January"
	timeLayout    = "15:04"
	weekdayLayout = "Monday"
)

// Rendered is a message before it is bound to a device token.
type Rendered struct {
	Title string
	Body  string
	Data  map[string]any
}

// To binds a rendered message to a token.
func (r Rendered) To(token string) Push {
	return Push{Token: token, Title: r.Title, Body: r.Body, Data: r.Data}
}

// Renderer formats every notification. Pure: output depends only on inputs
// and the configured location.
type Renderer struct {
	Location *time.Location
}

func (r Renderer) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// FormatDate renders a long weekday, numeric day and long month.
func (r Renderer) FormatDate(t time.Time) string {
	return t.In(r.loc()).Format(dateLayout)
}

// FormatTime renders a zero-padded 24-hour clock.
func (r Renderer) FormatTime(t time.Time) string {
	return t.In(r.loc()).Format(timeLayout)
}

// sameDay compares calendar dates in the rendering location.
func (r Renderer) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(r.loc()).Date()
	by, bm, bd := b.In(r.loc()).Date()
	return ay == by && am == bm && ad == bd
}

func (r Renderer) LessonCreated(l model.Lesson) Rendered {
	return Rendered{
		Title: "New Lesson Scheduled",
		Body:  fmt.Sprintf("You have a new lesson on %s at %s", r.FormatDate(l.StartAt), r.FormatTime(l.StartAt)),
		Data: map[string]any{
			"type":     TypeLessonCreated,
			"lessonId": l.ID,
		},
	}
}

func (r Renderer) ReflectionAdded(l model.Lesson, studentName string) Rendered {
	return Rendered{
		Title: "New Lesson Reflection",
		Body:  fmt.Sprintf("%s added a reflection for their lesson", studentName),
		Data: map[string]any{
			"type":      TypeReflectionAdded,
			"lessonId":  l.ID,
			"studentId": l.StudentID,
		},
	}
}

// CancellationRequested omits the date clause when the lesson time is unknown.
func (r Renderer) CancellationRequested(req model.CancellationRequest, studentName string) Rendered {
	when := ""
	if !req.LessonStartAt.IsZero() {
		when = " on " + r.FormatDate(req.LessonStartAt)
	}
	return Rendered{
		Title: "Cancellation Request",
		Body:  fmt.Sprintf("%s requested to cancel a lesson%s", studentName, when),
		Data: map[string]any{
			"type":      TypeCancellationRequest,
			"requestId": req.ID,
			"studentId": req.StudentID,
		},
	}
}

// CancellationResolved treats anything other than approved as declined.
func (r Renderer) CancellationResolved(req model.CancellationRequest) Rendered {
	title, body := "Cancellation Declined", "Your lesson cancellation request was declined"
	if req.Status == model.RequestApproved {
		title, body = "Cancellation Approved", "Your lesson cancellation has been approved"
	}
	return Rendered{
		Title: title,
		Body:  body,
		Data: map[string]any{
			"type":      TypeCancellationResponse,
			"requestId": req.ID,
			"status":    req.Status,
		},
	}
}

// InstructorPresence returns ok=false for an unknown notification type.
func (r Renderer) InstructorPresence(n model.InstructorNotification, instructorName string) (Rendered, bool) {
	var title, body string
	switch n.NotificationType {
	case model.SignalOnWay:
		title = "Instructor On Way"
		body = fmt.Sprintf("%s is on their way to you", instructorName)
	case model.SignalArrived:
		title = "Instructor Arrived"
		body = fmt.Sprintf("%s has arrived", instructorName)
	default:
		return Rendered{}, false
	}
	return Rendered{
		Title: title,
		Body:  body,
		Data: map[string]any{
			"type":             TypeInstructorNotification,
			"notificationType": n.NotificationType,
			"lessonId":         n.LessonID,
			"instructorId":     n.InstructorID,
		},
	}, true
}

func (r Renderer) ChatMessage(m model.Message, senderName string) Rendered {
	return Rendered{
		Title: senderName,
		Body:  Truncate(m.Text, chatPreviewLimit),
		Data: map[string]any{
			"type":           TypeChatMessage,
			"conversationId": m.ConversationID,
			"messageId":      m.ID,
			"senderId":       m.SenderID,
			"senderRole":     m.SenderRole,
		},
	}
}

func (r Renderer) Announcement(a model.Announcement) Rendered {
	title := a.Title
	if title == "" {
		title = "New Announcement"
	}
	return Rendered{
		Title: title,
		Body:  Truncate(a.Body, announcementPreviewLimit),
		Data: map[string]any{
			"type":           TypeAnnouncement,
			"announcementId": a.ID,
			"schoolId":       a.SchoolID,
		},
	}
}

// LessonReminder picks the wording by urgency: under two hours "soon",
// under twelve "today"/"tomorrow", otherwise "today" or the weekday.
func (r Renderer) LessonReminder(l model.Lesson, now time.Time) Rendered {
	hours := l.StartAt.Sub(now).Hours()
	at := r.FormatTime(l.StartAt)
	today := r.sameDay(l.StartAt, now)

	var body string
	switch {
	case hours < soonThresholdHours:
		body = fmt.Sprintf("Your lesson is starting soon at %s", at)
	case hours < sameDayThresholdHours:
		day := "tomorrow"
		if today {
			day = "today"
		}
		body = fmt.Sprintf("Don't forget your lesson %s at %s", day, at)
	default:
		day := l.StartAt.In(r.loc()).Format(weekdayLayout)
		if today {
			day = "today"
		}
		body = fmt.Sprintf("Reminder: You have a lesson %s at %s", day, at)
	}
	return Rendered{
		Title: "Lesson Reminder",
		Body:  body,
		Data: map[string]any{
			"type":     TypeLessonReminder,
			"lessonId": l.ID,
		},
	}
}

// Truncate cuts s to limit characters and appends an ellipsis when it was longer.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}
