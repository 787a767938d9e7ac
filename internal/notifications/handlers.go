package notifications

import (
	"context"
	"errors"

	"github.com/drivemate/notify/internal/model"
	"github.com/drivemate/notify/internal/store"
)

// Plan methods resolve recipients and render, without delivering. On
// methods plan, deliver and return how many pushes the transport accepted.

// --------------------------------------------------------------------------
// Lessons
// --------------------------------------------------------------------------

// PlanLessonCreated notifies the student of a newly scheduled lesson.
func (e *Engine) PlanLessonCreated(ctx context.Context, l *model.Lesson) []Push {
	if l.StudentID == "" {
		e.logger.Warn("Lesson created without student_id", "lesson_id", l.ID)
		return nil
	}
	token, ok := e.dir.TokenByStudentID(ctx, l.StudentID)
	if !ok {
		e.logger.Info("No FCM token for student", "student_id", l.StudentID)
		return nil
	}
	if l.StartAt.IsZero() {
		e.logger.Warn("Lesson created without start time", "lesson_id", l.ID)
		return nil
	}
	return []Push{e.render.LessonCreated(*l).To(token)}
}

func (e *Engine) OnLessonCreated(ctx context.Context, l *model.Lesson) int {
	return e.deliverAll(ctx, e.PlanLessonCreated(ctx, l))
}

// PlanLessonUpdated notifies the instructor when a student adds or changes
// their reflection. Every other lesson edit is ignored.
func (e *Engine) PlanLessonUpdated(ctx context.Context, before, after *model.Lesson) []Push {
	if !reflectionAdded(before, after) {
		return nil
	}
	if after.InstructorID == "" {
		return nil
	}
	token, ok := e.dir.TokenByUserID(ctx, after.InstructorID)
	if !ok {
		e.logger.Info("No FCM token for instructor", "instructor_id", after.InstructorID)
		return nil
	}
	name := e.dir.StudentName(ctx, after.StudentID)
	return []Push{e.render.ReflectionAdded(*after, name).To(token)}
}

func (e *Engine) OnLessonUpdated(ctx context.Context, before, after *model.Lesson) int {
	return e.deliverAll(ctx, e.PlanLessonUpdated(ctx, before, after))
}

// --------------------------------------------------------------------------
// Cancellation requests
// --------------------------------------------------------------------------

// PlanCancellationRequestCreated notifies the instructor of a new request.
func (e *Engine) PlanCancellationRequestCreated(ctx context.Context, req *model.CancellationRequest) []Push {
	if req.InstructorID == "" {
		return nil
	}
	token, ok := e.dir.TokenByUserID(ctx, req.InstructorID)
	if !ok {
		e.logger.Info("No FCM token for instructor", "instructor_id", req.InstructorID)
		return nil
	}
	name := e.dir.StudentName(ctx, req.StudentID)
	return []Push{e.render.CancellationRequested(*req, name).To(token)}
}

func (e *Engine) OnCancellationRequestCreated(ctx context.Context, req *model.CancellationRequest) int {
	return e.deliverAll(ctx, e.PlanCancellationRequestCreated(ctx, req))
}

// PlanCancellationRequestUpdated notifies the student once a pending
// request is resolved.
func (e *Engine) PlanCancellationRequestUpdated(ctx context.Context, before, after *model.CancellationRequest) []Push {
	if !cancellationResolved(before, after) {
		return nil
	}
	token, ok := e.dir.TokenByStudentID(ctx, after.StudentID)
	if !ok {
		e.logger.Info("No FCM token for student", "student_id", after.StudentID)
		return nil
	}
	return []Push{e.render.CancellationResolved(*after).To(token)}
}

func (e *Engine) OnCancellationRequestUpdated(ctx context.Context, before, after *model.CancellationRequest) int {
	return e.deliverAll(ctx, e.PlanCancellationRequestUpdated(ctx, before, after))
}

// --------------------------------------------------------------------------
// Instructor presence signals
// --------------------------------------------------------------------------

// PlanInstructorNotification notifies the student that the instructor is
// on the way or has arrived. It never touches the signal document.
func (e *Engine) PlanInstructorNotification(ctx context.Context, n *model.InstructorNotification) []Push {
	if n.InstructorID == "" || n.StudentID == "" || n.LessonID == "" || n.NotificationType == "" {
		e.logger.Error("Invalid instructor notification",
			"notification_id", n.ID, "instructor_id", n.InstructorID,
			"student_id", n.StudentID, "lesson_id", n.LessonID, "notification_type", n.NotificationType)
		return nil
	}
	token, ok := e.dir.TokenByStudentID(ctx, n.StudentID)
	if !ok {
		e.logger.Info("No FCM token for student", "student_id", n.StudentID)
		return nil
	}
	name := e.dir.InstructorName(ctx, n.InstructorID)
	msg, known := e.render.InstructorPresence(*n, name)
	if !known {
		e.logger.Error("Unknown instructor notification type",
			"notification_id", n.ID, "notification_type", n.NotificationType)
		return nil
	}
	return []Push{msg.To(token)}
}

// OnInstructorNotificationCreated delivers the signal and then deletes it.
// The signal is consumed whatever the outcome.
func (e *Engine) OnInstructorNotificationCreated(ctx context.Context, n *model.InstructorNotification) int {
	defer e.discardSignal(ctx, n.ID)
	sent := e.deliverAll(ctx, e.PlanInstructorNotification(ctx, n))
	if sent > 0 {
		e.logger.Info("Instructor notification sent",
			"notification_type", n.NotificationType, "student_id", n.StudentID, "instructor_id", n.InstructorID)
	}
	return sent
}

func (e *Engine) discardSignal(ctx context.Context, id string) {
	if id == "" {
		return
	}
	err := e.store.DeleteInstructorNotification(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		e.logger.Warn("Delete instructor notification failed", "notification_id", id, "error", err)
	}
}

// --------------------------------------------------------------------------
// Chat
// --------------------------------------------------------------------------

// PlanMessageCreated notifies the other participant of a conversation.
// Chat pushes are silent so the app can attach reply actions.
func (e *Engine) PlanMessageCreated(ctx context.Context, m *model.Message) []Push {
	if m.SenderID == "" || m.SenderRole == "" || m.ConversationID == "" {
		e.logger.Warn("Message created with missing data",
			"message_id", m.ID, "conversation_id", m.ConversationID)
		return nil
	}
	conv, err := e.store.GetConversation(ctx, m.ConversationID)
	if err != nil {
		e.logger.Warn("Conversation not found", "conversation_id", m.ConversationID, "error", err)
		return nil
	}

	fromInstructor := m.SenderRole == model.RoleInstructor
	var (
		recipientID string
		token       string
		ok          bool
	)
	if fromInstructor {
		recipientID = conv.StudentID
	} else {
		recipientID = conv.InstructorID
	}
	if recipientID == "" {
		e.logger.Warn("No recipient for conversation", "conversation_id", m.ConversationID)
		return nil
	}
	if fromInstructor {
		token, ok = e.dir.TokenByStudentID(ctx, recipientID)
	} else {
		token, ok = e.dir.TokenByUserID(ctx, recipientID)
	}
	if !ok {
		e.logger.Info("No FCM token for recipient", "recipient_id", recipientID)
		return nil
	}

	var sender string
	if fromInstructor {
		sender = e.dir.InstructorName(ctx, m.SenderID)
	} else {
		sender = e.dir.StudentName(ctx, m.SenderID)
	}
	p := e.render.ChatMessage(*m, sender).To(token)
	p.Silent = true
	return []Push{p}
}

func (e *Engine) OnMessageCreated(ctx context.Context, m *model.Message) int {
	return e.deliverAll(ctx, e.PlanMessageCreated(ctx, m))
}

// --------------------------------------------------------------------------
// Announcements
// --------------------------------------------------------------------------

// PlanAnnouncement fans an announcement out to every user of the school,
// skipping users without a token, the author and audience mismatches.
func (e *Engine) PlanAnnouncement(ctx context.Context, a *model.Announcement) []Push {
	if a.SchoolID == "" {
		e.logger.Warn("Announcement created without school_id", "announcement_id", a.ID)
		return nil
	}
	users, err := e.store.ListUsersBySchool(ctx, a.SchoolID)
	if err != nil {
		e.logger.Error("List school users failed", "school_id", a.SchoolID, "error", err)
		return nil
	}
	if len(users) == 0 {
		e.logger.Info("No users found for school", "school_id", a.SchoolID)
		return nil
	}

	msg := e.render.Announcement(*a)
	var pushes []Push
	for _, u := range users {
		if u.FCMToken == "" || u.ID == a.AuthorID || !audienceMatches(a.Audience, u.Role) {
			continue
		}
		pushes = append(pushes, msg.To(u.FCMToken))
	}
	return pushes
}

func (e *Engine) OnAnnouncementCreated(ctx context.Context, a *model.Announcement) int {
	pushes := e.PlanAnnouncement(ctx, a)
	sent := e.deliverAll(ctx, pushes)
	audience := a.Audience
	if audience == "" {
		audience = model.AudienceAll
	}
	e.logger.Info("Announcement sent",
		"announcement_id", a.ID, "school_id", a.SchoolID, "audience", audience,
		"recipients", len(pushes), "sent", sent)
	return sent
}
