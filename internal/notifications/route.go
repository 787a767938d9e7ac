package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/drivemate/notify/internal/model"
)

// ErrUnhandledEvent marks events no handler reacts to.
var ErrUnhandledEvent = errors.New("unhandled event")

// Route dispatches one change event to its handler and returns the number
// of pushes delivered. Handler outcomes never produce errors; only events
// that cannot be dispatched do.
func (e *Engine) Route(ctx context.Context, ev Event) (int, error) {
	eventsTotal.WithLabelValues(ev.Collection, string(ev.Op)).Inc()

	switch ev.Collection {
	case model.CollectionLessons:
		after, ok := ev.After.(*model.Lesson)
		if !ok {
			break
		}
		switch ev.Op {
		case OpCreate:
			return e.OnLessonCreated(ctx, after), nil
		case OpUpdate:
			before, _ := ev.Before.(*model.Lesson)
			return e.OnLessonUpdated(ctx, before, after), nil
		}

	case model.CollectionCancellationRequests:
		after, ok := ev.After.(*model.CancellationRequest)
		if !ok {
			break
		}
		switch ev.Op {
		case OpCreate:
			return e.OnCancellationRequestCreated(ctx, after), nil
		case OpUpdate:
			before, _ := ev.Before.(*model.CancellationRequest)
			return e.OnCancellationRequestUpdated(ctx, before, after), nil
		}

	case model.CollectionInstructorNotifications:
		if n, ok := ev.After.(*model.InstructorNotification); ok && ev.Op == OpCreate {
			return e.OnInstructorNotificationCreated(ctx, n), nil
		}

	case model.CollectionMessages:
		if m, ok := ev.After.(*model.Message); ok && ev.Op == OpCreate {
			return e.OnMessageCreated(ctx, m), nil
		}

	case model.CollectionAnnouncements:
		if a, ok := ev.After.(*model.Announcement); ok && ev.Op == OpCreate {
			return e.OnAnnouncementCreated(ctx, a), nil
		}
	}

	e.logger.Debug("Event ignored", "collection", ev.Collection, "op", ev.Op, "doc_id", ev.DocID)
	return 0, fmt.Errorf("%w: %s %s", ErrUnhandledEvent, ev.Collection, ev.Op)
}
