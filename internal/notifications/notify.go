// Package notifications turns document-store events and the hourly tick into
// targeted push notifications for students and instructors.
//
// Pipeline: event → resolve recipient (directory) → render → deliver (FCM).
// Every handler has a Plan step (lookups + rendering, no delivery) and an On
// step that plans and delivers. Delivery failures never propagate.
package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/drivemate/notify/internal/cache"
	"github.com/drivemate/notify/internal/store"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	reminderLookahead        = 24 * time.Hour
	soonThresholdHours       = 2
	sameDayThresholdHours    = 12
	chatPreviewLimit         = 100
	announcementPreviewLimit = 150
	ellipsis                 = "..."
)

// Fallback display names. A missing name never blocks a send.
const (
	fallbackStudentName    = "Student"
	fallbackInstructorName = "Your instructor"
)

// Data payload discriminators, read by the app to route taps.
const (
	TypeLessonCreated          = "lesson_created"
	TypeReflectionAdded        = "reflection_added"
	TypeCancellationRequest    = "cancellation_request"
	TypeCancellationResponse   = "cancellation_response"
	TypeInstructorNotification = "instructor_notification"
	TypeChatMessage            = "chat_message"
	TypeAnnouncement           = "announcement"
	TypeLessonReminder         = "lesson_reminder"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Push is one delivery intent for a single device token.
type Push struct {
	Token  string
	Title  string
	Body   string
	Data   map[string]any
	Silent bool // data-only; the app renders its own actionable notification
}

// Type returns the payload discriminator, used as a metrics label.
func (p Push) Type() string {
	if t, ok := p.Data["type"].(string); ok {
		return t
	}
	return "unknown"
}

// Options tune rendering and lookups.
type Options struct {
	Location  *time.Location // rendering zone; nil means UTC
	NameCache *cache.Cache   // optional display-name cache
}

// Engine wires directory lookups, rendering and delivery for every event.
// It holds no per-event state; one Engine serves all invocations.
type Engine struct {
	store  store.Store
	dir    *Directory
	render Renderer
	sender *FCMSender
	logger *slog.Logger
}

// NewEngine builds an Engine from explicitly constructed clients.
func NewEngine(st store.Store, sender *FCMSender, opts Options, logger *slog.Logger) *Engine {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:  st,
		dir:    NewDirectory(st, opts.NameCache, logger),
		render: Renderer{Location: loc},
		sender: sender,
		logger: logger,
	}
}

// Deliver sends one ad-hoc push through the engine's adapter. Used by the
// test-push endpoint and CLI.
func (e *Engine) Deliver(ctx context.Context, p Push) bool {
	return e.sender.Deliver(ctx, p)
}

// deliverAll sends each push in isolation and returns the success count.
func (e *Engine) deliverAll(ctx context.Context, pushes []Push) int {
	sent := 0
	for _, p := range pushes {
		if e.sender.Deliver(ctx, p) {
			sent++
		}
	}
	return sent
}
