// Package listener adapts document-store change feeds to the notification
// engine. Each runtime decodes changes into notifications.Event values and
// hands them to a Dispatcher, which routes them on a bounded worker pool.
package listener

import (
	"context"
	"errors"
	"log/slog"

	"github.com/drivemate/notify/internal/notifications"
	"github.com/drivemate/notify/internal/worker"
)

// Router is the engine entry point the runtimes feed.
type Router interface {
	Route(ctx context.Context, ev notifications.Event) (int, error)
}

// Dispatcher runs each event on the worker pool so a slow lookup or send
// never blocks the change feed.
type Dispatcher struct {
	router Router
	pool   *worker.Pool
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil pool routes inline.
func NewDispatcher(router Router, pool *worker.Pool, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{router: router, pool: pool, logger: logger}
}

// Dispatch queues ev. It blocks while every worker is busy.
func (d *Dispatcher) Dispatch(ctx context.Context, ev notifications.Event) error {
	if d.pool == nil {
		d.route(ctx, ev)
		return nil
	}
	return d.pool.Submit(ctx, func(ctx context.Context) {
		d.route(ctx, ev)
	})
}

func (d *Dispatcher) route(ctx context.Context, ev notifications.Event) {
	sent, err := d.router.Route(ctx, ev)
	switch {
	case errors.Is(err, notifications.ErrUnhandledEvent):
		return
	case err != nil:
		d.logger.Warn("Event routing failed",
			"collection", ev.Collection, "op", ev.Op, "doc_id", ev.DocID, "error", err)
	default:
		d.logger.Debug("Event processed",
			"collection", ev.Collection, "op", ev.Op, "doc_id", ev.DocID, "sent", sent)
	}
}
