package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/drivemate/notify/internal/notifications"
)

const (
	// Channel is the pg_notify channel the schema triggers publish on.
	Channel          = "drivemate_events"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Postgres consumes the change feed on a dedicated connection (not from
// the pool, which would hand the LISTEN session to other callers).
type Postgres struct {
	dbURL    string
	dispatch *Dispatcher
	logger   *slog.Logger
}

func NewPostgres(dbURL string, dispatch *Dispatcher, logger *slog.Logger) *Postgres {
	return &Postgres{dbURL: dbURL, dispatch: dispatch, logger: logger}
}

// Start listens on the change-feed channel, reconnecting on connection
// loss. Blocks until ctx is cancelled. Intended to be called with `go`.
func (l *Postgres) Start(ctx context.Context) {
	backoff := reconnectBackoff

	for {
		err := l.listenLoop(ctx)
		if ctx.Err() != nil {
			l.logger.Info("Change listener stopped (context cancelled)")
			return
		}

		l.logger.Error("Change listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func (l *Postgres) listenLoop(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	l.logger.Info("Change listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := l.handlePayload(ctx, notification.Payload); err != nil && ctx.Err() == nil {
			return err
		}
	}
}

// handlePayload decodes one notification and dispatches it. Malformed
// payloads are logged and dropped; only a closed pool is returned.
func (l *Postgres) handlePayload(ctx context.Context, payload string) error {
	ev, err := notifications.ParseEnvelope([]byte(payload))
	if err != nil {
		l.logger.Warn("Failed to parse change event", "payload", payload, "error", err)
		return nil
	}
	l.logger.Debug("Change event received",
		"collection", ev.Collection, "op", ev.Op, "doc_id", ev.DocID)

	err = l.dispatch.Dispatch(ctx, ev)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}
