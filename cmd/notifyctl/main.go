// Command notifyctl is the DriveMate notification operator CLI.
//
// Usage:
//
//	notifyctl migrate
//	notifyctl sweep --at 2026-10-19T09:00:00Z
//	notifyctl push --token <fcm-token> --title "Hello" --body "World" [--silent]
//	notifyctl replay --collection lessons --op create --doc-id l-1 --file lesson.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/drivemate/notify/internal/app"
	"github.com/drivemate/notify/internal/config"
	"github.com/drivemate/notify/internal/notifications"
	pgstore "github.com/drivemate/notify/internal/store/postgres"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "notifyctl",
		Short: "DriveMate notification operator CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(pushCmd())
	root.AddCommand(replayCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema and change-feed triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				if a.Pool == nil {
					return fmt.Errorf("migrate requires STORE_BACKEND=%s", config.BackendPostgres)
				}
				start := time.Now()
				if err := pgstore.Migrate(ctx, a.Pool); err != nil {
					return err
				}
				logger.Info("Schema applied", "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// sweep command
// --------------------------------------------------------------------------

func sweepCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one lesson reminder sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				now = parsed
			}
			return run(func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.SweepReminders(ctx, now)
				if err != nil {
					return err
				}
				logger.Info("Sweep finished", "summary", res.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Sweep instant (RFC3339); defaults to now")
	return cmd
}

// --------------------------------------------------------------------------
// push command
// --------------------------------------------------------------------------

func pushCmd() *cobra.Command {
	var (
		token, title, body string
		silent             bool
	)
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Send a test push to one device token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				p := notifications.Push{
					Token:  token,
					Title:  title,
					Body:   body,
					Data:   map[string]any{"type": "test"},
					Silent: silent,
				}
				if !a.Engine.Deliver(ctx, p) {
					return errors.New("push was not delivered")
				}
				logger.Info("Push delivered", "silent", silent)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "FCM device token")
	cmd.Flags().StringVar(&title, "title", "", "Notification title")
	cmd.Flags().StringVar(&body, "body", "", "Notification body")
	cmd.Flags().BoolVar(&silent, "silent", false, "Send as a data-only message")
	cmd.MarkFlagRequired("token")
	cmd.MarkFlagRequired("title")
	return cmd
}

// --------------------------------------------------------------------------
// replay command
// --------------------------------------------------------------------------

func replayCmd() *cobra.Command {
	var (
		collection, op, docID, parentID string
		file, oldFile                   string
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a stored document through the matching notification handler",
		Long: "Reads a document (snake_case JSON, the Postgres row shape) and routes it as a " +
			"create or update event. Use --old for the before-image of an update.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := notifications.Envelope{
				Collection: collection,
				Op:         op,
				DocID:      docID,
				ParentID:   parentID,
			}
			var err error
			if env.New, err = readDocument(file); err != nil {
				return err
			}
			if oldFile != "" {
				if env.Old, err = readDocument(oldFile); err != nil {
					return err
				}
			}
			ev, err := env.Event()
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, a *app.App) error {
				sent, err := a.Engine.Route(ctx, ev)
				if errors.Is(err, notifications.ErrUnhandledEvent) {
					logger.Warn("No handler for event", "collection", collection, "op", op)
					return nil
				}
				logger.Info("Event replayed", "collection", collection, "op", ev.Op, "doc_id", docID, "sent", sent)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "Collection name (lessons, cancellation_requests, ...)")
	cmd.Flags().StringVar(&op, "op", "create", "create or update")
	cmd.Flags().StringVar(&docID, "doc-id", "", "Document id")
	cmd.Flags().StringVar(&parentID, "parent-id", "", "Parent document id (conversation id for messages)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the document JSON")
	cmd.Flags().StringVar(&oldFile, "old", "", "Path to the before-image JSON (updates)")
	cmd.MarkFlagRequired("collection")
	cmd.MarkFlagRequired("file")
	return cmd
}

func readDocument(path string) (json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return json.RawMessage(b), nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func run(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
