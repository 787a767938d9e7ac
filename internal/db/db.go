// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drivemate/notify/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements lists every prepared statement by name. Exported so the
// store can reference names and tests can check the SQL stays in sync.
var Statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Directory lookups
	"user_by_id":         "SELECT id, name, role, fcm_token, student_id, school_id, reminder_hours_before FROM users WHERE id = $1",
	"user_by_student_id": "SELECT id, name, role, fcm_token, student_id, school_id, reminder_hours_before FROM users WHERE student_id = $1 LIMIT 1",
	"users_by_school":    "SELECT id, name, role, fcm_token, student_id, school_id, reminder_hours_before FROM users WHERE school_id = $1",
	"student_by_id":      "SELECT id, name FROM students WHERE id = $1",
	"conversation_by_id": "SELECT id, instructor_id, student_id FROM conversations WHERE id = $1",

	// Reminder sweep
	"upcoming_lessons": `SELECT id, student_id, instructor_id, start_at, status, student_reflection
		FROM lessons
		WHERE start_at >= $1 AND start_at <= $2
		  AND (status IS NULL OR status = 'scheduled')
		ORDER BY start_at`,

	// Presence signals
	"delete_instructor_notification": "DELETE FROM instructor_notifications WHERE id = $1",
	"purge_instructor_notifications": "DELETE FROM instructor_notifications WHERE created_at < $1",
}

// registerPreparedStatements registers all statements the engine uses.
// Prepared statements eliminate parse overhead on every lookup.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
