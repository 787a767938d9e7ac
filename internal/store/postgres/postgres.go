// Package postgres implements store.Store on top of pgx, using the prepared
// statements registered by the db package.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/drivemate/notify/internal/model"
	"github.com/drivemate/notify/internal/store"
)

// Schema creates the document tables and the pg_notify change-feed triggers.
//
//go:embed schema.sql
var Schema string

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Store reads and deletes documents through prepared statements.
type Store struct {
	db Querier
}

var _ store.Store = (*Store)(nil)

// New wraps a pool (or any Querier).
func New(db Querier) *Store {
	return &Store{db: db}
}

// Migrate applies Schema. Safe to run repeatedly.
func Migrate(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Users & students
// --------------------------------------------------------------------------

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "user_by_id", id))
	if err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return u, nil
}

func (s *Store) FindUserByStudentID(ctx context.Context, studentID string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "user_by_student_id", studentID))
	if err != nil {
		return nil, notFound(err, "user for student %s", studentID)
	}
	return u, nil
}

func (s *Store) ListUsersBySchool(ctx context.Context, schoolID string) ([]model.User, error) {
	rows, err := s.db.Query(ctx, "users_by_school", schoolID)
	if err != nil {
		return nil, fmt.Errorf("list users for school %s: %w", schoolID, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var st model.Student
	var name *string
	if err := s.db.QueryRow(ctx, "student_by_id", id).Scan(&st.ID, &name); err != nil {
		return nil, notFound(err, "student %s", id)
	}
	st.Name = deref(name)
	return &st, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	var instructorID, studentID *string
	if err := s.db.QueryRow(ctx, "conversation_by_id", id).Scan(&c.ID, &instructorID, &studentID); err != nil {
		return nil, notFound(err, "conversation %s", id)
	}
	c.InstructorID = deref(instructorID)
	c.StudentID = deref(studentID)
	return &c, nil
}

// --------------------------------------------------------------------------
// Lessons & signals
// --------------------------------------------------------------------------

func (s *Store) ListUpcomingLessons(ctx context.Context, from, to time.Time) ([]model.Lesson, error) {
	rows, err := s.db.Query(ctx, "upcoming_lessons", from, to)
	if err != nil {
		return nil, fmt.Errorf("list upcoming lessons: %w", err)
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		var studentID, instructorID, status, reflect *string
		var startAt *time.Time
		if err := rows.Scan(&l.ID, &studentID, &instructorID, &startAt, &status, &reflect); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		l.StudentID = deref(studentID)
		l.InstructorID = deref(instructorID)
		l.Status = deref(status)
		l.StudentReflection = deref(reflect)
		if startAt != nil {
			l.StartAt = *startAt
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (s *Store) DeleteInstructorNotification(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, "delete_instructor_notification", id); err != nil {
		return fmt.Errorf("delete instructor notification %s: %w", id, err)
	}
	return nil
}

func (s *Store) PurgeInstructorNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, "purge_instructor_notifications", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge instructor notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var name, role, token, studentID, schoolID *string
	var reminderHours *int32
	if err := row.Scan(&u.ID, &name, &role, &token, &studentID, &schoolID, &reminderHours); err != nil {
		return nil, err
	}
	u.Name = deref(name)
	u.Role = deref(role)
	u.FCMToken = deref(token)
	u.StudentID = deref(studentID)
	u.SchoolID = deref(schoolID)
	if reminderHours != nil {
		u.ReminderHoursBefore = int(*reminderHours)
	}
	return &u, nil
}

// notFound maps pgx.ErrNoRows onto store.ErrNotFound and wraps everything else.
func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
