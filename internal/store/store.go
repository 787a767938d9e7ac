// Package store defines the document-store contract the notification engine
// depends on. Backends live in the postgres and firestore subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/drivemate/notify/internal/model"
)

// ErrNotFound is returned by point reads when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Store covers point reads, single-field equality queries, the reminder
// range query and the one delete the engine performs.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	// FindUserByStudentID returns the first user whose studentId matches.
	FindUserByStudentID(ctx context.Context, studentID string) (*model.User, error)
	ListUsersBySchool(ctx context.Context, schoolID string) ([]model.User, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	// ListUpcomingLessons returns lessons starting in [from, to] whose status
	// is scheduled or unset.
	ListUpcomingLessons(ctx context.Context, from, to time.Time) ([]model.Lesson, error)
	DeleteInstructorNotification(ctx context.Context, id string) error
	// PurgeInstructorNotifications deletes signals created before cutoff and
	// returns how many were removed.
	PurgeInstructorNotifications(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}
