// Package firestore implements store.Store against Cloud Firestore, the
// store the mobile app writes to directly.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/drivemate/notify/internal/model"
	"github.com/drivemate/notify/internal/store"
)

// Store reads documents by collection path.
// Documents the app wrote with mistyped fields are logged and skipped by
// list queries, so one bad document never hides the rest.
type Store struct {
	client *firestore.Client
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

func New(client *firestore.Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.get(ctx, model.CollectionUsers, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByStudentID(ctx context.Context, studentID string) (*model.User, error) {
	docs, err := s.client.Collection(model.CollectionUsers).
		Where("studentId", "==", studentID).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query user for student %s: %w", studentID, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("user for student %s: %w", studentID, store.ErrNotFound)
	}
	var u model.User
	if err := decode(docs[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsersBySchool(ctx context.Context, schoolID string) ([]model.User, error) {
	iter := s.client.Collection(model.CollectionUsers).
		Where("schoolId", "==", schoolID).
		Documents(ctx)
	defer iter.Stop()

	var users []model.User
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list users for school %s: %w", schoolID, err)
		}
		var u model.User
		if err := decode(snap, &u); err != nil {
			skipMalformed(s.logger, snap, err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var st model.Student
	if err := s.get(ctx, model.CollectionStudents, id, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	if err := s.get(ctx, model.CollectionConversations, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListUpcomingLessons needs a composite index on (status, startAt).
func (s *Store) ListUpcomingLessons(ctx context.Context, from, to time.Time) ([]model.Lesson, error) {
	docs, err := s.client.Collection(model.CollectionLessons).
		Where("startAt", ">=", from).
		Where("startAt", "<=", to).
		Where("status", "in", []any{model.LessonScheduled, nil}).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list upcoming lessons: %w", err)
	}

	return decodeEach[model.Lesson](docs, decode, s.logger), nil
}

func (s *Store) DeleteInstructorNotification(ctx context.Context, id string) error {
	_, err := s.client.Collection(model.CollectionInstructorNotifications).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete instructor notification %s: %w", id, err)
	}
	return nil
}

func (s *Store) PurgeInstructorNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	docs, err := s.client.Collection(model.CollectionInstructorNotifications).
		Where("createdAt", "<", cutoff).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("list stale instructor notifications: %w", err)
	}

	var purged int64
	for _, snap := range docs {
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return purged, fmt.Errorf("delete instructor notification %s: %w", snap.Ref.ID, err)
		}
		purged++
	}
	return purged, nil
}

// Ping reads a document that need not exist; only transport errors count.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (s *Store) get(ctx context.Context, collection, id string, dst any) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decode(snap, dst)
}

// Decode converts a snapshot into a model type and sets its key. Exported
// for the snapshot watcher, which decodes change payloads the same way.
func Decode(snap *firestore.DocumentSnapshot, dst any) error {
	return decode(snap, dst)
}

// decodeEach decodes every snapshot with dec, skipping the ones that fail.
func decodeEach[T any](docs []*firestore.DocumentSnapshot, dec func(*firestore.DocumentSnapshot, any) error, logger *slog.Logger) []T {
	out := make([]T, 0, len(docs))
	for _, snap := range docs {
		var v T
		if err := dec(snap, &v); err != nil {
			skipMalformed(logger, snap, err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func skipMalformed(logger *slog.Logger, snap *firestore.DocumentSnapshot, err error) {
	logger.Warn("Skipping malformed document", "path", snap.Ref.Path, "error", err)
}

func decode(snap *firestore.DocumentSnapshot, dst any) error {
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
	}
	parentID := ""
	if snap.Ref.Parent != nil && snap.Ref.Parent.Parent != nil {
		parentID = snap.Ref.Parent.Parent.ID
	}
	model.SetKey(dst, snap.Ref.ID, parentID)
	return nil
}
