package notifications

import (
	"context"
	"errors"
	"log/slog"

	"github.com/drivemate/notify/internal/cache"
	"github.com/drivemate/notify/internal/store"
)

// Directory resolves identities to push tokens and display names.
//
// Students exist in two id spaces: the Student record id carried by
// lessons, requests and messages, and the User document that holds the
// token. TokenByStudentID bridges them through the user's studentId field.
type Directory struct {
	store  store.Store
	names  *cache.Cache
	logger *slog.Logger
}

// NewDirectory creates a Directory. names may be nil.
func NewDirectory(st store.Store, names *cache.Cache, logger *slog.Logger) *Directory {
	return &Directory{store: st, names: names, logger: logger}
}

// TokenByUserID returns the push token stored on users/{id}.
func (d *Directory) TokenByUserID(ctx context.Context, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	u, err := d.store.GetUser(ctx, id)
	if err != nil {
		d.lookupFailed("user", id, err)
		return "", false
	}
	return u.FCMToken, u.FCMToken != ""
}

// TokenByStudentID returns the token of the first user linked to studentID.
func (d *Directory) TokenByStudentID(ctx context.Context, studentID string) (string, bool) {
	if studentID == "" {
		return "", false
	}
	u, err := d.store.FindUserByStudentID(ctx, studentID)
	if err != nil {
		d.lookupFailed("user for student", studentID, err)
		return "", false
	}
	return u.FCMToken, u.FCMToken != ""
}

// StudentName reads students/{id}, falling back to "Student".
func (d *Directory) StudentName(ctx context.Context, id string) string {
	return d.cachedName("student:"+id, id, fallbackStudentName, func() (string, error) {
		st, err := d.store.GetStudent(ctx, id)
		if err != nil {
			return "", err
		}
		return st.Name, nil
	})
}

// InstructorName reads users/{id}, falling back to "Your instructor".
func (d *Directory) InstructorName(ctx context.Context, id string) string {
	return d.cachedName("instructor:"+id, id, fallbackInstructorName, func() (string, error) {
		u, err := d.store.GetUser(ctx, id)
		if err != nil {
			return "", err
		}
		return u.Name, nil
	})
}

func (d *Directory) cachedName(key, id, fallback string, load func() (string, error)) string {
	if id == "" {
		return fallback
	}
	if name, ok := d.names.Get(key); ok {
		return name
	}
	name, err := load()
	if err != nil {
		d.lookupFailed("name", id, err)
		return fallback
	}
	if name == "" {
		return fallback
	}
	d.names.Set(key, name)
	return name
}

// lookupFailed keeps missing documents quiet and surfaces store faults.
func (d *Directory) lookupFailed(what, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		d.logger.Debug("Directory lookup miss", "lookup", what, "id", id)
		return
	}
	d.logger.Warn("Directory lookup failed", "lookup", what, "id", id, "error", err)
}
