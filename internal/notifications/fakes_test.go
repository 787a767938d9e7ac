package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/drivemate/notify/internal/model"
	"github.com/drivemate/notify/internal/store"
)

// fakeStore is an in-memory store.Store.
type fakeStore struct {
	users         []model.User
	students      map[string]model.Student
	conversations map[string]model.Conversation
	lessons       []model.Lesson
	deleted       []string
	lessonRange   [2]time.Time
	err           error
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.users {
		if f.users[i].ID == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindUserByStudentID(_ context.Context, studentID string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.users {
		if f.users[i].StudentID == studentID {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListUsersBySchool(_ context.Context, schoolID string) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.User
	for _, u := range f.users {
		if u.SchoolID == schoolID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) GetStudent(_ context.Context, id string) (*model.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStore) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListUpcomingLessons(_ context.Context, from, to time.Time) ([]model.Lesson, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lessonRange = [2]time.Time{from, to}
	return f.lessons, nil
}

func (f *fakeStore) DeleteInstructorNotification(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) PurgeInstructorNotifications(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.err }

// fakeTransport records messages; tokens listed in fail are rejected.
type fakeTransport struct {
	mu   sync.Mutex
	sent []*messaging.Message
	fail map[string]bool
}

func (f *fakeTransport) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[m.Token] {
		return "", errors.New("registration-token-not-registered")
	}
	f.sent = append(f.sent, m)
	return "projects/test/messages/1", nil
}

func (f *fakeTransport) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Token)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(st *fakeStore) (*Engine, *fakeTransport) {
	tr := &fakeTransport{fail: map[string]bool{}}
	logger := discardLogger()
	return NewEngine(st, NewFCMSender(tr, 0, logger), Options{}, logger), tr
}

// baseStore holds one school with an instructor and a linked student.
func baseStore() *fakeStore {
	return &fakeStore{
		users: []model.User{
			{ID: "u-inst", Name: "Jordan Lee", Role: model.RoleInstructor, FCMToken: "tok-instructor", SchoolID: "school-1"},
			{ID: "u-stud", Name: "Sam", Role: model.RoleStudent, FCMToken: "tok-student", StudentID: "s-1", SchoolID: "school-1"},
		},
		students: map[string]model.Student{
			"s-1": {ID: "s-1", Name: "Sam Patel"},
		},
		conversations: map[string]model.Conversation{
			"c-1": {ID: "c-1", InstructorID: "u-inst", StudentID: "s-1"},
		},
	}
}
