// Package model defines the documents the notification engine reads.
//
// Every type carries two tag sets: `json` matches the Postgres row shape
// (snake_case, also used by the HTTP event ingress) and `firestore` matches
// the field names the mobile app writes to Cloud Firestore. IDs are never
// part of the stored document body; adapters fill them from the key.
package model

import "time"

// Collection names, shared by both store backends and the event runtime.
const (
	CollectionUsers                   = "users"
	CollectionStudents                = "students"
	CollectionLessons                 = "lessons"
	CollectionCancellationRequests    = "cancellation_requests"
	CollectionInstructorNotifications = "instructor_notifications"
	CollectionConversations           = "conversations"
	CollectionMessages                = "messages"
	CollectionAnnouncements           = "school_announcements"
)

// Roles.
const (
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// Lesson statuses. A null status is stored as "" and counts as scheduled.
const (
	LessonScheduled = "scheduled"
	LessonCancelled = "cancelled"
)

// Cancellation request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestDeclined = "declined"
)

// Instructor presence signal types.
const (
	SignalOnWay   = "on_way"
	SignalArrived = "arrived"
)

// Announcement audiences.
const (
	AudienceAll         = "all"
	AudienceInstructors = "instructors"
	AudienceStudents    = "students"
)

// DefaultReminderHours applies when an instructor never set a lead time.
const DefaultReminderHours = 24

type User struct {
	ID                  string `json:"id" firestore:"-"`
	Name                string `json:"name" firestore:"name"`
	Role                string `json:"role" firestore:"role"`
	FCMToken            string `json:"fcm_token" firestore:"fcmToken"`
	StudentID           string `json:"student_id" firestore:"studentId"`
	SchoolID            string `json:"school_id" firestore:"schoolId"`
	ReminderHoursBefore int    `json:"reminder_hours_before" firestore:"reminderHoursBefore"`
}

// ReminderLeadHours returns the configured lead time, defaulting to 24.
func (u *User) ReminderLeadHours() int {
	if u.ReminderHoursBefore <= 0 {
		return DefaultReminderHours
	}
	return u.ReminderHoursBefore
}

type Student struct {
	ID   string `json:"id" firestore:"-"`
	Name string `json:"name" firestore:"name"`
}

type Lesson struct {
	ID                string    `json:"id" firestore:"-"`
	StudentID         string    `json:"student_id" firestore:"studentId"`
	InstructorID      string    `json:"instructor_id" firestore:"instructorId"`
	StartAt           time.Time `json:"start_at" firestore:"startAt"`
	Status            string    `json:"status" firestore:"status"`
	StudentReflection string    `json:"student_reflection" firestore:"studentReflection"`

	// ReflectionDigest is the md5 of the full reflection, set by the Postgres
	// change feed when the payload text may be clipped. Empty when there is
	// no reflection.
	ReflectionDigest string `json:"student_reflection_md5,omitempty" firestore:"-"`
}

// IsScheduled treats a missing status as scheduled.
func (l *Lesson) IsScheduled() bool {
	return l.Status == "" || l.Status == LessonScheduled
}

type CancellationRequest struct {
	ID            string    `json:"id" firestore:"-"`
	InstructorID  string    `json:"instructor_id" firestore:"instructorId"`
	StudentID     string    `json:"student_id" firestore:"studentId"`
	LessonStartAt time.Time `json:"lesson_start_at" firestore:"lessonStartAt"`
	Status        string    `json:"status" firestore:"status"`
}

// InstructorNotification is a write-once presence signal, deleted once consumed.
type InstructorNotification struct {
	ID               string    `json:"id" firestore:"-"`
	InstructorID     string    `json:"instructor_id" firestore:"instructorId"`
	StudentID        string    `json:"student_id" firestore:"studentId"`
	LessonID         string    `json:"lesson_id" firestore:"lessonId"`
	NotificationType string    `json:"notification_type" firestore:"notificationType"`
	CreatedAt        time.Time `json:"created_at" firestore:"createdAt"`
}

type Conversation struct {
	ID           string `json:"id" firestore:"-"`
	InstructorID string `json:"instructor_id" firestore:"instructorId"`
	StudentID    string `json:"student_id" firestore:"studentId"`
}

// Message lives under conversations/{conversationId}/messages.
type Message struct {
	ID             string `json:"id" firestore:"-"`
	ConversationID string `json:"conversation_id" firestore:"-"`
	SenderID       string `json:"sender_id" firestore:"senderId"`
	SenderRole     string `json:"sender_role" firestore:"senderRole"`
	Text           string `json:"text" firestore:"text"`
}

type Announcement struct {
	ID       string `json:"id" firestore:"-"`
	SchoolID string `json:"school_id" firestore:"schoolId"`
	Audience string `json:"audience" firestore:"audience"`
	Title    string `json:"title" firestore:"title"`
	Body     string `json:"body" firestore:"body"`
	AuthorID string `json:"author_id" firestore:"authorId"`
}
