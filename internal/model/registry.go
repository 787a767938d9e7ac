package model

// NewDocument returns a pointer to an empty document for a watched
// collection, ready to be decoded into. ok is false for collections the
// engine does not react to.
func NewDocument(collection string) (doc any, ok bool) {
	switch collection {
	case CollectionLessons:
		return &Lesson{}, true
	case CollectionCancellationRequests:
		return &CancellationRequest{}, true
	case CollectionInstructorNotifications:
		return &InstructorNotification{}, true
	case CollectionMessages:
		return &Message{}, true
	case CollectionAnnouncements:
		return &Announcement{}, true
	default:
		return nil, false
	}
}

// SetKey copies the document key (and, for messages, the parent
// conversation key) onto a decoded document.
func SetKey(doc any, id, parentID string) {
	switch d := doc.(type) {
	case *Lesson:
		d.ID = id
	case *CancellationRequest:
		d.ID = id
	case *InstructorNotification:
		d.ID = id
	case *Message:
		d.ID = id
		if parentID != "" {
			d.ConversationID = parentID
		}
	case *Announcement:
		d.ID = id
	case *User:
		d.ID = id
	case *Student:
		d.ID = id
	case *Conversation:
		d.ID = id
	}
}
