package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/drivemate/notify/internal/model"
)

// Op is the kind of document mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// ParseOp normalises runtime op names; Postgres triggers report "insert".
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create", "insert", "created":
		return OpCreate, nil
	case "update", "updated":
		return OpUpdate, nil
	default:
		return "", fmt.Errorf("unsupported op %q", s)
	}
}

// Event is a runtime-neutral document change. Before is nil for creations.
// Before and After hold pointers to model documents.
type Event struct {
	ID         string
	Collection string
	Op         Op
	DocID      string
	ParentID   string
	Before     any
	After      any
}

// Envelope is the JSON form of an Event, shared by the Postgres change feed,
// the HTTP ingress and CLI replay. Documents use the snake_case row shape.
type Envelope struct {
	ID         string          `json:"id,omitempty"`
	Collection string          `json:"collection"`
	Op         string          `json:"op"`
	DocID      string          `json:"doc_id"`
	ParentID   string          `json:"parent_id,omitempty"`
	Old        json.RawMessage `json:"old,omitempty"`
	New        json.RawMessage `json:"new,omitempty"`
}

// ParseEnvelope decodes an envelope and its documents in one step.
func ParseEnvelope(payload []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env.Event()
}

// Event decodes the envelope's documents into typed model values.
func (env Envelope) Event() (Event, error) {
	op, err := ParseOp(env.Op)
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:         env.ID,
		Collection: env.Collection,
		Op:         op,
		DocID:      env.DocID,
		ParentID:   env.ParentID,
	}
	if ev.After, err = env.decode(env.New); err != nil {
		return Event{}, fmt.Errorf("decode new: %w", err)
	}
	if ev.After == nil {
		return Event{}, fmt.Errorf("%s %s event has no document", env.Collection, env.Op)
	}
	if ev.Before, err = env.decode(env.Old); err != nil {
		return Event{}, fmt.Errorf("decode old: %w", err)
	}
	return ev, nil
}

// decode returns nil for an absent or null document.
func (env Envelope) decode(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	doc, ok := model.NewDocument(env.Collection)
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", ErrUnhandledEvent, env.Collection)
	}
	if err := json.Unmarshal(trimmed, doc); err != nil {
		return nil, err
	}
	if env.DocID != "" {
		model.SetKey(doc, env.DocID, env.ParentID)
	}
	return doc, nil
}
