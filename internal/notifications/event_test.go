package notifications

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivemate/notify/internal/model"
)

func TestParseOp(t *testing.T) {
	for in, want := range map[string]Op{"insert": OpCreate, "INSERT": OpCreate, "create": OpCreate, "update": OpUpdate} {
		got, err := ParseOp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseOp("delete")
	assert.Error(t, err)
}

func TestParseEnvelope_ChangeFeedPayload(t *testing.T) {
	payload := []byte(`{
		"collection": "lessons",
		"op": "update",
		"doc_id": "l-1",
		"parent_id": null,
		"old": {"id": "l-1", "student_id": "s-1", "instructor_id": "u-inst", "start_at": "2026-10-20T10:00:00+00:00", "status": null, "student_reflection": null},
		"new": {"id": "l-1", "student_id": "s-1", "instructor_id": "u-inst", "start_at": "2026-10-20T10:00:00+00:00", "status": "scheduled", "student_reflection": "Good"}
	}`)

	ev, err := ParseEnvelope(payload)
	require.NoError(t, err)
	assert.Equal(t, OpUpdate, ev.Op)

	before, ok := ev.Before.(*model.Lesson)
	require.True(t, ok)
	after, ok := ev.After.(*model.Lesson)
	require.True(t, ok)
	assert.Equal(t, "", before.StudentReflection)
	assert.Equal(t, "Good", after.StudentReflection)
	assert.Equal(t, time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC), after.StartAt.UTC())
}

func TestParseEnvelope_MessageKeys(t *testing.T) {
	ev, err := ParseEnvelope([]byte(`{"collection":"messages","op":"insert","doc_id":"m-1","parent_id":"c-1","new":{"sender_id":"u-inst","sender_role":"instructor","text":"hi"}}`))
	require.NoError(t, err)

	m, ok := ev.After.(*model.Message)
	require.True(t, ok)
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, "c-1", m.ConversationID)
	assert.Nil(t, ev.Before)
}

func TestParseEnvelope_Errors(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"collection":"lessons","op":"update"}`))
	assert.Error(t, err)

	_, err = ParseEnvelope([]byte(`{"collection":"users","op":"update","new":{"id":"u"}}`))
	assert.ErrorIs(t, err, ErrUnhandledEvent)

	_, err = ParseEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestRoute(t *testing.T) {
	st := baseStore()
	e, tr := newTestEngine(st)
	ctx := context.Background()

	ev, err := ParseEnvelope([]byte(`{"collection":"cancellation_requests","op":"update","doc_id":"r-1",
		"old":{"student_id":"s-1","status":"pending"},
		"new":{"student_id":"s-1","status":"declined"}}`))
	require.NoError(t, err)

	sent, err := e.Route(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, "r-1", tr.sent[0].Data["requestId"])

	ev, err = ParseEnvelope([]byte(`{"collection":"instructor_notifications","op":"insert","doc_id":"n-9",
		"new":{"instructor_id":"u-inst","student_id":"s-1","lesson_id":"l-1","notification_type":"on_way"}}`))
	require.NoError(t, err)
	sent, err = e.Route(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"n-9"}, st.deleted)
}

func TestRoute_LongReflectionEditedPastClip(t *testing.T) {
	e, tr := newTestEngine(baseStore())

	// Reflection text arrives clipped at 500 characters; only the digests differ.
	clipped := strings.Repeat("a", 500)
	payload := fmt.Sprintf(`{"collection":"lessons","op":"update","doc_id":"l-1",
		"old":{"student_id":"s-1","instructor_id":"u-inst","student_reflection":%q,"student_reflection_md5":%q},
		"new":{"student_id":"s-1","instructor_id":"u-inst","student_reflection":%q,"student_reflection_md5":%q}}`,
		clipped, md5Hex(clipped+" first draft"), clipped, md5Hex(clipped+" rewritten"))

	ev, err := ParseEnvelope([]byte(payload))
	require.NoError(t, err)
	sent, err := e.Route(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, TypeReflectionAdded, tr.sent[0].Data["type"])

	// Re-saving the same long text does not fire.
	same := fmt.Sprintf(`{"collection":"lessons","op":"update","doc_id":"l-1",
		"old":{"student_id":"s-1","instructor_id":"u-inst","student_reflection":%q,"student_reflection_md5":"x"},
		"new":{"student_id":"s-1","instructor_id":"u-inst","student_reflection":%q,"student_reflection_md5":"x"}}`,
		clipped, clipped)
	ev, err = ParseEnvelope([]byte(same))
	require.NoError(t, err)
	sent, err = e.Route(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestRoute_Unhandled(t *testing.T) {
	e, _ := newTestEngine(baseStore())

	_, err := e.Route(context.Background(), Event{Collection: model.CollectionMessages, Op: OpUpdate, After: &model.Message{}})
	assert.True(t, errors.Is(err, ErrUnhandledEvent))

	_, err = e.Route(context.Background(), Event{Collection: "users", Op: OpCreate})
	assert.True(t, errors.Is(err, ErrUnhandledEvent))
}
