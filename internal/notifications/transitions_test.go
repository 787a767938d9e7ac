package notifications

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drivemate/notify/internal/model"
)

func TestReflectionAdded(t *testing.T) {
	tests := []struct {
		name          string
		before, after string
		want          bool
	}{
		{"first reflection", "", "Great lesson", true},
		{"whitespace before", "   ", "Great lesson", true},
		{"edited", "Good", "Great lesson", true},
		{"identical resave", "Great lesson", "Great lesson", false},
		{"cleared", "Great lesson", "", false},
		{"blank after", "", "  ", false},
		{"both empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reflectionAdded(
				&model.Lesson{StudentReflection: tt.before},
				&model.Lesson{StudentReflection: tt.after},
			)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, reflectionAdded(nil, &model.Lesson{StudentReflection: "x"}))
	assert.False(t, reflectionAdded(nil, nil))
}

func TestReflectionAdded_DigestsOverrideClippedText(t *testing.T) {
	clipped := strings.Repeat("a", 500)

	// Same clipped text, different full text.
	assert.True(t, reflectionAdded(
		&model.Lesson{StudentReflection: clipped, ReflectionDigest: "d1"},
		&model.Lesson{StudentReflection: clipped, ReflectionDigest: "d2"},
	))
	assert.False(t, reflectionAdded(
		&model.Lesson{StudentReflection: clipped, ReflectionDigest: "d1"},
		&model.Lesson{StudentReflection: clipped, ReflectionDigest: "d1"},
	))
	// Whitespace-only prefix clipped away still counts as a reflection.
	assert.True(t, reflectionAdded(
		&model.Lesson{},
		&model.Lesson{StudentReflection: strings.Repeat(" ", 500), ReflectionDigest: "d1"},
	))
	// One side without a digest falls back to the text.
	assert.True(t, reflectionAdded(
		&model.Lesson{StudentReflection: "Good"},
		&model.Lesson{StudentReflection: "Great", ReflectionDigest: "d2"},
	))
}

func TestCancellationResolved(t *testing.T) {
	statuses := []string{model.RequestPending, model.RequestApproved, model.RequestDeclined, ""}
	for _, from := range statuses {
		for _, to := range statuses {
			want := from == model.RequestPending && to != model.RequestPending
			got := cancellationResolved(
				&model.CancellationRequest{Status: from},
				&model.CancellationRequest{Status: to},
			)
			assert.Equal(t, want, got, "%q -> %q", from, to)
		}
	}
	assert.False(t, cancellationResolved(nil, &model.CancellationRequest{Status: model.RequestApproved}))
}

func TestReminderDue(t *testing.T) {
	assert.True(t, reminderDue(24, 24))
	assert.True(t, reminderDue(23, 24))
	assert.True(t, reminderDue(23.5, 24))
	assert.False(t, reminderDue(25, 24))
	assert.False(t, reminderDue(22, 24))
	assert.False(t, reminderDue(24.01, 24))

	assert.True(t, reminderDue(1.5, 2))
	assert.False(t, reminderDue(0.5, 2))
}

func TestAudienceMatches(t *testing.T) {
	assert.True(t, audienceMatches(model.AudienceAll, model.RoleStudent))
	assert.True(t, audienceMatches("", model.RoleInstructor))
	assert.True(t, audienceMatches(model.AudienceStudents, model.RoleStudent))
	assert.False(t, audienceMatches(model.AudienceStudents, model.RoleInstructor))
	assert.True(t, audienceMatches(model.AudienceInstructors, model.RoleInstructor))
	assert.False(t, audienceMatches(model.AudienceInstructors, model.RoleStudent))
	assert.True(t, audienceMatches("parents", model.RoleStudent))
}
