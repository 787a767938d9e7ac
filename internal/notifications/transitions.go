package notifications

import (
	"strings"

	"github.com/drivemate/notify/internal/model"
)

// reflectionAdded reports whether an update introduced new reflection text.
// Clearing a reflection, or re-saving identical text, never fires. Digests
// win over text when both sides carry one, since change-feed text is clipped.
func reflectionAdded(before, after *model.Lesson) bool {
	if !hasReflection(after) {
		return false
	}
	if !hasReflection(before) {
		return true
	}
	if before.ReflectionDigest != "" && after.ReflectionDigest != "" {
		return before.ReflectionDigest != after.ReflectionDigest
	}
	return before.StudentReflection != after.StudentReflection
}

func hasReflection(l *model.Lesson) bool {
	return l != nil && (l.ReflectionDigest != "" || strings.TrimSpace(l.StudentReflection) != "")
}

// cancellationResolved reports a strict pending -> non-pending transition.
func cancellationResolved(before, after *model.CancellationRequest) bool {
	if before == nil || after == nil {
		return false
	}
	return before.Status == model.RequestPending && after.Status != model.RequestPending
}

// audienceMatches applies an announcement's role filter. Only the two role
// audiences filter; anything else reaches everyone.
func audienceMatches(audience, role string) bool {
	switch audience {
	case model.AudienceInstructors:
		return role == model.RoleInstructor
	case model.AudienceStudents:
		return role == model.RoleStudent
	default:
		return true
	}
}

// reminderDue reports whether a lesson hoursUntil away sits inside the
// one-hour window ending at the instructor's lead time.
func reminderDue(hoursUntil float64, leadHours int) bool {
	lead := float64(leadHours)
	return hoursUntil <= lead && hoursUntil >= lead-1
}
