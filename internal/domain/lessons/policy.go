package lessons

import (
	"marketplace-app/internal/domain/apperr"
	"marketplace-app/internal/domain/users"
)

// Pure visibility and permission rules for lessons. Nothing in this file
// performs I/O; callers supply the lesson row and any aggregate counts.

// CanView reports whether the caller may see the lesson at all.
// Published lessons are visible to everyone, anonymous included.
// Unpublished lessons are visible only to the owner and admins.
func CanView(l *Lesson, caller *Caller) bool {
	if l.Published {
		return true
	}
	if caller == nil {
		return false
	}
	return caller.ID == l.InstructorID || caller.Role == users.RoleAdmin
}

// CanMutate reports whether the caller may update the lesson. The same rule
// is the precondition for delete.
func CanMutate(l *Lesson, caller *Caller) bool {
	if caller == nil {
		return false
	}
	return caller.ID == l.InstructorID || caller.Role == users.RoleAdmin
}

// CanDelete assumes the lesson exists. Permission is checked before the
// purchase rule, so a non-owner gets PermissionDenied even at zero
// purchases. The purchase rule has no override: admins cannot delete a
// lesson anyone has paid for.
func CanDelete(l *Lesson, caller *Caller, completedPurchases int64) error {
	if !CanMutate(l, caller) {
		return apperr.PermissionDenied("not allowed to delete this lesson")
	}
	if completedPurchases > 0 {
		return apperr.HasPurchases(completedPurchases)
	}
	return nil
}

// CanCreate is true only for instructors. Admins curate, they do not author.
func CanCreate(caller *Caller) bool {
	return caller != nil && caller.Role == users.RoleInstructor
}

// BuildUserContext shapes the caller-specific view. Access is currently
// defined as exactly "has a completed purchase"; there is no separate
// entitlement mechanism.
func BuildUserContext(purchased bool, review *ReviewSummary) UserContext {
	return UserContext{
		IsPurchased: purchased,
		HasAccess:   purchased,
		Review:      review,
	}
}

// CanStreamVideo gates the signed-URL endpoint: a completed purchase, or
// mutate rights (owner previewing, admin reviewing content).
func CanStreamVideo(l *Lesson, caller *Caller, purchased bool) bool {
	if caller == nil {
		return false
	}
	if purchased {
		return true
	}
	return CanMutate(l, caller)
}
