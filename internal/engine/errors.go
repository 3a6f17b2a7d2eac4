package engine

import (
	"fmt"

	"vowline/internal/domain"
)

// ValidationError marks a publish rejected by the strict validator: bad
// op shape, a locked event, or an interval the snap/clamp rules cannot
// place inside the window. Nothing was applied.
type ValidationError struct {
	OpIndex int
	Reason  string
}

func (e ValidationError) Error() string {
	if e.OpIndex >= 0 {
		return fmt.Sprintf("op %d invalid: %s", e.OpIndex, e.Reason)
	}
	return e.Reason
}

// ConflictError marks a publish whose baseVersion no longer matches the
// canonical version. It carries the current snapshot so the caller can
// reconcile instead of retrying blindly; canonical state is untouched.
type ConflictError struct {
	CurrentVersion int64
	Snapshot       domain.TimelineSnapshot
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("timeline version conflict: current version is %d", e.CurrentVersion)
}
