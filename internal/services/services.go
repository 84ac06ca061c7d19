// Package services provides business logic and orchestration services.
package services

import (
	"errors"
	"fmt"
	"time"

	"substack/internal/core"
	"substack/internal/storage"
)

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

// StateError rejects an operation that is not allowed in the resource's
// current state. Its message is safe to show to clients.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

var (
	ErrAlreadyCancelled     = &StateError{Msg: "Subscription is already cancelled"}
	ErrNotCancelled         = &StateError{Msg: "Subscription is not cancelled"}
	ErrNotDeleted           = &StateError{Msg: "Subscription is not deleted"}
	ErrCategoryLimit        = &StateError{Msg: fmt.Sprintf("Maximum of %d custom categories allowed", core.MaxCustomCategories)}
	ErrRenameSystemCategory = &StateError{Msg: "Cannot rename system category"}
	ErrDeleteSystemCategory = &StateError{Msg: "Cannot delete system category"}
)

// ConflictError reports a write that lost against a concurrent one or a
// uniqueness constraint. It unwraps to storage.ErrConflict.
type ConflictError struct {
	Msg string
	// CurrentUpdatedAt is set when the conflict comes from optimistic locking.
	CurrentUpdatedAt *time.Time
}

func (e *ConflictError) Error() string { return e.Msg }

func (e *ConflictError) Unwrap() error { return storage.ErrConflict }

// ErrInvalidParameter wraps out-of-range or malformed query parameters.
var ErrInvalidParameter = errors.New("invalid parameter")

// IsStateError reports whether err wraps a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

func pageBounds(limit, offset int) (int, int) {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)
