// Package task contains the pure business logic for task lifecycle operations.
// Guards are pure functions that evaluate preconditions without side effects.
package task

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/rabotim/internal/errs"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	MinTitleLength = 3
	MaxTitleLength = 120
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    errs.Kind
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return errs.New(r.Kind, "%s", r.Reason)
}

func deny(kind errs.Kind, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// CreateTaskContext provides context for task creation guards.
type CreateTaskContext struct {
	PosterID string
	Title    string
	Budget   int64 // stotinki
}

// CancelTaskContext provides context for task cancellation guards.
type CancelTaskContext struct {
	TaskID   string
	Status   string
	PosterID string
	ActorID  string
}

// IsValidStatus reports whether s is a known task status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanCreateTask evaluates whether a task can be created.
// Rules:
// - Poster must be identified
// - Title must be 3..120 characters after trimming
// - Budget must not be negative
func CanCreateTask(ctx CreateTaskContext) GuardResult {
	if ctx.PosterID == "" {
		return deny(errs.KindForbidden, "a signed-in user is required to post a task")
	}

	n := utf8.RuneCountInString(strings.TrimSpace(ctx.Title))
	if n < MinTitleLength || n > MaxTitleLength {
		return deny(errs.KindValidation, "title must be between %d and %d characters (got %d)", MinTitleLength, MaxTitleLength, n)
	}

	if ctx.Budget < 0 {
		return deny(errs.KindValidation, "budget cannot be negative")
	}

	return GuardResult{Allowed: true}
}

// CanCancelTask evaluates whether a task can be cancelled.
// Rules:
// - Only the poster may cancel
// - Status must be pending or in_progress
func CanCancelTask(ctx CancelTaskContext) GuardResult {
	if ctx.ActorID == "" || ctx.ActorID != ctx.PosterID {
		return deny(errs.KindForbidden, "only the poster can cancel task %s", ctx.TaskID)
	}

	if ctx.Status != StatusPending && ctx.Status != StatusInProgress {
		return deny(errs.KindInvalidState, "can only cancel pending or in_progress tasks (current status: %s)", ctx.Status)
	}

	return GuardResult{Allowed: true}
}
