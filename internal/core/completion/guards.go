package completion

import (
	"fmt"

	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
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

// RoleContext provides context for party resolution.
type RoleContext struct {
	TaskID   string
	UserID   string
	PosterID string
	WorkerID string // accepted applicant, empty if none
}

// ConfirmContext provides context for the confirmation guard.
type ConfirmContext struct {
	TaskID         string
	Status         string
	Confirmation   Confirmation
	Party          Party // resolved role of the acting user
	RequestedParty Party // role the caller asked to confirm as; empty means Party
}

// ResolveParty classifies a user relative to a task.
// Rules:
// - The poster is PartyPoster
// - The accepted applicant is PartyWorker
// - Anyone else is forbidden
func ResolveParty(ctx RoleContext) (Party, GuardResult) {
	switch {
	case ctx.UserID == "":
		return "", deny(errs.KindForbidden, "a signed-in user is required for task %s", ctx.TaskID)
	case ctx.UserID == ctx.PosterID:
		return PartyPoster, GuardResult{Allowed: true}
	case ctx.WorkerID != "" && ctx.UserID == ctx.WorkerID:
		return PartyWorker, GuardResult{Allowed: true}
	}
	return "", deny(errs.KindForbidden, "user %s is neither the poster nor the accepted worker of task %s", ctx.UserID, ctx.TaskID)
}

// CanConfirm evaluates a completion confirmation.
// Rules:
// - A party may only set its own confirmation
// - Re-confirming is a no-op, whatever the task status
// - A first confirmation requires status in_progress
//
// noop is true when the party already confirmed and nothing must be written.
func CanConfirm(ctx ConfirmContext) (noop bool, result GuardResult) {
	if ctx.RequestedParty != "" && ctx.RequestedParty != ctx.Party {
		return false, deny(errs.KindForbidden, "the %s of task %s cannot confirm on behalf of the %s", ctx.Party, ctx.TaskID, ctx.RequestedParty)
	}

	if ctx.Confirmation.Confirmed(ctx.Party) {
		return true, GuardResult{Allowed: true}
	}

	if ctx.Status != task.StatusInProgress {
		return false, deny(errs.KindInvalidState, "task %s is not in progress (current status: %s)", ctx.TaskID, ctx.Status)
	}

	return false, GuardResult{Allowed: true}
}
