// Package application contains the pure business logic for task applications.
// The accepted application is what makes a user the worker of a task.
package application

import (
	"fmt"

	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
)

// Application statuses.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
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

// ApplyContext provides context for application guards.
type ApplyContext struct {
	TaskID         string
	TaskStatus     string
	PosterID       string
	ApplicantID    string
	AlreadyApplied bool
}

// AcceptContext provides context for acceptance guards.
type AcceptContext struct {
	TaskID            string
	TaskStatus        string
	PosterID          string
	ActorID           string
	ApplicationID     string
	ApplicationStatus string
	HasAcceptedWorker bool
}

// WithdrawContext provides context for withdrawal guards.
type WithdrawContext struct {
	ApplicationID     string
	ApplicationStatus string
	ApplicantID       string
	ActorID           string
}

// CanApply evaluates whether a user can apply to a task.
// Rules:
// - Applicant must be signed in and not the poster
// - Task must be pending
// - One application per applicant and task
func CanApply(ctx ApplyContext) GuardResult {
	if ctx.ApplicantID == "" {
		return deny(errs.KindForbidden, "a signed-in user is required to apply")
	}
	if ctx.ApplicantID == ctx.PosterID {
		return deny(errs.KindForbidden, "you cannot apply to your own task %s", ctx.TaskID)
	}
	if ctx.TaskStatus != task.StatusPending {
		return deny(errs.KindInvalidState, "task %s is not accepting applications (current status: %s)", ctx.TaskID, ctx.TaskStatus)
	}
	if ctx.AlreadyApplied {
		return deny(errs.KindConflict, "you have already applied to task %s", ctx.TaskID)
	}
	return GuardResult{Allowed: true}
}

// CanAccept evaluates whether the poster can accept an application.
// Rules:
// - Only the poster may accept
// - Task must be pending without an accepted worker
// - Application must be pending
func CanAccept(ctx AcceptContext) GuardResult {
	if ctx.ActorID == "" || ctx.ActorID != ctx.PosterID {
		return deny(errs.KindForbidden, "only the poster of task %s can accept applications", ctx.TaskID)
	}
	if ctx.HasAcceptedWorker {
		return deny(errs.KindInvalidState, "task %s already has an accepted worker", ctx.TaskID)
	}
	if ctx.TaskStatus != task.StatusPending {
		return deny(errs.KindInvalidState, "task %s is not pending (current status: %s)", ctx.TaskID, ctx.TaskStatus)
	}
	if ctx.ApplicationStatus != StatusPending {
		return deny(errs.KindInvalidState, "application %s is not pending (current status: %s)", ctx.ApplicationID, ctx.ApplicationStatus)
	}
	return GuardResult{Allowed: true}
}

// CanWithdraw evaluates whether an applicant can withdraw.
// Rules:
// - Only the applicant may withdraw
// - Application must be pending
func CanWithdraw(ctx WithdrawContext) GuardResult {
	if ctx.ActorID == "" || ctx.ActorID != ctx.ApplicantID {
		return deny(errs.KindForbidden, "only the applicant can withdraw application %s", ctx.ApplicationID)
	}
	if ctx.ApplicationStatus != StatusPending {
		return deny(errs.KindInvalidState, "application %s is not pending (current status: %s)", ctx.ApplicationID, ctx.ApplicationStatus)
	}
	return GuardResult{Allowed: true}
}
