package primary

import (
	"context"
	"time"
)

// CompletionService defines the primary port for the bilateral completion
// confirmation and the feedback gate.
type CompletionService interface {
	// ConfirmCompletion records that the acting user's party considers the
	// task finished. Repeating it is a no-op.
	ConfirmCompletion(ctx context.Context, req ConfirmCompletionRequest) (*ConfirmCompletionResponse, error)

	// CompletionStatus returns the confirmation state as seen by a party.
	CompletionStatus(ctx context.Context, taskID, userID string) (*CompletionStatus, error)

	// FeedbackEligibility answers whether the user may currently rate or
	// review the counterparty on this task.
	FeedbackEligibility(ctx context.Context, taskID, userID string) (*FeedbackEligibility, error)

	// FeedbackEligibilityAt evaluates the gate at a given instant instead
	// of now.
	FeedbackEligibilityAt(ctx context.Context, taskID, userID string, at time.Time) (*FeedbackEligibility, error)
}

// ConfirmCompletionRequest contains parameters for a confirmation.
type ConfirmCompletionRequest struct {
	TaskID string
	UserID string
	// Party optionally names the role being confirmed ("poster" or
	// "worker"). It must match the user's actual role.
	Party string
}

// ConfirmCompletionResponse contains the result of a confirmation.
type ConfirmCompletionResponse struct {
	Task  *Task
	Party string
	Phase string
	// Completed is true when both parties have confirmed.
	Completed bool
	// AlreadyConfirmed is true when the call changed nothing.
	AlreadyConfirmed bool
	// CompletedNow is true when this call completed the task.
	CompletedNow bool
}

// CompletionStatus is the confirmation state of a task for one viewer.
type CompletionStatus struct {
	TaskID              string
	Status              string
	Phase               string
	ViewerParty         string
	ConfirmedByPoster   bool
	ConfirmedByPosterAt *time.Time
	ConfirmedByWorker   bool
	ConfirmedByWorkerAt *time.Time
	Feedback            FeedbackEligibility
}

// FeedbackEligibility is the feedback gate's decision.
type FeedbackEligibility struct {
	TaskID  string
	Party   string
	Allowed bool
	Basis   string // "completed", "timeout" or empty
	// UnlocksAt is the projected unlock time when the viewer has confirmed
	// and is waiting out the delay.
	UnlocksAt *time.Time
	Reason    string
}
