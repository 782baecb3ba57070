package completion

import (
	"fmt"
	"time"

	"github.com/example/rabotim/internal/core/task"
)

// FeedbackUnlockDelay is how long a confirming party waits for an
// unresponsive counterparty before feedback unlocks for them.
const FeedbackUnlockDelay = 7 * 24 * time.Hour

// FeedbackBasis names the rule that granted feedback permission.
type FeedbackBasis string

const (
	BasisNone      FeedbackBasis = ""
	BasisCompleted FeedbackBasis = "completed"
	BasisTimeout   FeedbackBasis = "timeout"
)

// FeedbackContext provides context for the feedback gate.
type FeedbackContext struct {
	TaskID       string
	Status       string
	Confirmation Confirmation
	Viewer       Party
	Now          time.Time
	UnlockAfter  time.Duration // zero means FeedbackUnlockDelay
}

// FeedbackDecision is the gate's answer for one viewer at one instant.
type FeedbackDecision struct {
	Allowed bool
	Basis   FeedbackBasis
	// UnlocksAt is set only when the viewer has confirmed and is waiting
	// out the delay.
	UnlocksAt time.Time
	Reason    string
}

// HasProjection reports whether a projected unlock time is available.
func (d FeedbackDecision) HasProjection() bool {
	return !d.UnlocksAt.IsZero()
}

// EvaluateFeedback decides whether the viewer may rate or review the
// counterparty. It is evaluated lazily on every read; nothing is scheduled.
// Rules, in order:
// - Completed tasks allow both parties
// - A viewer who confirmed while the other has not is allowed once the
//   delay has fully elapsed since the viewer's own confirmation
// - A viewer still inside the delay is denied with the projected unlock time
// - A viewer who has not confirmed is denied without a projection
func EvaluateFeedback(ctx FeedbackContext) FeedbackDecision {
	delay := ctx.UnlockAfter
	if delay <= 0 {
		delay = FeedbackUnlockDelay
	}

	if ctx.Status == task.StatusCompleted || ctx.Confirmation.Both() {
		return FeedbackDecision{Allowed: true, Basis: BasisCompleted}
	}

	at, ok := ctx.Confirmation.ConfirmedAt(ctx.Viewer)
	if !ok {
		return FeedbackDecision{
			Reason: fmt.Sprintf("confirm completion of task %s before leaving feedback", ctx.TaskID),
		}
	}

	unlock := at.Add(delay)
	if !ctx.Now.Before(unlock) {
		return FeedbackDecision{Allowed: true, Basis: BasisTimeout}
	}

	return FeedbackDecision{
		UnlocksAt: unlock,
		Reason: fmt.Sprintf("waiting for the %s to confirm task %s; feedback unlocks at %s",
			ctx.Viewer.Other(), ctx.TaskID, unlock.UTC().Format(time.RFC3339)),
	}
}
