// Package completion contains the pure business logic of the bilateral
// completion confirmation and the feedback gate that depends on it.
package completion

import (
	"fmt"
	"time"

	"github.com/example/rabotim/internal/errs"
)

// Party is a user's role relative to a task.
type Party string

const (
	PartyPoster Party = "poster"
	PartyWorker Party = "worker"
)

// Other returns the counterparty.
func (p Party) Other() Party {
	if p == PartyPoster {
		return PartyWorker
	}
	return PartyPoster
}

// Valid reports whether p is poster or worker.
func (p Party) Valid() bool {
	return p == PartyPoster || p == PartyWorker
}

// ParseParty parses "poster" or "worker". The empty string parses to the
// empty party, meaning "not specified".
func ParseParty(s string) (Party, error) {
	switch Party(s) {
	case "", PartyPoster, PartyWorker:
		return Party(s), nil
	}
	return "", errs.New(errs.KindValidation, "unknown party %q (want poster or worker)", s)
}

// Phase is the task-level view of the confirmation state machine.
type Phase string

const (
	PhaseAwaitingBoth  Phase = "awaiting_both"
	PhaseAwaitingOther Phase = "awaiting_other"
	PhaseCompleted     Phase = "completed"
)

// Confirmation holds both parties' confirmation stamps. A party has confirmed
// exactly when its stamp is non-zero, so a flag without a stamp (or the
// reverse) cannot be expressed. The zero value is AwaitingBoth.
type Confirmation struct {
	posterAt time.Time
	workerAt time.Time
}

// NewConfirmation builds a confirmation from optional stamps.
func NewConfirmation(posterAt, workerAt *time.Time) Confirmation {
	var c Confirmation
	if posterAt != nil {
		c.posterAt = posterAt.UTC()
	}
	if workerAt != nil {
		c.workerAt = workerAt.UTC()
	}
	return c
}

// ConfirmationFromFlags rebuilds a confirmation from the stored
// boolean/timestamp pairs and rejects records where they disagree.
func ConfirmationFromFlags(posterConfirmed bool, posterAt *time.Time, workerConfirmed bool, workerAt *time.Time) (Confirmation, error) {
	if posterConfirmed != (posterAt != nil) {
		return Confirmation{}, fmt.Errorf("poster confirmation flag %v disagrees with timestamp: %w", posterConfirmed, errs.ErrInvalidState)
	}
	if workerConfirmed != (workerAt != nil) {
		return Confirmation{}, fmt.Errorf("worker confirmation flag %v disagrees with timestamp: %w", workerConfirmed, errs.ErrInvalidState)
	}
	return NewConfirmation(posterAt, workerAt), nil
}

// Confirmed reports whether p has confirmed.
func (c Confirmation) Confirmed(p Party) bool {
	_, ok := c.ConfirmedAt(p)
	return ok
}

// ConfirmedAt returns p's confirmation time.
func (c Confirmation) ConfirmedAt(p Party) (time.Time, bool) {
	var at time.Time
	switch p {
	case PartyPoster:
		at = c.posterAt
	case PartyWorker:
		at = c.workerAt
	}
	return at, !at.IsZero()
}

// Both reports whether both parties have confirmed.
func (c Confirmation) Both() bool {
	return c.Confirmed(PartyPoster) && c.Confirmed(PartyWorker)
}

// Phase derives the state machine position.
func (c Confirmation) Phase() Phase {
	switch {
	case c.Both():
		return PhaseCompleted
	case c.Confirmed(PartyPoster) || c.Confirmed(PartyWorker):
		return PhaseAwaitingOther
	default:
		return PhaseAwaitingBoth
	}
}

// Waiting returns the party that confirmed while in PhaseAwaitingOther.
func (c Confirmation) Waiting() (Party, time.Time, bool) {
	if c.Phase() != PhaseAwaitingOther {
		return "", time.Time{}, false
	}
	if at, ok := c.ConfirmedAt(PartyPoster); ok {
		return PartyPoster, at, true
	}
	at, _ := c.ConfirmedAt(PartyWorker)
	return PartyWorker, at, true
}

// With returns c with p confirmed at the given time. An existing stamp is
// never overwritten.
func (c Confirmation) With(p Party, at time.Time) Confirmation {
	if c.Confirmed(p) {
		return c
	}
	switch p {
	case PartyPoster:
		c.posterAt = at.UTC()
	case PartyWorker:
		c.workerAt = at.UTC()
	}
	return c
}

// Stamp returns p's stamp as a pointer for persistence (nil if unconfirmed).
func (c Confirmation) Stamp(p Party) *time.Time {
	at, ok := c.ConfirmedAt(p)
	if !ok {
		return nil
	}
	return &at
}

func (c Confirmation) String() string {
	switch c.Phase() {
	case PhaseCompleted:
		return "confirmed by both"
	case PhaseAwaitingOther:
		p, at, _ := c.Waiting()
		return fmt.Sprintf("confirmed by %s at %s", p, at.Format(time.RFC3339))
	default:
		return "unconfirmed"
	}
}
