package secondary

import (
	"context"
	"time"
)

// Notification is one outbound message to a user.
type Notification struct {
	To      string // email address
	Subject string
	Body    string
	// Key identifies the logical event (e.g. "task-completed:T1:poster").
	// The same key is delivered at most once.
	Key string
}

// Notifier delivers notifications. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationLedger remembers which notification keys were already sent.
type NotificationLedger interface {
	// MarkOnce records key and reports true if it was not recorded before.
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Event is a domain event broadcast to other services (search index,
// payouts) after a state change commits.
type Event struct {
	Type    string    `json:"type"` // e.g. "task.completed"
	TaskID  string    `json:"task_id"`
	ActorID string    `json:"actor_id,omitempty"`
	Party   string    `json:"party,omitempty"`
	At      time.Time `json:"at"`
}

// EventPublisher broadcasts domain events. Publishing is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}
