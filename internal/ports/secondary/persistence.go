// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// TaskRepository defines the secondary port for task persistence.
type TaskRepository interface {
	// Create persists a new task in pending status.
	Create(ctx context.Context, task *TaskRecord) error

	// GetByID retrieves a task by its ID.
	GetByID(ctx context.Context, id string) (*TaskRecord, error)

	// List retrieves tasks matching the given filters.
	List(ctx context.Context, filters TaskFilters) ([]*TaskRecord, error)

	// Cancel moves a pending or in_progress task to cancelled.
	// Confirmation fields are left untouched.
	Cancel(ctx context.Context, id string, at time.Time) error

	// ConfirmParty sets one party's confirmation flag and stamp if unset and
	// the task is in_progress, then flips the task to completed when both
	// flags are set. Both writes happen in one transaction so concurrent
	// confirmations cannot lose the completion.
	ConfirmParty(ctx context.Context, id, party string, at time.Time) (*ConfirmOutcome, error)
}

// TaskRecord represents a task as stored in persistence.
type TaskRecord struct {
	ID                  string
	PosterID            string
	Title               string
	Description         string // Empty string means null
	Category            string // Empty string means null
	Budget              int64  // stotinki
	Status              string
	ConfirmedByPoster   bool
	ConfirmedByPosterAt *time.Time
	ConfirmedByWorker   bool
	ConfirmedByWorkerAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	StartedAt           *time.Time
	CompletedAt         *time.Time
	CancelledAt         *time.Time
}

// TaskFilters contains filter options for querying tasks.
type TaskFilters struct {
	PosterID string
	WorkerID string // accepted applicant
	Status   string
	Limit    int
}

// ConfirmOutcome reports what ConfirmParty changed.
type ConfirmOutcome struct {
	Task *TaskRecord // state after the transaction
	// Applied is true when this call set the party's flag.
	Applied bool
	// CompletedNow is true for exactly one call per task: the one whose
	// confirmation made both flags true.
	CompletedNow bool
}

// ApplicationRepository defines the secondary port for task applications.
type ApplicationRepository interface {
	// Create persists a new pending application.
	Create(ctx context.Context, app *ApplicationRecord) error

	// GetByID retrieves an application by its ID.
	GetByID(ctx context.Context, id string) (*ApplicationRecord, error)

	// ListByTask retrieves all applications for a task, oldest first.
	ListByTask(ctx context.Context, taskID string) ([]*ApplicationRecord, error)

	// GetAccepted returns the accepted application of a task, or nil.
	GetAccepted(ctx context.Context, taskID string) (*ApplicationRecord, error)

	// Exists checks whether the applicant already applied to the task.
	Exists(ctx context.Context, taskID, applicantID string) (bool, error)

	// Accept marks the application accepted, rejects the other pending
	// applications of the task and moves the task to in_progress, atomically.
	Accept(ctx context.Context, id string, at time.Time) error

	// Withdraw marks a pending application withdrawn.
	Withdraw(ctx context.Context, id string, at time.Time) error
}

// ApplicationRecord represents an application as stored in persistence.
type ApplicationRecord struct {
	ID          string
	TaskID      string
	ApplicantID string
	Message     string // Empty string means null
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DecidedAt   *time.Time
}

// ReviewRepository defines the secondary port for ratings and reviews.
type ReviewRepository interface {
	// Create persists a review. A second review by the same reviewer for the
	// same task fails with a conflict.
	Create(ctx context.Context, review *ReviewRecord) error

	// Exists checks whether the reviewer already reviewed the task.
	Exists(ctx context.Context, taskID, reviewerID string) (bool, error)

	// ListForUser retrieves reviews received by a user, newest first.
	ListForUser(ctx context.Context, revieweeID string) ([]*ReviewRecord, error)

	// ListForTask retrieves reviews left on a task.
	ListForTask(ctx context.Context, taskID string) ([]*ReviewRecord, error)
}

// ReviewRecord represents a review as stored in persistence.
type ReviewRecord struct {
	ID            string
	TaskID        string
	ReviewerID    string
	RevieweeID    string
	ReviewerParty string // poster or worker
	Score         int
	Text          string // Empty string means null
	CreatedAt     time.Time
}

// ProfileRepository defines the secondary port for user profiles mirrored
// from the identity provider.
type ProfileRepository interface {
	// Upsert creates or updates a profile.
	Upsert(ctx context.Context, profile *ProfileRecord) error

	// GetByID retrieves a profile by user ID.
	GetByID(ctx context.Context, id string) (*ProfileRecord, error)
}

// ProfileRecord represents a user profile.
type ProfileRecord struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FeedbackChecker is implemented by stores that evaluate feedback
// eligibility themselves (a database function), for cross-checking.
type FeedbackChecker interface {
	FeedbackAllowed(ctx context.Context, taskID, userID string) (bool, error)
}
