package primary

import (
	"context"
	"time"
)

// ApplicationService defines the primary port for task applications.
type ApplicationService interface {
	// Apply records a pending application to a pending task.
	Apply(ctx context.Context, req ApplyRequest) (*Application, error)

	// Accept accepts an application, making the applicant the task's worker
	// and moving the task to in_progress.
	Accept(ctx context.Context, req DecideApplicationRequest) (*Application, error)

	// Withdraw withdraws a pending application (applicant only).
	Withdraw(ctx context.Context, req DecideApplicationRequest) error

	// ListForTask lists applications to a task (poster only).
	ListForTask(ctx context.Context, taskID, actorID string) ([]*Application, error)
}

// ApplyRequest contains parameters for applying to a task.
type ApplyRequest struct {
	TaskID      string
	ApplicantID string
	Message     string
}

// DecideApplicationRequest identifies an application and the acting user.
type DecideApplicationRequest struct {
	ApplicationID string
	ActorID       string
}

// Application represents an application at the port boundary.
type Application struct {
	ID          string
	TaskID      string
	ApplicantID string
	Message     string
	Status      string
	CreatedAt   time.Time
	DecidedAt   *time.Time
}
