package primary

import (
	"context"
	"time"
)

// TaskService defines the primary port for task lifecycle operations.
type TaskService interface {
	// CreateTask posts a new task in pending status.
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// ListTasks lists tasks with optional filters.
	ListTasks(ctx context.Context, filters TaskFilters) ([]*Task, error)

	// CancelTask cancels a pending or in_progress task (poster only).
	CancelTask(ctx context.Context, req CancelTaskRequest) error
}

// CreateTaskRequest contains parameters for posting a task.
type CreateTaskRequest struct {
	PosterID    string
	Title       string
	Description string
	Category    string
	Budget      int64 // stotinki
}

// CancelTaskRequest contains parameters for cancelling a task.
type CancelTaskRequest struct {
	TaskID  string
	ActorID string
}

// Task represents a task entity at the port boundary.
type Task struct {
	ID                  string
	PosterID            string
	Title               string
	Description         string
	Category            string
	Budget              int64
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

// TaskFilters contains filter options for listing tasks.
type TaskFilters struct {
	PosterID string
	WorkerID string
	Status   string
	Limit    int
}
