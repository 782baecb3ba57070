package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	taskRepo        secondary.TaskRepository
	applicationRepo secondary.ApplicationRepository
	logWriter       secondary.LogWriter
	dispatcher      *Dispatcher
	logger          *slog.Logger
	now             func() time.Time
}

// NewTaskService creates a new TaskService with injected dependencies.
func NewTaskService(
	taskRepo secondary.TaskRepository,
	applicationRepo secondary.ApplicationRepository,
	logWriter secondary.LogWriter,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) *TaskServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskServiceImpl{
		taskRepo:        taskRepo,
		applicationRepo: applicationRepo,
		logWriter:       logWriter,
		dispatcher:      dispatcher,
		logger:          logger,
		now:             time.Now,
	}
}

// CreateTask posts a new task in pending status.
func (s *TaskServiceImpl) CreateTask(ctx context.Context, req primary.CreateTaskRequest) (*primary.Task, error) {
	title := strings.TrimSpace(req.Title)

	guard := task.CanCreateTask(task.CreateTaskContext{
		PosterID: req.PosterID,
		Title:    title,
		Budget:   req.Budget,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	record := &secondary.TaskRecord{
		ID:          uuid.NewString(),
		PosterID:    req.PosterID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Budget:      req.Budget,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.taskRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	audit(ctx, s.logger, s.logWriter, func(w secondary.LogWriter) error {
		return w.LogCreate(ctx, "task", record.ID)
	})
	s.logger.Info("task created", "task_id", record.ID, "poster_id", record.PosterID)
	s.dispatcher.Publish(ctx, secondary.Event{Type: "task.created", TaskID: record.ID, ActorID: record.PosterID, At: record.CreatedAt})

	return s.GetTask(ctx, record.ID)
}

// GetTask retrieves a task by ID.
func (s *TaskServiceImpl) GetTask(ctx context.Context, taskID string) (*primary.Task, error) {
	record, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return recordToTask(record), nil
}

// ListTasks lists tasks with optional filters.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, filters primary.TaskFilters) ([]*primary.Task, error) {
	if filters.Status != "" && !task.IsValidStatus(filters.Status) {
		return nil, errs.New(errs.KindValidation, "unknown task status %q", filters.Status)
	}

	records, err := s.taskRepo.List(ctx, secondary.TaskFilters{
		PosterID: filters.PosterID,
		WorkerID: filters.WorkerID,
		Status:   filters.Status,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	tasks := make([]*primary.Task, len(records))
	for i, r := range records {
		tasks[i] = recordToTask(r)
	}
	return tasks, nil
}

// CancelTask cancels a pending or in_progress task. Confirmations already
// recorded are kept.
func (s *TaskServiceImpl) CancelTask(ctx context.Context, req primary.CancelTaskRequest) error {
	record, err := s.taskRepo.GetByID(ctx, req.TaskID)
	if err != nil {
		return err
	}

	guard := task.CanCancelTask(task.CancelTaskContext{
		TaskID:   req.TaskID,
		Status:   record.Status,
		PosterID: record.PosterID,
		ActorID:  req.ActorID,
	})
	if !guard.Allowed {
		return guard.Error()
	}

	at := s.now().UTC()
	if err := s.taskRepo.Cancel(ctx, req.TaskID, at); err != nil {
		return err
	}

	audit(ctx, s.logger, s.logWriter, func(w secondary.LogWriter) error {
		return w.LogUpdate(ctx, "task", req.TaskID, "status", record.Status, task.StatusCancelled)
	})
	s.logger.Info("task cancelled", "task_id", req.TaskID, "previous_status", record.Status)

	if record.Status == task.StatusInProgress {
		accepted, err := s.applicationRepo.GetAccepted(ctx, req.TaskID)
		if err == nil && accepted != nil {
			s.dispatcher.Notify(ctx, accepted.ApplicantID, "task-cancelled:"+req.TaskID,
				"Task cancelled: "+record.Title,
				"The poster cancelled the task \""+record.Title+"\".")
		}
	}
	s.dispatcher.Publish(ctx, secondary.Event{Type: "task.cancelled", TaskID: req.TaskID, ActorID: req.ActorID, At: at})

	return nil
}

func recordToTask(r *secondary.TaskRecord) *primary.Task {
	return &primary.Task{
		ID:                  r.ID,
		PosterID:            r.PosterID,
		Title:               r.Title,
		Description:         r.Description,
		Category:            r.Category,
		Budget:              r.Budget,
		Status:              r.Status,
		ConfirmedByPoster:   r.ConfirmedByPoster,
		ConfirmedByPosterAt: r.ConfirmedByPosterAt,
		ConfirmedByWorker:   r.ConfirmedByWorker,
		ConfirmedByWorkerAt: r.ConfirmedByWorkerAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		StartedAt:           r.StartedAt,
		CompletedAt:         r.CompletedAt,
		CancelledAt:         r.CancelledAt,
	}
}

// audit writes an activity log entry. Audit failures never fail the
// operation that produced them.
func audit(ctx context.Context, logger *slog.Logger, w secondary.LogWriter, write func(secondary.LogWriter) error) {
	if w == nil {
		return
	}
	if err := write(w); err != nil {
		logger.WarnContext(ctx, "activity log write failed", "error", err)
	}
}

// Ensure TaskServiceImpl implements the interface
var _ primary.TaskService = (*TaskServiceImpl)(nil)
