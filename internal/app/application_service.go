package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/rabotim/internal/core/application"
	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ApplicationServiceImpl implements the ApplicationService interface.
type ApplicationServiceImpl struct {
	taskRepo        secondary.TaskRepository
	applicationRepo secondary.ApplicationRepository
	logWriter       secondary.LogWriter
	dispatcher      *Dispatcher
	logger          *slog.Logger
	now             func() time.Time
}

// NewApplicationService creates a new ApplicationService with injected dependencies.
func NewApplicationService(
	taskRepo secondary.TaskRepository,
	applicationRepo secondary.ApplicationRepository,
	logWriter secondary.LogWriter,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) *ApplicationServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationServiceImpl{
		taskRepo:        taskRepo,
		applicationRepo: applicationRepo,
		logWriter:       logWriter,
		dispatcher:      dispatcher,
		logger:          logger,
		now:             time.Now,
	}
}

// Apply records a pending application to a pending task.
func (s *ApplicationServiceImpl) Apply(ctx context.Context, req primary.ApplyRequest) (*primary.Application, error) {
	t, err := s.taskRepo.GetByID(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	applied, err := s.applicationRepo.Exists(ctx, req.TaskID, req.ApplicantID)
	if err != nil {
		return nil, err
	}

	guard := application.CanApply(application.ApplyContext{
		TaskID:         req.TaskID,
		TaskStatus:     t.Status,
		PosterID:       t.PosterID,
		ApplicantID:    req.ApplicantID,
		AlreadyApplied: applied,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	record := &secondary.ApplicationRecord{
		ID:          uuid.NewString(),
		TaskID:      req.TaskID,
		ApplicantID: req.ApplicantID,
		Message:     strings.TrimSpace(req.Message),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.applicationRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	audit(ctx, s.logger, s.logWriter, func(w secondary.LogWriter) error {
		return w.LogCreate(ctx, "application", record.ID)
	})
	s.logger.Info("application created", "application_id", record.ID, "task_id", req.TaskID)
	s.dispatcher.Notify(ctx, t.PosterID, "application-received:"+record.ID,
		"New application: "+t.Title,
		"Someone applied to your task \""+t.Title+"\".")

	created, err := s.applicationRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return recordToApplication(created), nil
}

// Accept makes the applicant the task's worker and starts the task.
func (s *ApplicationServiceImpl) Accept(ctx context.Context, req primary.DecideApplicationRequest) (*primary.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	t, err := s.taskRepo.GetByID(ctx, app.TaskID)
	if err != nil {
		return nil, err
	}
	accepted, err := s.applicationRepo.GetAccepted(ctx, app.TaskID)
	if err != nil {
		return nil, err
	}

	guard := application.CanAccept(application.AcceptContext{
		TaskID:            app.TaskID,
		TaskStatus:        t.Status,
		PosterID:          t.PosterID,
		ActorID:           req.ActorID,
		ApplicationID:     app.ID,
		ApplicationStatus: app.Status,
		HasAcceptedWorker: accepted != nil,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	at := s.now().UTC()
	if err := s.applicationRepo.Accept(ctx, app.ID, at); err != nil {
		return nil, err
	}

	audit(ctx, s.logger, s.logWriter, func(w secondary.LogWriter) error {
		if err := w.LogUpdate(ctx, "application", app.ID, "status", app.Status, application.StatusAccepted); err != nil {
			return err
		}
		return w.LogUpdate(ctx, "task", app.TaskID, "status", t.Status, task.StatusInProgress)
	})
	s.logger.Info("application accepted", "application_id", app.ID, "task_id", app.TaskID, "worker_id", app.ApplicantID)
	s.dispatcher.Notify(ctx, app.ApplicantID, "application-accepted:"+app.ID,
		"You got the task: "+t.Title,
		"Your application for \""+t.Title+"\" was accepted. Confirm completion when the work is done.")
	s.dispatcher.Publish(ctx, secondary.Event{Type: "task.started", TaskID: app.TaskID, ActorID: req.ActorID, At: at})

	updated, err := s.applicationRepo.GetByID(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	return recordToApplication(updated), nil
}

// Withdraw withdraws a pending application.
func (s *ApplicationServiceImpl) Withdraw(ctx context.Context, req primary.DecideApplicationRequest) error {
	app, err := s.applicationRepo.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return err
	}

	guard := application.CanWithdraw(application.WithdrawContext{
		ApplicationID:     app.ID,
		ApplicationStatus: app.Status,
		ApplicantID:       app.ApplicantID,
		ActorID:           req.ActorID,
	})
	if !guard.Allowed {
		return guard.Error()
	}

	if err := s.applicationRepo.Withdraw(ctx, app.ID, s.now().UTC()); err != nil {
		return err
	}

	audit(ctx, s.logger, s.logWriter, func(w secondary.LogWriter) error {
		return w.LogUpdate(ctx, "application", app.ID, "status", app.Status, application.StatusWithdrawn)
	})
	return nil
}

// ListForTask lists applications to a task. Only the poster may see them.
func (s *ApplicationServiceImpl) ListForTask(ctx context.Context, taskID, actorID string) ([]*primary.Application, error) {
	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.PosterID != actorID {
		return nil, errs.New(errs.KindForbidden, "only the poster of task %s can list its applications", taskID)
	}

	records, err := s.applicationRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	apps := make([]*primary.Application, len(records))
	for i, r := range records {
		apps[i] = recordToApplication(r)
	}
	return apps, nil
}

func recordToApplication(r *secondary.ApplicationRecord) *primary.Application {
	return &primary.Application{
		ID:          r.ID,
		TaskID:      r.TaskID,
		ApplicantID: r.ApplicantID,
		Message:     r.Message,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		DecidedAt:   r.DecidedAt,
	}
}

// Ensure ApplicationServiceImpl implements the interface
var _ primary.ApplicationService = (*ApplicationServiceImpl)(nil)
