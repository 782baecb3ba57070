package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/rabotim/internal/core/completion"
	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

// CompletionServiceImpl implements the CompletionService interface.
type CompletionServiceImpl struct {
	taskRepo    secondary.TaskRepository
	resolver    *PartyResolver
	logWriter   secondary.LogWriter
	dispatcher  *Dispatcher
	logger      *slog.Logger
	unlockAfter time.Duration
	now         func() time.Time
}

// NewCompletionService creates a new CompletionService. A non-positive
// unlockAfter selects completion.FeedbackUnlockDelay.
func NewCompletionService(
	taskRepo secondary.TaskRepository,
	resolver *PartyResolver,
	logWriter secondary.LogWriter,
	dispatcher *Dispatcher,
	logger *slog.Logger,
	unlockAfter time.Duration,
) *CompletionServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	if unlockAfter <= 0 {
		unlockAfter = completion.FeedbackUnlockDelay
	}
	return &CompletionServiceImpl{
		taskRepo:    taskRepo,
		resolver:    resolver,
		logWriter:   logWriter,
		dispatcher:  dispatcher,
		logger:      logger,
		unlockAfter: unlockAfter,
		now:         time.Now,
	}
}

// ConfirmCompletion records the acting user's confirmation. Repeating it
// returns the current state unchanged.
func (s *CompletionServiceImpl) ConfirmCompletion(ctx context.Context, req primary.ConfirmCompletionRequest) (*primary.ConfirmCompletionResponse, error) {
	requested, err := completion.ParseParty(req.Party)
	if err != nil {
		return nil, err
	}

	p, err := s.resolver.Resolve(ctx, req.TaskID, req.UserID)
	if err != nil {
		return nil, err
	}

	noop, guard := completion.CanConfirm(completion.ConfirmContext{
		TaskID:         req.TaskID,
		Status:         p.Task.Status,
		Confirmation:   p.Confirmation,
		Party:          p.Party,
		RequestedParty: requested,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}
	if noop {
		return confirmResponse(p.Task, p.Party, p.Confirmation, false, false), nil
	}

	outcome, err := s.taskRepo.ConfirmParty(ctx, req.TaskID, string(p.Party), s.now().UTC())
	if err != nil {
		return nil, err
	}

	conf, err := confirmationOf(outcome.Task)
	if err != nil {
		return nil, err
	}

	if outcome.Applied {
		s.afterConfirm(ctx, p, outcome, conf)
	}

	return confirmResponse(outcome.Task, p.Party, conf, outcome.Applied, outcome.CompletedNow), nil
}

// afterConfirm writes the audit trail and notifies the parties of an
// applied confirmation.
func (s *CompletionServiceImpl) afterConfirm(ctx context.Context, p *Participation, outcome *secondary.ConfirmOutcome, conf completion.Confirmation) {
	t := outcome.Task
	at, _ := conf.ConfirmedAt(p.Party)

	audit(ctx, s.logger, s.logWriter, func(w secondary.LogWriter) error {
		if err := w.LogUpdate(ctx, "task", t.ID, "confirmed_by_"+string(p.Party), "false", "true"); err != nil {
			return err
		}
		if outcome.CompletedNow {
			return w.LogUpdate(ctx, "task", t.ID, "status", task.StatusInProgress, task.StatusCompleted)
		}
		return nil
	})
	s.logger.Info("completion confirmed", "task_id", t.ID, "party", p.Party, "phase", conf.Phase())

	if outcome.CompletedNow {
		s.logger.Info("task completed", "task_id", t.ID)
		for _, party := range []completion.Party{completion.PartyPoster, completion.PartyWorker} {
			userID := t.PosterID
			if party == completion.PartyWorker {
				userID = p.WorkerID
			}
			s.dispatcher.Notify(ctx, userID, "task-completed:"+t.ID+":"+string(party),
				"Task completed: "+t.Title,
				"Both sides confirmed \""+t.Title+"\". You can now leave feedback.")
		}
		s.dispatcher.Publish(ctx, secondary.Event{Type: "task.completed", TaskID: t.ID, ActorID: p.UserID, Party: string(p.Party), At: at})
		return
	}

	other := p.Party.Other()
	s.dispatcher.Notify(ctx, p.Counterparty(), "confirm-requested:"+t.ID+":"+string(other),
		"Please confirm: "+t.Title,
		fmt.Sprintf("The %s marked \"%s\" as done. Confirm completion, or feedback unlocks for them on %s.",
			p.Party, t.Title, at.Add(s.unlockAfter).Format("2 Jan 2006 15:04 MST")))
	s.dispatcher.Publish(ctx, secondary.Event{Type: "task.confirmed", TaskID: t.ID, ActorID: p.UserID, Party: string(p.Party), At: at})
}

func confirmResponse(t *secondary.TaskRecord, party completion.Party, conf completion.Confirmation, applied, completedNow bool) *primary.ConfirmCompletionResponse {
	return &primary.ConfirmCompletionResponse{
		Task:             recordToTask(t),
		Party:            string(party),
		Phase:            string(conf.Phase()),
		Completed:        t.Status == task.StatusCompleted || conf.Both(),
		AlreadyConfirmed: !applied,
		CompletedNow:     completedNow,
	}
}

// CompletionStatus returns the confirmation state as seen by a party.
func (s *CompletionServiceImpl) CompletionStatus(ctx context.Context, taskID, userID string) (*primary.CompletionStatus, error) {
	p, err := s.resolver.Resolve(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	return &primary.CompletionStatus{
		TaskID:              taskID,
		Status:              p.Task.Status,
		Phase:               string(p.Confirmation.Phase()),
		ViewerParty:         string(p.Party),
		ConfirmedByPoster:   p.Confirmation.Confirmed(completion.PartyPoster),
		ConfirmedByPosterAt: p.Confirmation.Stamp(completion.PartyPoster),
		ConfirmedByWorker:   p.Confirmation.Confirmed(completion.PartyWorker),
		ConfirmedByWorkerAt: p.Confirmation.Stamp(completion.PartyWorker),
		Feedback:            s.eligibility(p, s.now()),
	}, nil
}

// FeedbackEligibility answers whether the user may currently leave
// feedback on this task.
func (s *CompletionServiceImpl) FeedbackEligibility(ctx context.Context, taskID, userID string) (*primary.FeedbackEligibility, error) {
	return s.FeedbackEligibilityAt(ctx, taskID, userID, s.now())
}

// FeedbackEligibilityAt evaluates the gate at a given instant. The CLI
// uses it to answer "what if" questions.
func (s *CompletionServiceImpl) FeedbackEligibilityAt(ctx context.Context, taskID, userID string, at time.Time) (*primary.FeedbackEligibility, error) {
	if at.IsZero() {
		return nil, errs.New(errs.KindValidation, "evaluation time is required")
	}

	p, err := s.resolver.Resolve(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	e := s.eligibility(p, at)
	return &e, nil
}

func (s *CompletionServiceImpl) eligibility(p *Participation, at time.Time) primary.FeedbackEligibility {
	d := completion.EvaluateFeedback(completion.FeedbackContext{
		TaskID:       p.Task.ID,
		Status:       p.Task.Status,
		Confirmation: p.Confirmation,
		Viewer:       p.Party,
		Now:          at,
		UnlockAfter:  s.unlockAfter,
	})
	return decisionToEligibility(p.Task.ID, p.Party, d)
}

func decisionToEligibility(taskID string, party completion.Party, d completion.FeedbackDecision) primary.FeedbackEligibility {
	e := primary.FeedbackEligibility{
		TaskID:  taskID,
		Party:   string(party),
		Allowed: d.Allowed,
		Basis:   string(d.Basis),
		Reason:  d.Reason,
	}
	if d.HasProjection() {
		u := d.UnlocksAt.UTC()
		e.UnlocksAt = &u
	}
	return e
}

// UnlockAfter reports the configured feedback delay.
func (s *CompletionServiceImpl) UnlockAfter() time.Duration {
	return s.unlockAfter
}

// Ensure CompletionServiceImpl implements the interface
var _ primary.CompletionService = (*CompletionServiceImpl)(nil)
