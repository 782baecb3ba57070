package app

import (
	"context"

	"github.com/example/rabotim/internal/core/completion"
	"github.com/example/rabotim/internal/ports/secondary"
)

// Participation is a user's standing on one task: the task, its accepted
// worker, the user's party and the confirmation state.
type Participation struct {
	UserID       string
	Task         *secondary.TaskRecord
	WorkerID     string
	Party        completion.Party
	Confirmation completion.Confirmation
}

// Counterparty returns the user ID of the other party.
func (p *Participation) Counterparty() string {
	if p.Party == completion.PartyPoster {
		return p.WorkerID
	}
	return p.Task.PosterID
}

// PartyResolver is the single place that decides whether a user is the
// poster or the worker of a task. Confirmation, the feedback gate and
// reviews all go through it.
type PartyResolver struct {
	taskRepo        secondary.TaskRepository
	applicationRepo secondary.ApplicationRepository
}

// NewPartyResolver creates a PartyResolver.
func NewPartyResolver(taskRepo secondary.TaskRepository, applicationRepo secondary.ApplicationRepository) *PartyResolver {
	return &PartyResolver{taskRepo: taskRepo, applicationRepo: applicationRepo}
}

// Resolve loads the task and classifies userID. Users who are neither the
// poster nor the accepted worker get a Forbidden error.
func (r *PartyResolver) Resolve(ctx context.Context, taskID, userID string) (*Participation, error) {
	task, err := r.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	accepted, err := r.applicationRepo.GetAccepted(ctx, taskID)
	if err != nil {
		return nil, err
	}
	workerID := ""
	if accepted != nil {
		workerID = accepted.ApplicantID
	}

	party, guard := completion.ResolveParty(completion.RoleContext{
		TaskID:   taskID,
		UserID:   userID,
		PosterID: task.PosterID,
		WorkerID: workerID,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	conf, err := confirmationOf(task)
	if err != nil {
		return nil, err
	}

	return &Participation{UserID: userID, Task: task, WorkerID: workerID, Party: party, Confirmation: conf}, nil
}

func confirmationOf(t *secondary.TaskRecord) (completion.Confirmation, error) {
	return completion.ConfirmationFromFlags(t.ConfirmedByPoster, t.ConfirmedByPosterAt, t.ConfirmedByWorker, t.ConfirmedByWorkerAt)
}
