package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

func confirm(t *testing.T, e *testEnv, taskID, userID, party string) *primary.ConfirmCompletionResponse {
	t.Helper()
	resp, err := e.completion.ConfirmCompletion(context.Background(), primary.ConfirmCompletionRequest{
		TaskID: taskID, UserID: userID, Party: party,
	})
	if err != nil {
		t.Fatalf("ConfirmCompletion(%s, %s) failed: %v", taskID, userID, err)
	}
	return resp
}

// Poster confirms alone; the gate opens exactly seven days later.
func TestCompletionService_SoloConfirmationUnlocksAfterDelay(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.seedInProgress("T1")

	resp := confirm(t, e, "T1", "poster-1", "")
	if resp.CompletedNow || resp.Completed {
		t.Fatalf("expected task to stay open, got %+v", resp)
	}
	if resp.Phase != "awaiting_other" {
		t.Errorf("expected phase awaiting_other, got %s", resp.Phase)
	}

	before := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)
	got, err := e.completion.FeedbackEligibilityAt(ctx, "T1", "poster-1", before)
	if err != nil {
		t.Fatalf("FeedbackEligibilityAt failed: %v", err)
	}
	if got.Allowed {
		t.Error("expected feedback locked one second before the deadline")
	}
	wantUnlock := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	if got.UnlocksAt == nil || !got.UnlocksAt.Equal(wantUnlock) {
		t.Errorf("expected projected unlock %v, got %v", wantUnlock, got.UnlocksAt)
	}

	after := time.Date(2024, 1, 8, 0, 0, 1, 0, time.UTC)
	got, err = e.completion.FeedbackEligibilityAt(ctx, "T1", "poster-1", after)
	if err != nil {
		t.Fatalf("FeedbackEligibilityAt failed: %v", err)
	}
	if !got.Allowed || got.Basis != "timeout" {
		t.Errorf("expected allowed by timeout, got %+v", got)
	}

	worker, err := e.completion.FeedbackEligibilityAt(ctx, "T1", "worker-1", after)
	if err != nil {
		t.Fatalf("FeedbackEligibilityAt failed: %v", err)
	}
	if worker.Allowed || worker.UnlocksAt != nil {
		t.Errorf("expected worker locked without projection, got %+v", worker)
	}
}

// Both confirm five minutes apart; the second completes the task.
func TestCompletionService_BothConfirmCompletes(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.seedInProgress("T2")

	first := confirm(t, e, "T2", "poster-1", "")
	if first.Task.Status != "in_progress" {
		t.Errorf("expected in_progress after first confirmation, got %s", first.Task.Status)
	}

	e.setNow(epoch.Add(5 * time.Minute))
	second := confirm(t, e, "T2", "worker-1", "worker")
	if !second.CompletedNow || second.Task.Status != "completed" {
		t.Fatalf("expected completion, got %+v", second)
	}
	if second.Task.CompletedAt == nil || !second.Task.CompletedAt.Equal(epoch.Add(5*time.Minute)) {
		t.Errorf("expected completed_at at the second confirmation, got %v", second.Task.CompletedAt)
	}

	for _, user := range []string{"poster-1", "worker-1"} {
		got, err := e.completion.FeedbackEligibility(ctx, "T2", user)
		if err != nil {
			t.Fatalf("FeedbackEligibility(%s) failed: %v", user, err)
		}
		if !got.Allowed || got.Basis != "completed" {
			t.Errorf("expected %s allowed on completion, got %+v", user, got)
		}
	}

	e.dispatcher.Wait()
	wantKeys := []string{"confirm-requested:T2:worker", "task-completed:T2:poster", "task-completed:T2:worker"}
	if keys := e.notifier.keys(); !equalStrings(keys, wantKeys) {
		t.Errorf("expected notifications %v, got %v", wantKeys, keys)
	}
	if types := e.publisher.types(); len(types) != 2 {
		t.Errorf("expected two events, got %v", types)
	}
}

// The worker may not confirm on behalf of the poster.
func TestCompletionService_CannotConfirmForOtherParty(t *testing.T) {
	e := newTestEnv()
	e.seedInProgress("T3")

	_, err := e.completion.ConfirmCompletion(context.Background(), primary.ConfirmCompletionRequest{
		TaskID: "T3", UserID: "worker-1", Party: "poster",
	})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if e.tasks.confirms != 0 {
		t.Errorf("expected no store write, got %d", e.tasks.confirms)
	}
	task := e.tasks.tasks["T3"]
	if task.ConfirmedByPoster || task.ConfirmedByWorker {
		t.Error("expected no confirmation recorded")
	}
}

// Confirming a completed task again changes nothing.
func TestCompletionService_ReconfirmCompletedTaskIsNoop(t *testing.T) {
	e := newTestEnv()
	e.seedInProgress("T4")
	confirm(t, e, "T4", "poster-1", "")
	confirm(t, e, "T4", "worker-1", "")
	stamp := *e.tasks.tasks["T4"].ConfirmedByPosterAt
	writes := e.tasks.confirms

	e.setNow(epoch.Add(48 * time.Hour))
	resp := confirm(t, e, "T4", "poster-1", "")
	if !resp.AlreadyConfirmed || resp.CompletedNow || !resp.Completed {
		t.Errorf("expected already-confirmed no-op on completed task, got %+v", resp)
	}
	if e.tasks.confirms != writes {
		t.Error("expected no store write for a repeat confirmation")
	}
	if !e.tasks.tasks["T4"].ConfirmedByPosterAt.Equal(stamp) {
		t.Error("expected the original confirmation timestamp to be kept")
	}
}

func TestCompletionService_ConfirmIdempotent(t *testing.T) {
	e := newTestEnv()
	e.seedInProgress("T5")

	first := confirm(t, e, "T5", "worker-1", "")
	e.setNow(epoch.Add(time.Hour))
	second := confirm(t, e, "T5", "worker-1", "")

	if first.AlreadyConfirmed || !second.AlreadyConfirmed {
		t.Errorf("expected first to apply and second to be a no-op, got %v then %v", first.AlreadyConfirmed, second.AlreadyConfirmed)
	}
	if !second.Task.ConfirmedByWorkerAt.Equal(epoch) {
		t.Errorf("expected worker stamp %v, got %v", epoch, second.Task.ConfirmedByWorkerAt)
	}

	e.dispatcher.Wait()
	if keys := e.notifier.keys(); len(keys) != 1 {
		t.Errorf("expected a single reminder, got %v", keys)
	}
}

func TestCompletionService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(e *testEnv)
		req     primary.ConfirmCompletionRequest
		wantErr error
	}{
		{
			name:    "stranger",
			setup:   func(e *testEnv) { e.seedInProgress("T") },
			req:     primary.ConfirmCompletionRequest{TaskID: "T", UserID: "someone"},
			wantErr: errs.ErrForbidden,
		},
		{
			name:    "unknown task",
			setup:   func(e *testEnv) {},
			req:     primary.ConfirmCompletionRequest{TaskID: "missing", UserID: "poster-1"},
			wantErr: errs.ErrNotFound,
		},
		{
			name:    "bad party name",
			setup:   func(e *testEnv) { e.seedInProgress("T") },
			req:     primary.ConfirmCompletionRequest{TaskID: "T", UserID: "poster-1", Party: "admin"},
			wantErr: errs.ErrValidation,
		},
		{
			name: "cancelled task",
			setup: func(e *testEnv) {
				e.seedInProgress("T")
				e.tasks.tasks["T"].Status = "cancelled"
			},
			req:     primary.ConfirmCompletionRequest{TaskID: "T", UserID: "worker-1"},
			wantErr: errs.ErrInvalidState,
		},
		{
			name: "pending task has no worker",
			setup: func(e *testEnv) {
				e.tasks.tasks["T"] = newPendingTask("T")
			},
			req:     primary.ConfirmCompletionRequest{TaskID: "T", UserID: "poster-1"},
			wantErr: errs.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv()
			tt.setup(e)

			_, err := e.completion.ConfirmCompletion(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCompletionService_StoreFailureIsTransient(t *testing.T) {
	e := newTestEnv()
	e.seedInProgress("T")
	e.tasks.confirmErr = errs.Transient("failed to record confirmation", errors.New("disk I/O error"))

	_, err := e.completion.ConfirmCompletion(context.Background(), primary.ConfirmCompletionRequest{TaskID: "T", UserID: "poster-1"})
	if errs.KindOf(err) != errs.KindTransient {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestCompletionService_CompletionStatus(t *testing.T) {
	e := newTestEnv()
	e.seedInProgress("T")
	confirm(t, e, "T", "worker-1", "")

	status, err := e.completion.CompletionStatus(context.Background(), "T", "worker-1")
	if err != nil {
		t.Fatalf("CompletionStatus failed: %v", err)
	}
	if status.ViewerParty != "worker" || !status.ConfirmedByWorker || status.ConfirmedByPoster {
		t.Errorf("unexpected status %+v", status)
	}
	if status.Feedback.Allowed || status.Feedback.UnlocksAt == nil {
		t.Errorf("expected locked feedback with projection, got %+v", status.Feedback)
	}
	if !status.Feedback.UnlocksAt.Equal(epoch.Add(7 * 24 * time.Hour)) {
		t.Errorf("expected unlock seven days after confirmation, got %v", status.Feedback.UnlocksAt)
	}
}

func newPendingTask(id string) *secondary.TaskRecord {
	return &secondary.TaskRecord{ID: id, PosterID: "poster-1", Title: "Fix the sink", Status: "pending", CreatedAt: epoch}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
