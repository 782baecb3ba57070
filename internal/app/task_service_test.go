package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
)

func TestTaskService_CreateTask(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	created, err := e.taskSvc.CreateTask(ctx, primary.CreateTaskRequest{
		PosterID:    "poster-1",
		Title:       "  Assemble wardrobe  ",
		Description: "IKEA PAX, two doors",
		Budget:      8000,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if created.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if created.Title != "Assemble wardrobe" {
		t.Errorf("expected trimmed title, got %q", created.Title)
	}
	if created.Status != "pending" {
		t.Errorf("expected status pending, got %s", created.Status)
	}
	if created.ConfirmedByPoster || created.ConfirmedByWorker {
		t.Error("expected a new task to have no confirmations")
	}
	if !created.CreatedAt.Equal(epoch) {
		t.Errorf("expected created_at %v, got %v", epoch, created.CreatedAt)
	}
	if len(e.logWriter.entries) != 1 || e.logWriter.entries[0] != "create task "+created.ID {
		t.Errorf("expected a create log entry, got %v", e.logWriter.entries)
	}

	e.dispatcher.Wait()
	if types := e.publisher.types(); len(types) != 1 || types[0] != "task.created" {
		t.Errorf("expected a task.created event, got %v", types)
	}
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     primary.CreateTaskRequest
		wantErr error
	}{
		{"anonymous", primary.CreateTaskRequest{Title: "Paint fence"}, errs.ErrForbidden},
		{"short title", primary.CreateTaskRequest{PosterID: "poster-1", Title: " ab "}, errs.ErrValidation},
		{"negative budget", primary.CreateTaskRequest{PosterID: "poster-1", Title: "Paint fence", Budget: -1}, errs.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv()
			_, err := e.taskSvc.CreateTask(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(e.tasks.tasks) != 0 {
				t.Error("expected nothing stored")
			}
		})
	}
}

func TestTaskService_ListTasks(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.seedInProgress("T1")
	e.tasks.tasks["T2"] = newPendingTask("T2")

	all, err := e.taskSvc.ListTasks(ctx, primary.TaskFilters{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(all))
	}

	pending, err := e.taskSvc.ListTasks(ctx, primary.TaskFilters{Status: "pending"})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "T2" {
		t.Errorf("expected only T2, got %v", pending)
	}

	if _, err := e.taskSvc.ListTasks(ctx, primary.TaskFilters{Status: "done"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestTaskService_CancelTask_KeepsConfirmations(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.seedInProgress("T1")
	confirm(t, e, "T1", "worker-1", "")

	if err := e.taskSvc.CancelTask(ctx, primary.CancelTaskRequest{TaskID: "T1", ActorID: "poster-1"}); err != nil {
		t.Fatalf("CancelTask failed: %v", err)
	}

	got := e.tasks.tasks["T1"]
	if got.Status != "cancelled" {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if !got.ConfirmedByWorker || got.ConfirmedByWorkerAt == nil {
		t.Error("expected the worker's confirmation to survive cancellation")
	}

	e.dispatcher.Wait()
	keys := e.notifier.keys()
	if !equalStrings(keys, []string{"confirm-requested:T1:poster", "task-cancelled:T1"}) {
		t.Errorf("unexpected notifications %v", keys)
	}
}

func TestTaskService_CancelTask_Rejections(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.seedInProgress("T1")

	err := e.taskSvc.CancelTask(ctx, primary.CancelTaskRequest{TaskID: "T1", ActorID: "worker-1"})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("expected forbidden for the worker, got %v", err)
	}

	e.tasks.tasks["T1"].Status = "completed"
	err = e.taskSvc.CancelTask(ctx, primary.CancelTaskRequest{TaskID: "T1", ActorID: "poster-1"})
	if !errors.Is(err, errs.ErrInvalidState) {
		t.Errorf("expected invalid state for a completed task, got %v", err)
	}

	err = e.taskSvc.CancelTask(ctx, primary.CancelTaskRequest{TaskID: "nope", ActorID: "poster-1"})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
