package application

import (
	"testing"

	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
)

func TestCanApply(t *testing.T) {
	tests := []struct {
		name     string
		ctx      ApplyContext
		wantKind errs.Kind
	}{
		{
			name: "can apply to pending task",
			ctx:  ApplyContext{TaskID: "T1", TaskStatus: task.StatusPending, PosterID: "u-1", ApplicantID: "u-2"},
		},
		{
			name:     "poster cannot apply",
			ctx:      ApplyContext{TaskID: "T1", TaskStatus: task.StatusPending, PosterID: "u-1", ApplicantID: "u-1"},
			wantKind: errs.KindForbidden,
		},
		{
			name:     "anonymous cannot apply",
			ctx:      ApplyContext{TaskID: "T1", TaskStatus: task.StatusPending, PosterID: "u-1"},
			wantKind: errs.KindForbidden,
		},
		{
			name:     "in_progress task is closed",
			ctx:      ApplyContext{TaskID: "T1", TaskStatus: task.StatusInProgress, PosterID: "u-1", ApplicantID: "u-2"},
			wantKind: errs.KindInvalidState,
		},
		{
			name:     "duplicate application",
			ctx:      ApplyContext{TaskID: "T1", TaskStatus: task.StatusPending, PosterID: "u-1", ApplicantID: "u-2", AlreadyApplied: true},
			wantKind: errs.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanApply(tt.ctx)
			if tt.wantKind == "" {
				if !result.Allowed {
					t.Fatalf("unexpected denial: %s", result.Reason)
				}
				return
			}
			if result.Allowed {
				t.Fatal("expected denial")
			}
			if result.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
			}
		})
	}
}

func TestCanAccept(t *testing.T) {
	base := AcceptContext{
		TaskID:            "T1",
		TaskStatus:        task.StatusPending,
		PosterID:          "u-1",
		ActorID:           "u-1",
		ApplicationID:     "A1",
		ApplicationStatus: StatusPending,
	}

	tests := []struct {
		name       string
		mutate     func(*AcceptContext)
		wantKind   errs.Kind
		wantReason string
	}{
		{name: "poster accepts pending application", mutate: func(*AcceptContext) {}},
		{
			name:       "non-poster",
			mutate:     func(c *AcceptContext) { c.ActorID = "u-2" },
			wantKind:   errs.KindForbidden,
			wantReason: "only the poster of task T1 can accept applications",
		},
		{
			name:       "already has worker",
			mutate:     func(c *AcceptContext) { c.HasAcceptedWorker = true },
			wantKind:   errs.KindInvalidState,
			wantReason: "task T1 already has an accepted worker",
		},
		{
			name:       "withdrawn application",
			mutate:     func(c *AcceptContext) { c.ApplicationStatus = StatusWithdrawn },
			wantKind:   errs.KindInvalidState,
			wantReason: "application A1 is not pending (current status: withdrawn)",
		},
		{
			name:       "cancelled task",
			mutate:     func(c *AcceptContext) { c.TaskStatus = task.StatusCancelled },
			wantKind:   errs.KindInvalidState,
			wantReason: "task T1 is not pending (current status: cancelled)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := base
			tt.mutate(&ctx)
			result := CanAccept(ctx)
			if tt.wantKind == "" {
				if !result.Allowed {
					t.Fatalf("unexpected denial: %s", result.Reason)
				}
				return
			}
			if result.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanWithdraw(t *testing.T) {
	if r := CanWithdraw(WithdrawContext{ApplicationID: "A1", ApplicationStatus: StatusPending, ApplicantID: "u-2", ActorID: "u-2"}); !r.Allowed {
		t.Errorf("expected allowed, got %s", r.Reason)
	}
	if r := CanWithdraw(WithdrawContext{ApplicationID: "A1", ApplicationStatus: StatusPending, ApplicantID: "u-2", ActorID: "u-3"}); r.Kind != errs.KindForbidden {
		t.Errorf("expected forbidden, got %q", r.Kind)
	}
	if r := CanWithdraw(WithdrawContext{ApplicationID: "A1", ApplicationStatus: StatusAccepted, ApplicantID: "u-2", ActorID: "u-2"}); r.Kind != errs.KindInvalidState {
		t.Errorf("expected invalid_state, got %q", r.Kind)
	}
}
