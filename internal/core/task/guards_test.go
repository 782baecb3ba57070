package task

import (
	"strings"
	"testing"

	"github.com/example/rabotim/internal/errs"
)

func TestCanCreateTask(t *testing.T) {
	tests := []struct {
		name        string
		ctx         CreateTaskContext
		wantAllowed bool
		wantKind    errs.Kind
	}{
		{
			name:        "can create task with title and budget",
			ctx:         CreateTaskContext{PosterID: "u-1", Title: "Боядисване на стая", Budget: 15000},
			wantAllowed: true,
		},
		{
			name:        "zero budget is allowed",
			ctx:         CreateTaskContext{PosterID: "u-1", Title: "Help me move", Budget: 0},
			wantAllowed: true,
		},
		{
			name:        "cannot create without poster",
			ctx:         CreateTaskContext{Title: "Help me move"},
			wantAllowed: false,
			wantKind:    errs.KindForbidden,
		},
		{
			name:        "cannot create with short title",
			ctx:         CreateTaskContext{PosterID: "u-1", Title: "  ab  "},
			wantAllowed: false,
			wantKind:    errs.KindValidation,
		},
		{
			name:        "cannot create with long title",
			ctx:         CreateTaskContext{PosterID: "u-1", Title: strings.Repeat("я", MaxTitleLength+1)},
			wantAllowed: false,
			wantKind:    errs.KindValidation,
		},
		{
			name:        "cannot create with negative budget",
			ctx:         CreateTaskContext{PosterID: "u-1", Title: "Help me move", Budget: -1},
			wantAllowed: false,
			wantKind:    errs.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanCreateTask(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (reason: %s)", result.Allowed, tt.wantAllowed, result.Reason)
			}
			if !tt.wantAllowed && result.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
			}
		})
	}
}

func TestCanCancelTask(t *testing.T) {
	tests := []struct {
		name        string
		ctx         CancelTaskContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "poster can cancel pending task",
			ctx:         CancelTaskContext{TaskID: "T1", Status: StatusPending, PosterID: "u-1", ActorID: "u-1"},
			wantAllowed: true,
		},
		{
			name:        "poster can cancel in_progress task",
			ctx:         CancelTaskContext{TaskID: "T1", Status: StatusInProgress, PosterID: "u-1", ActorID: "u-1"},
			wantAllowed: true,
		},
		{
			name:        "other user cannot cancel",
			ctx:         CancelTaskContext{TaskID: "T1", Status: StatusPending, PosterID: "u-1", ActorID: "u-2"},
			wantAllowed: false,
			wantReason:  "only the poster can cancel task T1",
		},
		{
			name:        "cannot cancel completed task",
			ctx:         CancelTaskContext{TaskID: "T1", Status: StatusCompleted, PosterID: "u-1", ActorID: "u-1"},
			wantAllowed: false,
			wantReason:  "can only cancel pending or in_progress tasks (current status: completed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanCancelTask(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestGuardResult_Error(t *testing.T) {
	t.Run("allowed result returns nil error", func(t *testing.T) {
		result := GuardResult{Allowed: true}
		if err := result.Error(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("not allowed result carries kind", func(t *testing.T) {
		result := GuardResult{Allowed: false, Reason: "test reason", Kind: errs.KindInvalidState}
		err := result.Error()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if err.Error() != "test reason" {
			t.Errorf("expected 'test reason', got %q", err.Error())
		}
		if errs.KindOf(err) != errs.KindInvalidState {
			t.Errorf("expected invalid_state kind, got %q", errs.KindOf(err))
		}
	})
}
