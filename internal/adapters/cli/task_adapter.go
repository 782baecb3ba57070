// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// TaskAdapter translates CLI operations to TaskService and
// CompletionService calls.
type TaskAdapter struct {
	tasks      primary.TaskService
	completion primary.CompletionService
	checker    secondary.FeedbackChecker // nil when the store has no gate function
	out        io.Writer
}

// NewTaskAdapter creates a new TaskAdapter. checker may be nil.
func NewTaskAdapter(tasks primary.TaskService, completion primary.CompletionService, checker secondary.FeedbackChecker, out io.Writer) *TaskAdapter {
	return &TaskAdapter{tasks: tasks, completion: completion, checker: checker, out: out}
}

// Create posts a new task.
func (a *TaskAdapter) Create(ctx context.Context, req primary.CreateTaskRequest) error {
	t, err := a.tasks.CreateTask(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Created task %s: %s\n", green("✓"), t.ID, t.Title)
	return nil
}

// List lists tasks.
func (a *TaskAdapter) List(ctx context.Context, filters primary.TaskFilters) error {
	tasks, err := a.tasks.ListTasks(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-12s %-7s %s\n", "ID", "STATUS", "CONF", "TITLE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for _, t := range tasks {
		fmt.Fprintf(a.out, "%-36s %-12s %-7s %s\n", t.ID, t.Status, confirmMarks(t), t.Title)
	}
	fmt.Fprintln(a.out)
	return nil
}

// confirmMarks renders the poster and worker flags as P/W.
func confirmMarks(t *primary.Task) string {
	p, w := "-", "-"
	if t.ConfirmedByPoster {
		p = "P"
	}
	if t.ConfirmedByWorker {
		w = "W"
	}
	return p + w
}

// Show displays a task and, for its parties, the completion state.
func (a *TaskAdapter) Show(ctx context.Context, taskID, userID string) error {
	t, err := a.tasks.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nTask:    %s\n", t.ID)
	fmt.Fprintf(a.out, "Title:   %s\n", t.Title)
	fmt.Fprintf(a.out, "Status:  %s\n", t.Status)
	fmt.Fprintf(a.out, "Poster:  %s\n", t.PosterID)
	if t.Budget > 0 {
		fmt.Fprintf(a.out, "Budget:  %d.%02d лв\n", t.Budget/100, t.Budget%100)
	}
	if t.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", t.Description)
	}
	fmt.Fprintf(a.out, "Poster confirmed: %s\n", stamp(t.ConfirmedByPosterAt))
	fmt.Fprintf(a.out, "Worker confirmed: %s\n", stamp(t.ConfirmedByWorkerAt))

	if userID != "" {
		status, err := a.completion.CompletionStatus(ctx, taskID, userID)
		if err == nil {
			fmt.Fprintf(a.out, "You are: %s (%s)\n", status.ViewerParty, status.Phase)
			a.printEligibility(status.Feedback)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

func stamp(at *time.Time) string {
	if at == nil {
		return faint("no")
	}
	return green(at.UTC().Format(time.RFC3339))
}

// Cancel cancels a task.
func (a *TaskAdapter) Cancel(ctx context.Context, taskID, actorID string) error {
	if err := a.tasks.CancelTask(ctx, primary.CancelTaskRequest{TaskID: taskID, ActorID: actorID}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Task %s cancelled\n", green("✓"), taskID)
	return nil
}

// Confirm records the user's completion confirmation.
func (a *TaskAdapter) Confirm(ctx context.Context, taskID, userID, party string) error {
	resp, err := a.completion.ConfirmCompletion(ctx, primary.ConfirmCompletionRequest{
		TaskID: taskID,
		UserID: userID,
		Party:  party,
	})
	if err != nil {
		return err
	}

	switch {
	case resp.CompletedNow:
		fmt.Fprintf(a.out, "%s Both sides confirmed. Task %s is completed.\n", green("✓"), taskID)
	case resp.AlreadyConfirmed:
		fmt.Fprintf(a.out, "%s The %s already confirmed task %s; nothing changed (%s)\n", yellow("!"), resp.Party, taskID, resp.Phase)
	default:
		fmt.Fprintf(a.out, "%s Confirmed as %s. Waiting for the other side.\n", green("✓"), resp.Party)
	}
	return nil
}

// Eligibility prints the feedback gate's answer at the given instant (zero
// means now). With crossCheck set, the store's own gate function is asked
// too and a disagreement is reported.
func (a *TaskAdapter) Eligibility(ctx context.Context, taskID, userID string, at time.Time, crossCheck bool) error {
	if crossCheck && !at.IsZero() {
		return fmt.Errorf("the store can only be asked about the current time")
	}

	var (
		e   *primary.FeedbackEligibility
		err error
	)
	if at.IsZero() {
		e, err = a.completion.FeedbackEligibility(ctx, taskID, userID)
	} else {
		e, err = a.completion.FeedbackEligibilityAt(ctx, taskID, userID, at)
	}
	if err != nil {
		return err
	}
	a.printEligibility(*e)

	if !crossCheck {
		return nil
	}
	if a.checker == nil {
		return fmt.Errorf("the configured store has no feedback gate function (use the postgres driver)")
	}
	allowed, err := a.checker.FeedbackAllowed(ctx, taskID, userID)
	if err != nil {
		return err
	}
	if allowed != e.Allowed {
		fmt.Fprintf(a.out, "%s store says allowed=%v, service says allowed=%v\n", red("✗"), allowed, e.Allowed)
		return fmt.Errorf("feedback gate mismatch for task %s", taskID)
	}
	fmt.Fprintf(a.out, "%s store agrees (allowed=%v)\n", green("✓"), allowed)
	return nil
}

func (a *TaskAdapter) printEligibility(e primary.FeedbackEligibility) {
	switch {
	case e.Allowed:
		fmt.Fprintf(a.out, "Feedback: %s (%s)\n", green("unlocked"), e.Basis)
	case e.UnlocksAt != nil:
		fmt.Fprintf(a.out, "Feedback: %s until %s\n", yellow("locked"), e.UnlocksAt.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(a.out, "Feedback: %s: %s\n", red("locked"), e.Reason)
	}
}
