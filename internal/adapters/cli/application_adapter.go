package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/rabotim/internal/ports/primary"
)

// ApplicationAdapter translates CLI operations to ApplicationService calls.
type ApplicationAdapter struct {
	service primary.ApplicationService
	out     io.Writer
}

// NewApplicationAdapter creates a new ApplicationAdapter.
func NewApplicationAdapter(service primary.ApplicationService, out io.Writer) *ApplicationAdapter {
	return &ApplicationAdapter{service: service, out: out}
}

// Apply applies to a task.
func (a *ApplicationAdapter) Apply(ctx context.Context, taskID, applicantID, message string) error {
	app, err := a.service.Apply(ctx, primary.ApplyRequest{TaskID: taskID, ApplicantID: applicantID, Message: message})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Applied to task %s (application %s)\n", green("✓"), taskID, app.ID)
	return nil
}

// Accept accepts an application.
func (a *ApplicationAdapter) Accept(ctx context.Context, applicationID, actorID string) error {
	app, err := a.service.Accept(ctx, primary.DecideApplicationRequest{ApplicationID: applicationID, ActorID: actorID})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s is now working on task %s\n", green("✓"), app.ApplicantID, app.TaskID)
	return nil
}

// Withdraw withdraws an application.
func (a *ApplicationAdapter) Withdraw(ctx context.Context, applicationID, actorID string) error {
	if err := a.service.Withdraw(ctx, primary.DecideApplicationRequest{ApplicationID: applicationID, ActorID: actorID}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Application %s withdrawn\n", green("✓"), applicationID)
	return nil
}

// List lists the applications to a task.
func (a *ApplicationAdapter) List(ctx context.Context, taskID, actorID string) error {
	apps, err := a.service.ListForTask(ctx, taskID, actorID)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		fmt.Fprintln(a.out, "No applications found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-10s %-20s %s\n", "ID", "STATUS", "APPLICANT", "MESSAGE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for _, app := range apps {
		fmt.Fprintf(a.out, "%-36s %-10s %-20s %s\n", app.ID, app.Status, app.ApplicantID, app.Message)
	}
	fmt.Fprintln(a.out)
	return nil
}
