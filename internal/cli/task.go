package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rabotim/internal/ports/primary"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Post tasks and confirm their completion",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Post a new task as the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		poster, err := requireActor(cmd)
		if err != nil {
			return err
		}
		c, err := container()
		if err != nil {
			return err
		}

		description, _ := cmd.Flags().GetString("description")
		category, _ := cmd.Flags().GetString("category")
		budget, _ := cmd.Flags().GetInt64("budget")

		return c.TaskAdapter(cmd.OutOrStdout()).Create(NewContext(cmd), primary.CreateTaskRequest{
			PosterID:    poster,
			Title:       args[0],
			Description: description,
			Category:    category,
			Budget:      budget,
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}

		poster, _ := cmd.Flags().GetString("poster")
		worker, _ := cmd.Flags().GetString("worker")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		return c.TaskAdapter(cmd.OutOrStdout()).List(NewContext(cmd), primary.TaskFilters{
			PosterID: poster,
			WorkerID: worker,
			Status:   status,
			Limit:    limit,
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task and, for its parties, the confirmation state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}
		return c.TaskAdapter(cmd.OutOrStdout()).Show(NewContext(cmd), args[0], actorID(cmd))
	},
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel [task-id]",
	Short: "Cancel a pending or in_progress task (poster only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := requireActor(cmd)
		if err != nil {
			return err
		}
		c, err := container()
		if err != nil {
			return err
		}
		return c.TaskAdapter(cmd.OutOrStdout()).Cancel(NewContext(cmd), args[0], actor)
	},
}

var taskConfirmCmd = &cobra.Command{
	Use:   "confirm [task-id]",
	Short: "Confirm that the task was completed",
	Long: `Record the acting user's confirmation that the task is done.

The party defaults to whichever side of the task the acting user is on.
Once both the poster and the accepted worker confirm, the task completes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := requireActor(cmd)
		if err != nil {
			return err
		}
		c, err := container()
		if err != nil {
			return err
		}

		party, _ := cmd.Flags().GetString("party")
		return c.TaskAdapter(cmd.OutOrStdout()).Confirm(NewContext(cmd), args[0], actor, party)
	},
}

var taskEligibilityCmd = &cobra.Command{
	Use:   "eligibility [task-id]",
	Short: "Show whether the acting user may leave feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := requireActor(cmd)
		if err != nil {
			return err
		}
		c, err := container()
		if err != nil {
			return err
		}

		var at time.Time
		if raw, _ := cmd.Flags().GetString("at"); raw != "" {
			at, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				return fmt.Errorf("invalid --at %q: expected RFC3339", raw)
			}
		}
		crossCheck, _ := cmd.Flags().GetBool("store")

		return c.TaskAdapter(cmd.OutOrStdout()).Eligibility(NewContext(cmd), args[0], actor, at, crossCheck)
	},
}

func init() {
	taskCreateCmd.Flags().StringP("description", "d", "", "Task description")
	taskCreateCmd.Flags().StringP("category", "c", "", "Task category")
	taskCreateCmd.Flags().Int64P("budget", "b", 0, "Budget in stotinki")

	taskListCmd.Flags().String("poster", "", "Only tasks posted by this user")
	taskListCmd.Flags().String("worker", "", "Only tasks where this user is the accepted worker")
	taskListCmd.Flags().StringP("status", "s", "", "Filter by status (pending, in_progress, completed, cancelled)")
	taskListCmd.Flags().IntP("limit", "n", 0, "Maximum number of tasks")

	taskConfirmCmd.Flags().String("party", "", "Confirm as poster or worker")

	taskEligibilityCmd.Flags().String("at", "", "Evaluate at this RFC3339 instant instead of now")
	taskEligibilityCmd.Flags().Bool("store", false, "Cross-check against the database gate function")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskCancelCmd)
	taskCmd.AddCommand(taskConfirmCmd)
	taskCmd.AddCommand(taskEligibilityCmd)
}

// TaskCmd returns the task command
func TaskCmd() *cobra.Command {
	return taskCmd
}
