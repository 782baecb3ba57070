package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rabotim/internal/ports/primary"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Read the activity log",
}

var logListCmd = &cobra.Command{
	Use:   "list [entity-id]",
	Short: "Show the history of a task, application or review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}

		entityType, _ := cmd.Flags().GetString("type")
		entries, err := c.Logs.ListLogs(NewContext(cmd), primary.LogFilters{
			EntityType: entityType,
			EntityID:   args[0],
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No log entries")
			return nil
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %-8s %-12s %s", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.EntityType, e.EntityID)
			if e.FieldName != "" {
				line += fmt.Sprintf("  %s: %s → %s", e.FieldName, e.OldValue, e.NewValue)
			}
			if e.ActorID != "" {
				line += "  by " + e.ActorID
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	logListCmd.Flags().String("type", "", "Entity type (task, application, review)")
	logCmd.AddCommand(logListCmd)
}

// LogCmd returns the log command
func LogCmd() *cobra.Command {
	return logCmd
}
