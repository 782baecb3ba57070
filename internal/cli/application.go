package cli

import (
	"github.com/spf13/cobra"
)

var applicationCmd = &cobra.Command{
	Use:     "application",
	Aliases: []string{"app"},
	Short:   "Apply to tasks and pick workers",
}

var applicationApplyCmd = &cobra.Command{
	Use:   "apply [task-id]",
	Short: "Apply to a pending task as the acting user",
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

		message, _ := cmd.Flags().GetString("message")
		return c.ApplicationAdapter(cmd.OutOrStdout()).Apply(NewContext(cmd), args[0], actor, message)
	},
}

var applicationAcceptCmd = &cobra.Command{
	Use:   "accept [application-id]",
	Short: "Accept an application and start the task (poster only)",
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
		return c.ApplicationAdapter(cmd.OutOrStdout()).Accept(NewContext(cmd), args[0], actor)
	},
}

var applicationWithdrawCmd = &cobra.Command{
	Use:   "withdraw [application-id]",
	Short: "Withdraw a pending application (applicant only)",
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
		return c.ApplicationAdapter(cmd.OutOrStdout()).Withdraw(NewContext(cmd), args[0], actor)
	},
}

var applicationListCmd = &cobra.Command{
	Use:   "list [task-id]",
	Short: "List applications visible to the acting user",
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
		return c.ApplicationAdapter(cmd.OutOrStdout()).List(NewContext(cmd), args[0], actor)
	},
}

func init() {
	applicationApplyCmd.Flags().StringP("message", "m", "", "Message to the poster")

	applicationCmd.AddCommand(applicationApplyCmd)
	applicationCmd.AddCommand(applicationAcceptCmd)
	applicationCmd.AddCommand(applicationWithdrawCmd)
	applicationCmd.AddCommand(applicationListCmd)
}

// ApplicationCmd returns the application command
func ApplicationCmd() *cobra.Command {
	return applicationCmd
}
