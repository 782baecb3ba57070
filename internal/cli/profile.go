package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rabotim/internal/ports/primary"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profiles mirrored from auth",
}

var profileAddCmd = &cobra.Command{
	Use:   "add [user-id] [email] [display-name]",
	Short: "Create or update a profile",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}

		req := primary.UpsertProfileRequest{UserID: args[0], Email: args[1]}
		if len(args) == 3 {
			req.DisplayName = args[2]
		}
		p, err := c.Profiles.UpsertProfile(NewContext(cmd), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile %s <%s>\n", p.UserID, p.Email)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}

		p, err := c.Profiles.GetProfile(NewContext(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.UserID, p.Email, p.DisplayName)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileShowCmd)
}

// ProfileCmd returns the profile command
func ProfileCmd() *cobra.Command {
	return profileCmd
}
