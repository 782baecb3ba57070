package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rabotim/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema to the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}

		v, err := db.CurrentVersion(NewContext(cmd), c.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s schema at version %d\n", c.Config.DBDriver, v)
		return nil
	},
}

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return migrateCmd
}
