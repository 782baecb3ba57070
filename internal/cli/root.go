// Package cli contains the cobra commands of the rabotim binary.
package cli

import (
	gocontext "context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/rabotim/internal/ctxutil"
	"github.com/example/rabotim/internal/wire"
)

// ActorEnv names the variable that provides --as when the flag is absent.
const ActorEnv = "RABOTIM_ACTOR"

// Register adds the global --as flag and every subcommand to root.
func Register(root *cobra.Command) {
	root.PersistentFlags().String("as", "", "Acting user ID (defaults to $"+ActorEnv+")")
	root.SilenceUsage = true

	root.AddCommand(ServeCmd())
	root.AddCommand(MigrateCmd())
	root.AddCommand(ProfileCmd())
	root.AddCommand(TaskCmd())
	root.AddCommand(ApplicationCmd())
	root.AddCommand(ReviewCmd())
	root.AddCommand(LogCmd())
}

// actorID returns the acting user from --as or the environment.
func actorID(cmd *cobra.Command) string {
	if as, _ := cmd.Flags().GetString("as"); as != "" {
		return as
	}
	return os.Getenv(ActorEnv)
}

// requireActor is actorID for commands that cannot run anonymously.
func requireActor(cmd *cobra.Command) (string, error) {
	id := actorID(cmd)
	if id == "" {
		return "", fmt.Errorf("no acting user\nHint: pass --as USER or set %s", ActorEnv)
	}
	return id, nil
}

// NewContext returns a context carrying the acting user, the CLI analogue
// of the HTTP token subject.
func NewContext(cmd *cobra.Command) gocontext.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = gocontext.Background()
	}
	if id := actorID(cmd); id != "" {
		return ctxutil.WithActorID(ctx, id)
	}
	return ctx
}

// container returns the process-wide services.
func container() (*wire.Container, error) {
	c, err := wire.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}
