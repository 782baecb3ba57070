package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/rabotim/internal/cli"
	"github.com/example/rabotim/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rabotim",
		Short:   "Rabotim - task marketplace with bilateral completion",
		Version: version.String(),
		Long: `Rabotim connects people who post tasks with the workers who do them.
A task completes only when both sides confirm it, and feedback unlocks
once both have confirmed or a week has passed since the first confirmation.`,
	}

	cli.Register(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
