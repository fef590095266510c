package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	clilib "github.com/dotsecenv/ykpgp/internal/cli"
)

// GlobalOptions holds the global configuration flags
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Silent     bool
}

// globalOpts is the shared global options instance
var globalOpts = &GlobalOptions{}

// createCLI creates a CLI instance for the current process
func createCLI() (*clilib.CLI, error) {
	return clilib.NewCLI(clilib.Options{
		ConfigPath: globalOpts.ConfigPath,
		Verbose:    globalOpts.Verbose,
		Silent:     globalOpts.Silent,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	})
}

// runWithCLI runs fn and exits with the mapped exit code on failure.
func runWithCLI(cmd *cobra.Command, fn func(ctx context.Context, c *clilib.CLI) error) {
	c, err := createCLI()
	if err != nil {
		clilib.ExitWithError(err)
	}
	clilib.ExitWithError(c.Run(cmd.Context(), fn))
}
