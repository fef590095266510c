package main

import (
	"context"

	"github.com/spf13/cobra"

	clilib "github.com/dotsecenv/ykpgp/internal/cli"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Factory-reset the OpenPGP application of the YubiKey",
	Long: `Factory-reset the OpenPGP application of the inserted YubiKey.

All keys on the card are destroyed and the PINs return to their defaults.
You are asked for confirmation first.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithCLI(cmd, func(ctx context.Context, c *clilib.CLI) error {
			return c.Reset(ctx)
		})
	},
}
