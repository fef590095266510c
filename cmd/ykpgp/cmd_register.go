package main

import (
	"context"

	"github.com/spf13/cobra"

	clilib "github.com/dotsecenv/ykpgp/internal/cli"
)

var registerOpts provisionFlags

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Use the keys already on a YubiKey on this machine",
	Long: `Create a keyring key for the keys already stored on the inserted YubiKey.

The key is created with the card keys' original creation time so its
fingerprint matches the card. Use this on a new machine after the card
was provisioned elsewhere.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := registerOpts.options()
		runWithCLI(cmd, func(ctx context.Context, c *clilib.CLI) error {
			return c.Register(ctx, opts)
		})
	},
}

func init() {
	addProvisionFlags(registerCmd, &registerOpts)
}
