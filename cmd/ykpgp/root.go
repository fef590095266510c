package main

import (
	"github.com/spf13/cobra"
)

var (
	version = "unknown"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ykpgp",
	Short: "Provision YubiKeys for OpenPGP",
	Long: `ykpgp: set up a YubiKey as your OpenPGP card.

Generates keys on the card or moves an existing keyring key onto it,
binds your user IDs, and optionally enables git commit signing and
SSH authentication with the card's keys. Every step is safe to repeat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Unknown subcommands fall through to help.
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalOpts.ConfigPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "Log every external command")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Silent, "silent", false, "Silent mode (suppress warnings)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}
