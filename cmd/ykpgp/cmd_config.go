package main

import (
	"os"

	"github.com/spf13/cobra"

	clilib "github.com/dotsecenv/ykpgp/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitOpts struct {
	Name  string
	Email string
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Initialize a new ykpgp configuration file.

By default, creates a configuration file at the XDG config location
($YKPGP_CONFIG overrides it). Use -c to specify a custom path.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		clilib.ExitWithError(clilib.InitConfig(globalOpts.ConfigPath, configInitOpts.Name, configInitOpts.Email, os.Stderr))
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitOpts.Name, "name", "", "Full name to store")
	configInitCmd.Flags().StringVar(&configInitOpts.Email, "email", "", "Email address to store")
	configCmd.AddCommand(configInitCmd)
}
