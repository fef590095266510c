package main

import (
	"context"

	"github.com/spf13/cobra"

	clilib "github.com/dotsecenv/ykpgp/internal/cli"
)

// provisionFlags holds the flags shared by init and register
type provisionFlags struct {
	LocalGit  bool
	GlobalGit bool
	Name      string
	Email     string
	UIDs      []string
	SSH       bool
}

func (f provisionFlags) options() clilib.ProvisionOptions {
	opts := clilib.ProvisionOptions{
		Name:  f.Name,
		Email: f.Email,
		UIDs:  f.UIDs,
		SSH:   f.SSH,
	}
	switch {
	case f.LocalGit:
		opts.Git = "local"
	case f.GlobalGit:
		opts.Git = "global"
	}
	return opts
}

func addProvisionFlags(cmd *cobra.Command, f *provisionFlags) {
	cmd.Flags().BoolVarP(&f.LocalGit, "git", "g", false, "Enable git commit signing in the current repository")
	cmd.Flags().BoolVarP(&f.GlobalGit, "global-git", "G", false, "Enable git commit signing globally")
	cmd.Flags().StringArrayVarP(&f.UIDs, "uid", "i", nil, "User ID \"Name <email>\" (repeatable, first is primary)")
	cmd.Flags().StringVar(&f.Name, "name", "", "Full name (default $NAME)")
	cmd.Flags().StringVar(&f.Email, "email", "", "Email address (default $EMAIL)")
	cmd.Flags().BoolVarP(&f.SSH, "ssh", "s", false, "Enable SSH authentication through gpg-agent")
	cmd.MarkFlagsMutuallyExclusive("git", "global-git")
}

var initOpts struct {
	provisionFlags
	KeyringKey bool
	TempHome   bool
	RSA        bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Provision the inserted YubiKey",
	Long: `Provision the inserted YubiKey for OpenPGP.

By default keys are generated on the card, so the secret keys never exist
anywhere else. With -k an existing keyring key for your identity (created
if missing) is backed up, moved to the card and re-imported, leaving a
usable copy in the keyring.

Running init again on a provisioned card only fills in what is missing.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := initOpts.options()
		opts.KeyringKey = initOpts.KeyringKey
		opts.Isolated = initOpts.TempHome
		opts.RSA = initOpts.RSA

		runWithCLI(cmd, func(ctx context.Context, c *clilib.CLI) error {
			return c.Init(ctx, opts)
		})
	},
}

func init() {
	addProvisionFlags(initCmd, &initOpts.provisionFlags)
	initCmd.Flags().BoolVarP(&initOpts.KeyringKey, "keyring", "k", false, "Move a keyring key to the card instead of generating on it")
	initCmd.Flags().BoolVarP(&initOpts.TempHome, "temp-home", "n", false, "Use a temporary GNUPGHOME for this run")
	initCmd.Flags().BoolVarP(&initOpts.RSA, "rsa", "r", false, "Use RSA 4096 instead of Ed25519/Curve25519")
}
