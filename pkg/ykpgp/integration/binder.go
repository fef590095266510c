package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// SSHAuthSockLine points SSH clients at the agent's SSH socket.
const SSHAuthSockLine = `export SSH_AUTH_SOCK="$(gpgconf --list-dirs agent-ssh-socket)"`

const sshSupportOption = "enable-ssh-support"

// Binder enables commit signing and SSH authentication with a
// provisioned key.
type Binder struct {
	client *gpg.Client
	// Git is the git executable.
	Git string
	// Home is the user's home directory.
	Home string
	// Shell and ZDotDir select the profile file to edit.
	Shell   string
	ZDotDir string

	out    *output.Handler
	logger zerolog.Logger
}

// NewBinder returns a binder using client for gpg and git invocations.
// The profile settings are read from the environment.
func NewBinder(client *gpg.Client, out *output.Handler, logger zerolog.Logger) *Binder {
	home, _ := os.UserHomeDir()
	return &Binder{
		client:  client,
		Git:     "git",
		Home:    home,
		Shell:   os.Getenv("SHELL"),
		ZDotDir: os.Getenv("ZDOTDIR"),
		out:     out,
		logger:  logger,
	}
}

func (b *Binder) git(ctx context.Context, args ...string) (string, error) {
	out, err := b.client.Runner.Output(ctx, gpg.Command{Program: b.Git, Args: args})
	return strings.TrimSpace(string(out)), err
}

// gitGet reads a config value at scope. An unset key is not an error.
func (b *Binder) gitGet(ctx context.Context, scope Scope, name string) (string, error) {
	v, err := b.git(ctx, "config", scope.Flag(), "--get", name)
	var cmdErr *gpg.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
		return "", nil
	}
	return v, err
}

// EnableGit turns on commit signing at scope. The signing key is only set
// when the identity configured at that scope is not one of id's user
// IDs, so a key chosen for another identity is left alone.
func (b *Binder) EnableGit(ctx context.Context, scope Scope, fingerprint string, id identity.Identity) error {
	if scope == ScopeNone {
		return nil
	}
	if _, err := b.git(ctx, "config", scope.Flag(), "commit.gpgsign", "true"); err != nil {
		return err
	}

	name, err := b.gitGet(ctx, scope, "user.name")
	if err != nil {
		return err
	}
	email, err := b.gitGet(ctx, scope, "user.email")
	if err != nil {
		return err
	}
	if id.Has(identity.FormatUID(name, email)) {
		b.logger.Debug().Str("scope", string(scope)).Msg("git identity matches, keeping signing key")
		return nil
	}

	key, err := b.client.SecretKey(ctx, fingerprint)
	if err != nil {
		return err
	}
	if key.KeyID == "" {
		return &gpg.NotFoundError{What: "key ID for fingerprint " + fingerprint}
	}
	_, err = b.git(ctx, "config", scope.Flag(), "user.signingkey", key.KeyID)
	return err
}

// EnableSSH enables the agent's SSH support and registers the key's
// authentication subkey with it. Editing the shell profile is best effort.
func (b *Binder) EnableSSH(ctx context.Context, fingerprint string) error {
	opts, err := b.client.AgentOptions(ctx)
	if err != nil {
		return err
	}
	if !sshSupportEnabled(opts) {
		if err := b.client.SetAgentOption(ctx, sshSupportOption, "1"); err != nil {
			return err
		}
	}

	key, err := b.client.SecretKey(ctx, fingerprint)
	if err != nil {
		return err
	}
	auth, _, ok := key.FirstSubkey(gpg.CapAuthenticate)
	if !ok || auth.Grip == "" {
		return &gpg.NotFoundError{What: "authentication key grip for " + fingerprint}
	}

	home, err := b.client.HomeDir(ctx)
	if err != nil {
		return err
	}
	added, err := AppendKeygrip(filepath.Join(home, "sshcontrol"), auth.Grip)
	if err != nil {
		return fmt.Errorf("failed to update sshcontrol: %w", err)
	}
	b.logger.Debug().Str("grip", auth.Grip).Bool("added", added).Msg("sshcontrol")

	b.updateProfile()
	return nil
}

func sshSupportEnabled(opts []gpg.AgentOption) bool {
	for _, o := range opts {
		if o.Name == sshSupportOption {
			return o.Enabled()
		}
	}
	return false
}

// ProfilePath returns the start-up file to receive SSHAuthSockLine, or ""
// when the shell is not supported.
func (b *Binder) ProfilePath() string {
	shell := strings.ToLower(filepath.Base(b.Shell))
	if b.Shell == "" {
		shell = "bash"
	}
	switch {
	case strings.Contains(shell, "zsh"):
		dir := b.ZDotDir
		if dir == "" {
			dir = b.Home
		}
		return filepath.Join(dir, ".zprofile")
	case strings.Contains(shell, "bash"):
		for _, name := range []string{".bash_profile", ".bash_login", ".profile"} {
			path := filepath.Join(b.Home, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		return filepath.Join(b.Home, ".bash_profile")
	default:
		return ""
	}
}

func (b *Binder) updateProfile() {
	if runtime.GOOS == "windows" {
		b.out.Warnf(output.CodeWarnUnsupported, "system-wide ssh setup is not supported on Windows")
		return
	}
	path := b.ProfilePath()
	if path == "" || b.Home == "" {
		b.out.Warnf(output.CodeWarnUnsupported, "could not add SSH_AUTH_SOCK to your profile")
		return
	}
	if _, err := AppendLine(path, SSHAuthSockLine, 0o644); err != nil {
		b.out.Warnf(output.CodeWarnBestEffort, "could not add SSH_AUTH_SOCK to %s: %v", path, err)
	}
}
