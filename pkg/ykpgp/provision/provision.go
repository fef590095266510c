package provision

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/backup"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/integration"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// Flags are the user's choices for one run.
type Flags struct {
	// Git is the scope at which commit signing is enabled; empty skips it.
	Git integration.Scope
	// RSA prefers RSA-4096 over Ed25519/Curve25519.
	RSA bool
	// SSH wires the authentication key into the agent's SSH support.
	SSH bool
	// KeyringKey moves an existing (or newly created) keyring key onto
	// the card instead of generating keys on the card.
	KeyringKey bool
}

// Settings is the immutable configuration of a run.
type Settings struct {
	Identity identity.Identity
	Flags    Flags
}

// Integrations wires a provisioned key into other tools.
type Integrations interface {
	EnableGit(ctx context.Context, scope integration.Scope, fingerprint string, id identity.Identity) error
	EnableSSH(ctx context.Context, fingerprint string) error
}

// Path is the workflow a run followed.
type Path string

const (
	PathGenerate Path = "generate"
	PathMigrate  Path = "migrate"
	PathRegister Path = "register"
)

// Result describes the key left on the card.
type Result struct {
	Path        Path
	Fingerprint string
	// Created lists what had to be created: "primary", "encrypt", "auth",
	// "card-keys" or user IDs.
	Created []string
}

// Provisioner drives a card from its current state to the configured one.
// All steps run sequentially; card and keyring state is re-read before
// every decision.
type Provisioner struct {
	settings     Settings
	client       *gpg.Client
	guard        *backup.Guard
	integrations Integrations
	out          *output.Handler
	logger       zerolog.Logger

	goos     string
	lookPath func(file string) (string, error)
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithIntegrations sets the binder run after provisioning.
func WithIntegrations(i Integrations) Option {
	return func(p *Provisioner) {
		p.integrations = i
	}
}

// WithOutput sets the handler receiving warnings and progress.
func WithOutput(h *output.Handler) Option {
	return func(p *Provisioner) {
		p.out = h
	}
}

// WithLogger sets the debug logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = l
	}
}

// New returns a provisioner for settings using client for every tool call.
func New(settings Settings, client *gpg.Client, opts ...Option) *Provisioner {
	p := &Provisioner{
		settings: settings,
		client:   client,
		guard:    backup.NewGuard(client),
		out:      output.Discard(),
		logger:   zerolog.Nop(),
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init provisions the card. The path is fixed by Flags.KeyringKey and
// never changes during the run.
func (p *Provisioner) Init(ctx context.Context) (*Result, error) {
	if err := p.prepare(ctx); err != nil {
		return nil, err
	}

	var res *Result
	var err error
	if p.settings.Flags.KeyringKey {
		res, err = p.migrate(ctx)
	} else {
		res, err = p.generate(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := p.integrate(ctx, res.Fingerprint); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Provisioner) integrate(ctx context.Context, fingerprint string) error {
	if p.integrations == nil {
		return nil
	}
	f := p.settings.Flags
	if f.Git != integration.ScopeNone {
		p.logger.Debug().Str("scope", string(f.Git)).Msg("enabling commit signing")
		if err := p.integrations.EnableGit(ctx, f.Git, fingerprint, p.settings.Identity); err != nil {
			return err
		}
	}
	if f.SSH {
		p.logger.Debug().Str("fingerprint", fingerprint).Msg("enabling ssh support")
		if err := p.integrations.EnableSSH(ctx, fingerprint); err != nil {
			return err
		}
	}
	return nil
}

// keyAlgo returns the algorithm used when a keyring key or subkey must
// be created.
func (p *Provisioner) keyAlgo(usage gpg.Capability) string {
	if p.settings.Flags.RSA {
		return "rsa4096"
	}
	if usage == gpg.CapEncrypt {
		return "cv25519"
	}
	return "ed25519"
}

func notFound(err error, what string) error {
	return output.NewErrorf(output.CodeStateNotFound, "could not find %s", what).WithCause(err)
}

var zeroTime time.Time

func isNotFound(err error) bool {
	return errors.Is(err, gpg.ErrNotFound)
}
