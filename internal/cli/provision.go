package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/integration"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/provision"
)

// ProvisionOptions are the command-line choices shared by init and register.
// Zero values fall back to the config file.
type ProvisionOptions struct {
	Name  string
	Email string
	UIDs  []string
	// Git is "local", "global" or empty.
	Git string
	RSA bool
	SSH bool
	// KeyringKey moves a keyring key to the card instead of generating on it.
	KeyringKey bool
	// Isolated runs against a temporary GNUPGHOME.
	Isolated bool
}

func (c *CLI) settings(opts ProvisionOptions) (provision.Settings, error) {
	scope := c.config.Scope()
	if opts.Git != "" {
		s, err := integration.ParseScope(opts.Git)
		if err != nil {
			return provision.Settings{}, output.NewError(output.CodeUsageError, err.Error())
		}
		scope = s
	}

	resolver := identity.Resolver{
		Flags:  identity.Source{Name: opts.Name, Email: opts.Email, UIDs: opts.UIDs},
		Config: c.config.Identity(),
		Getenv: c.getenv,
		Prompt: c.prompt,
	}
	id, err := resolver.Resolve()
	if err != nil {
		if errors.Is(err, identity.ErrIncomplete) {
			return provision.Settings{}, output.NewErrorf(output.CodeInvalidInput, "invalid identity: %v", err)
		}
		return provision.Settings{}, err
	}
	c.logger.Debug().Strs("uids", id.UIDs).Str("git", string(scope)).Msg("resolved identity")

	return provision.Settings{
		Identity: id,
		Flags: provision.Flags{
			Git:        scope,
			RSA:        opts.RSA || c.config.RSA,
			SSH:        opts.SSH || c.config.SSH,
			KeyringKey: opts.KeyringKey,
		},
	}, nil
}

func (c *CLI) provisioner(settings provision.Settings) *provision.Provisioner {
	binder := integration.NewBinder(c.client, c.output, c.logger)
	if c.config.GitProgram != "" {
		binder.Git = c.config.GitProgram
	}
	return provision.New(settings, c.client,
		provision.WithIntegrations(binder),
		provision.WithOutput(c.output),
		provision.WithLogger(c.logger),
	)
}

func (c *CLI) begin(ctx context.Context, opts ProvisionOptions) (*provision.Provisioner, error) {
	if err := c.checkPrograms(); err != nil {
		return nil, err
	}
	if opts.Isolated {
		if err := c.Isolate(ctx); err != nil {
			return nil, err
		}
	}
	settings, err := c.settings(opts)
	if err != nil {
		return nil, err
	}
	return c.provisioner(settings), nil
}

// Init provisions the card in the reader.
func (c *CLI) Init(ctx context.Context, opts ProvisionOptions) error {
	p, err := c.begin(ctx, opts)
	if err != nil {
		return err
	}
	res, err := p.Init(ctx)
	if err != nil {
		return err
	}
	c.report(res)
	return nil
}

// Register binds the keys already on the card to a keyring key.
func (c *CLI) Register(ctx context.Context, opts ProvisionOptions) error {
	p, err := c.begin(ctx, opts)
	if err != nil {
		return err
	}
	res, err := p.Register(ctx)
	if err != nil {
		return err
	}
	c.report(res)
	return nil
}

// Reset restores the card's factory state after confirmation.
func (c *CLI) Reset(ctx context.Context) error {
	if err := c.checkPrograms(); err != nil {
		return err
	}
	p := c.provisioner(provision.Settings{})
	if err := p.Reset(ctx, c.confirm); err != nil {
		return err
	}
	c.output.Success("Card reset to factory defaults.")
	return nil
}

func (c *CLI) report(res *provision.Result) {
	c.logger.Debug().Str("path", string(res.Path)).Str("created", strings.Join(res.Created, ",")).Msg("provisioned")
	if res.Path == provision.PathRegister {
		c.output.Successf("Registered card keys as %s", res.Fingerprint)
		return
	}
	c.output.Successf("Card provisioned with key %s", res.Fingerprint)
}
