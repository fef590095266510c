package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/dotsecenv/ykpgp/internal/logging"
	"github.com/dotsecenv/ykpgp/internal/xdg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/config"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// Options configures a CLI instance.
type Options struct {
	ConfigPath string
	Verbose    bool
	Silent     bool

	Stdout io.Writer
	Stderr io.Writer

	// Runner replaces the process runner; tests use it to simulate gpg.
	Runner gpg.Runner
	// Getenv replaces os.Getenv for identity defaults.
	Getenv func(string) string
	// Prompt and Confirm replace the terminal prompts.
	Prompt  identity.Prompter
	Confirm func(prompt string) (bool, error)
}

// CLI owns the state of one ykpgp run.
type CLI struct {
	configPath string
	config     config.Config
	client     *gpg.Client
	setenv     func(key, value string)
	home       *gpg.IsolatedHome
	getenv     func(string) string
	prompt     identity.Prompter
	confirm    func(prompt string) (bool, error)
	logger     zerolog.Logger
	output     *output.Handler
}

// NewCLI resolves the config and prepares the gpg client.
func NewCLI(opts Options) (*CLI, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	configPath, err := xdg.ResolveConfigPath(opts.ConfigPath)
	if err != nil {
		return nil, output.NewErrorf(output.CodeConfigInvalid, "failed to get XDG paths: %v", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, output.NewErrorf(output.CodeConfigParseError, "failed to load config %s: %v", configPath, err)
	}

	logger := logging.New(opts.Stderr, opts.Verbose)
	c := &CLI{
		configPath: configPath,
		config:     cfg,
		getenv:     opts.Getenv,
		prompt:     opts.Prompt,
		confirm:    opts.Confirm,
		logger:     logger,
		output:     output.NewHandler(opts.Stdout, opts.Stderr, output.WithSilent(opts.Silent)),
	}
	if c.getenv == nil {
		c.getenv = os.Getenv
	}
	if c.prompt == nil {
		c.prompt = identity.PrompterFunc(func(label string) (string, error) {
			return PromptLine(label, opts.Stderr)
		})
	}
	if c.confirm == nil {
		c.confirm = func(prompt string) (bool, error) {
			return PromptConfirm(prompt, opts.Stderr)
		}
	}

	runner := opts.Runner
	c.setenv = func(string, string) {}
	if runner == nil {
		exec := gpg.NewExecRunner(logger)
		exec.Stdout = opts.Stdout
		exec.Stderr = opts.Stderr
		c.setenv = exec.Setenv
		runner = exec
	}

	c.client = gpg.NewClient(runner)
	c.client.Programs = gpg.DefaultPrograms().WithOverrides(cfg.Programs())
	if cfg.GnuPGHome != "" && c.getenv("GNUPGHOME") == "" {
		c.setenv("GNUPGHOME", cfg.GnuPGHome)
		c.client.Home = cfg.GnuPGHome
	}
	if tty := gpg.TTY(); tty != "" {
		c.setenv("GPG_TTY", tty)
	}

	return c, nil
}

// Output returns the unified output handler for this CLI instance.
func (c *CLI) Output() *output.Handler {
	return c.output
}

// Config returns the loaded configuration.
func (c *CLI) Config() config.Config {
	return c.config
}

// ConfigPath returns the config file this run resolved.
func (c *CLI) ConfigPath() string {
	return c.configPath
}

// Isolate switches the run to a temporary key-storage home that Close
// removes again.
func (c *CLI) Isolate(ctx context.Context) error {
	if c.home != nil {
		return nil
	}
	home, err := gpg.NewIsolatedHome(ctx, c.client, c.setenv)
	if err != nil {
		return output.NewError(output.CodeOperationFailed, "failed to set up temporary GNUPGHOME").WithCause(err)
	}
	c.logger.Debug().Str("dir", home.Dir).Msg("using temporary GNUPGHOME")
	c.home = home
	return nil
}

// Close removes the temporary home, if any.
func (c *CLI) Close(ctx context.Context) error {
	if c.home == nil {
		return nil
	}
	err := c.home.Close(ctx)
	c.home = nil
	if err != nil {
		return fmt.Errorf("failed to clean up temporary GNUPGHOME: %w", err)
	}
	return nil
}

// Run calls fn and then Close, whatever fn returned, so a temporary
// GNUPGHOME never outlives the command. A cleanup failure after fn
// failed is reported as a warning.
func (c *CLI) Run(ctx context.Context, fn func(ctx context.Context, c *CLI) error) error {
	err := fn(ctx, c)
	if closeErr := c.Close(context.WithoutCancel(ctx)); closeErr != nil {
		if err == nil {
			return closeErr
		}
		c.output.Warnf(output.CodeWarnBestEffort, "%v", closeErr)
	}
	return err
}

// checkPrograms fails early when a gpg executable cannot be found.
func (c *CLI) checkPrograms() error {
	if _, ok := c.client.Runner.(*gpg.ExecRunner); !ok {
		return nil
	}
	if missing := c.client.Programs.Missing(); len(missing) > 0 {
		return output.NewErrorf(output.CodeCommandFailed, "required programs not found: %v\n  Install GnuPG or set gpg.program in %s", missing, c.configPath)
	}
	return nil
}
