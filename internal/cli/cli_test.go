package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/config"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg/gpgtest"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/provision"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestCLI(t *testing.T, sim *gpgtest.Sim, cfg string, opts Options) (*CLI, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts.ConfigPath = writeConfig(t, cfg)
	opts.Runner = sim
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	if opts.Getenv == nil {
		opts.Getenv = noEnv
	}
	if opts.Prompt == nil {
		opts.Prompt = identity.PrompterFunc(func(label string) (string, error) {
			t.Errorf("unexpected prompt %q", label)
			return "", errors.New("no prompt")
		})
	}
	c, err := NewCLI(opts)
	if err != nil {
		t.Fatalf("NewCLI: %v", err)
	}
	return c, &stdout, &stderr
}

func TestInitFromConfig(t *testing.T) {
	sim := gpgtest.New()
	c, stdout, _ := newTestCLI(t, sim, "name: Ada Lovelace\nemail: ada@example.com\ngit: global\n", Options{})

	if err := c.Init(context.Background(), ProvisionOptions{}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	key := sim.Key(sim.Card.Fingerprints[0])
	if key == nil || key.UIDs[0] != "Ada Lovelace <ada@example.com>" {
		t.Fatalf("card key = %+v", key)
	}
	if !strings.Contains(stdout.String(), "Card provisioned with key "+key.Fingerprint) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if sim.Git["global"]["commit.gpgsign"] != "true" {
		t.Error("commit signing from config not enabled")
	}
}

func TestInitFlagsOverrideConfig(t *testing.T) {
	sim := gpgtest.New()
	c, _, _ := newTestCLI(t, sim, "name: Someone Else\nemail: else@example.com\n", Options{})

	opts := ProvisionOptions{
		UIDs: []string{"Ada Lovelace <ada@example.com>", "Ada <ada@work.example>"},
		RSA:  true,
		Git:  "local",
	}
	if err := c.Init(context.Background(), opts); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if sim.Card.Attributes[0] != "rsa4096" {
		t.Errorf("attributes = %v", sim.Card.Attributes)
	}
	key := sim.Key(sim.Card.Fingerprints[0])
	if key == nil || len(key.UIDs) != 2 || key.UIDs[0] != opts.UIDs[0] {
		t.Fatalf("card key = %+v", key)
	}
	if sim.Git["local"]["commit.gpgsign"] != "true" || len(sim.Git["global"]) != 0 {
		t.Errorf("git config = %v", sim.Git)
	}
}

func TestInitIdentityFromEnvironment(t *testing.T) {
	sim := gpgtest.New()
	env := map[string]string{"NAME": "Grace Hopper", "EMAIL": "grace@example.com"}
	c, _, _ := newTestCLI(t, sim, "", Options{Getenv: func(k string) string { return env[k] }})

	if err := c.Init(context.Background(), ProvisionOptions{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if sim.Card.Surname != "Hopper" || sim.Card.GivenName != "Grace" {
		t.Errorf("cardholder = %q, %q", sim.Card.Surname, sim.Card.GivenName)
	}
}

func TestInitMissingIdentity(t *testing.T) {
	sim := gpgtest.New()
	prompt := identity.PrompterFunc(func(string) (string, error) { return "", nil })
	c, _, _ := newTestCLI(t, sim, "", Options{Prompt: prompt})

	err := c.Init(context.Background(), ProvisionOptions{})
	if !errors.Is(err, output.NewError(output.CodeInvalidInput, "")) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(sim.Scripts) != 0 {
		t.Error("card was touched without an identity")
	}
}

func TestInitInvalidScope(t *testing.T) {
	c, _, _ := newTestCLI(t, gpgtest.New(), "", Options{})
	err := c.Init(context.Background(), ProvisionOptions{Git: "system"})
	if !errors.Is(err, output.NewError(output.CodeUsageError, "")) {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestInitCommandFailureExitCode(t *testing.T) {
	sim := gpgtest.New()
	sim.ScriptFailures["generate"] = 2
	c, _, _ := newTestCLI(t, sim, "name: Ada Lovelace\nemail: ada@example.com\n", Options{})

	err := c.Init(context.Background(), ProvisionOptions{})
	if err == nil {
		t.Fatal("expected failure")
	}
	var stderr bytes.Buffer
	if code := PrintError(&stderr, err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "--card-edit") {
		t.Errorf("command line not surfaced: %q", stderr.String())
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	sim := gpgtest.New()
	c, _, _ := newTestCLI(t, sim, "name: Ada Lovelace\nemail: ada@example.com\n", Options{})
	if err := c.Init(ctx, ProvisionOptions{}); err != nil {
		t.Fatal(err)
	}
	sim.Keys = nil

	c, stdout, _ := newTestCLI(t, sim, "name: Ada Lovelace\nemail: ada@example.com\n", Options{})
	if err := c.Register(ctx, ProvisionOptions{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(sim.Keys) != 1 {
		t.Fatalf("keys = %d", len(sim.Keys))
	}
	if !strings.Contains(stdout.String(), "Registered card keys as "+sim.Keys[0].Fingerprint) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestReset(t *testing.T) {
	tests := []struct {
		name    string
		answer  bool
		wantErr bool
	}{
		{"confirmed", true, false},
		{"declined", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := gpgtest.New()
			var asked string
			confirm := func(prompt string) (bool, error) {
				asked = prompt
				return tt.answer, nil
			}
			c, _, _ := newTestCLI(t, sim, "", Options{Confirm: confirm})

			err := c.Reset(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Reset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if asked != provision.ResetPrompt {
				t.Errorf("prompt = %q", asked)
			}
			if got := len(sim.ScriptsWith("factory-reset")); got != map[bool]int{true: 1, false: 0}[tt.answer] {
				t.Errorf("factory-reset sessions = %d", got)
			}
			if tt.wantErr && PrintError(&bytes.Buffer{}, err) != output.ExitSuccess {
				t.Error("declined reset must exit cleanly")
			}
		})
	}
}

func TestIsolate(t *testing.T) {
	ctx := context.Background()
	sim := gpgtest.New()
	c, _, _ := newTestCLI(t, sim, "", Options{})

	if err := c.Isolate(ctx); err != nil {
		t.Fatalf("Isolate: %v", err)
	}
	dir := c.client.Home
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("mode = %o", info.Mode().Perm())
	}

	before := sim.Count("--list-keys")
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sim.Count("--list-keys") != before+1 {
		t.Error("keyring not listed before removal")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("temporary home still exists: %v", err)
	}
}

func TestRunRemovesIsolatedHomeOnFailure(t *testing.T) {
	sim := gpgtest.New()
	sim.ScriptFailures["generate"] = 2
	c, _, _ := newTestCLI(t, sim, "name: Ada Lovelace\nemail: ada@example.com\n", Options{})

	var dir string
	err := c.Run(context.Background(), func(ctx context.Context, c *CLI) error {
		err := c.Init(ctx, ProvisionOptions{Isolated: true})
		dir = c.client.Home
		return err
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if code := PrintError(&bytes.Buffer{}, err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}

	if dir == "" || dir == sim.Home {
		t.Fatalf("run did not switch to a temporary home: %q", dir)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("temporary home still exists: %v", err)
	}
	last := sim.Calls[len(sim.Calls)-1]
	if last.Program != "gpg" || len(last.Args) == 0 || last.Args[0] != "--list-keys" {
		t.Errorf("last call = %v, want a final keyring listing", last)
	}
	if c.home != nil {
		t.Error("isolated home still attached after Run")
	}
}

func TestRunWithoutIsolation(t *testing.T) {
	sim := gpgtest.New()
	c, _, _ := newTestCLI(t, sim, "", Options{})

	want := errors.New("boom")
	err := c.Run(context.Background(), func(context.Context, *CLI) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Run() = %v, want %v", err, want)
	}
	if sim.Count("--list-keys") != 0 {
		t.Error("nothing to clean up without a temporary home")
	}
}

func TestNewCLIConfigError(t *testing.T) {
	_, err := NewCLI(Options{
		ConfigPath: writeConfig(t, "git: everywhere\n"),
		Runner:     gpgtest.New(),
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected config error")
	}
	if code := PrintError(&bytes.Buffer{}, err); code != output.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, output.ExitConfigError)
	}
}

func TestPrintError(t *testing.T) {
	cmdErr := &gpg.CommandError{
		Command:  gpg.Command{Program: "gpg", Args: []string{"--card-status"}},
		ExitCode: 2,
		Stderr:   "gpg: selecting card failed: No such device",
	}

	tests := []struct {
		name     string
		err      error
		wantCode ExitCode
		wantOut  string
	}{
		{"nil", nil, output.ExitSuccess, ""},
		{"abort", provision.ErrUserAbort, output.ExitSuccess, "Aborted."},
		{"command", cmdErr, 2, "No such device"},
		{"wrapped command", output.NewError(output.CodeStateNotFound, "could not find card").WithCause(cmdErr), 2, "could not find card"},
		{"config", output.NewError(output.CodeConfigParseError, "bad config"), output.ExitConfigError, "bad config"},
		{"not found", output.NewError(output.CodeStateNotFound, "could not find keys on card"), output.ExitGeneralError, "keys on card"},
		{"generic", errors.New("boom"), output.ExitGeneralError, "boom"},
		{"no exit status", &gpg.CommandError{Command: gpg.Command{Program: "gpg"}, ExitCode: -1}, output.ExitGeneralError, "gpg"},
		{"explicit exit code", output.NewError(output.CodeOperationFailed, "interrupted").WithExitCode(130), 130, "interrupted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := PrintError(&buf, tt.err); got != tt.wantCode {
				t.Errorf("PrintError() = %d, want %d", got, tt.wantCode)
			}
			if !strings.Contains(buf.String(), tt.wantOut) {
				t.Errorf("output %q missing %q", buf.String(), tt.wantOut)
			}
		})
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ykpgp", "config")
	var stderr bytes.Buffer

	if err := InitConfig(path, "Ada Lovelace", "ada@example.com", &stderr); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Name != "Ada Lovelace" || cfg.Email != "ada@example.com" {
		t.Errorf("config = %+v", cfg)
	}
	if info, err := os.Stat(path); err != nil || info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode: %v, %v", info, err)
	}

	if err := InitConfig(path, "", "", &stderr); err == nil {
		t.Error("expected error for existing config")
	}
}
