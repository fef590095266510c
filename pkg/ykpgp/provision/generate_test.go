package provision

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg/gpgtest"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

func TestInitGenerateFreshCard(t *testing.T) {
	ctx := context.Background()
	sim := gpgtest.New()
	p, _ := newProvisioner(sim, Settings{Identity: ada(t)})

	res, err := p.Init(ctx)
	require.NoError(t, err)

	assert.Equal(t, PathGenerate, res.Path)
	assert.Equal(t, [3]string{"ed25519", "cv25519", "ed25519"}, sim.Card.Attributes)

	keyAttr := sim.ScriptsWith("key-attr")
	require.Len(t, keyAttr, 1)
	assert.Equal(t, []string{"admin", "key-attr", "2", "1", "2", "1", "2", "1"}, keyAttr[0].Lines)

	gen := sim.ScriptsWith("generate")
	require.Len(t, gen, 1)
	assert.Equal(t, []string{"admin", "generate", "n", "0", "y", "Ada Lovelace", "ada@example.com", ""}, gen[0].Lines,
		"an empty card needs no replace confirmation")

	for i, fp := range sim.Card.Fingerprints {
		assert.NotEmpty(t, fp, "slot %d", i+1)
	}
	assert.Equal(t, sim.Card.Fingerprints[0], res.Fingerprint)

	key := sim.Key(res.Fingerprint)
	require.NotNil(t, key)
	assert.Equal(t, []string{adaUID}, key.UIDs)

	assert.Len(t, sim.ScriptsWith("passwd"), 1)
	assert.Len(t, sim.ScriptsWith("kdf-setup"), 1)
	assert.Equal(t, "Lovelace", sim.Card.Surname)
	assert.Equal(t, "Ada", sim.Card.GivenName)
	msgs := confirmations(sim)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Admin PIN: 12345678")
	assert.NotContains(t, msgs[0], "passphrase")
}

func confirmations(sim *gpgtest.Sim) []string {
	var msgs []string
	for _, c := range sim.Calls {
		if c.Program != "gpg-connect-agent" || len(c.Args) == 0 {
			continue
		}
		if msg, ok := strings.CutPrefix(c.Args[0], "get_confirmation "); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestInitGenerateRSA(t *testing.T) {
	sim := gpgtest.New()
	p, _ := newProvisioner(sim, Settings{Identity: ada(t), Flags: Flags{RSA: true}})

	_, err := p.Init(context.Background())
	require.NoError(t, err)

	keyAttr := sim.ScriptsWith("key-attr")
	require.Len(t, keyAttr, 1)
	assert.Equal(t, []string{"admin", "key-attr", "1", "4096", "1", "4096", "1", "4096"}, keyAttr[0].Lines)
	assert.Equal(t, [3]string{"rsa4096", "rsa4096", "rsa4096"}, sim.Card.Attributes)
}

func TestInitGenerateReplacesOccupiedCard(t *testing.T) {
	sim := gpgtest.New()
	sim.Card.Attributes = [3]string{"ed25519", "cv25519", "ed25519"}
	sim.Card.Fingerprints = [3]string{"", "OLDENCRYPTIONKEY", ""}
	p, _ := newProvisioner(sim, Settings{Identity: ada(t)})

	_, err := p.Init(context.Background())
	require.NoError(t, err)

	assert.Empty(t, sim.ScriptsWith("key-attr"), "matching attributes need no change")
	gen := sim.ScriptsWith("generate")
	require.Len(t, gen, 1)
	assert.Equal(t, []string{"admin", "generate", "n", "y", "0", "y", "Ada Lovelace", "ada@example.com", ""}, gen[0].Lines)
	assert.NotEqual(t, "OLDENCRYPTIONKEY", sim.Card.Fingerprints[1])
}

func TestInitGenerateIdempotent(t *testing.T) {
	ctx := context.Background()
	sim := gpgtest.New()
	settings := Settings{Identity: ada(t, "Ada <ada@work.example>")}

	p, _ := newProvisioner(sim, settings)
	first, err := p.Init(ctx)
	require.NoError(t, err)
	assert.Contains(t, first.Created, "card-keys")
	assert.Contains(t, first.Created, "Ada <ada@work.example>")

	sim.Calls = nil
	sim.Scripts = nil

	p, _ = newProvisioner(sim, settings)
	second, err := p.Init(ctx)
	require.NoError(t, err)

	assert.Empty(t, second.Created)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Empty(t, sim.ScriptsWith("generate"))
	assert.Empty(t, sim.ScriptsWith("key-attr"))
	assert.Empty(t, sim.ScriptsWith("name"), "cardholder name is already set")
	for _, arg := range []string{"--quick-gen-key", "--quick-add-key", "--quick-add-uid", "--quick-set-primary-uid"} {
		assert.Zero(t, sim.Count(arg), arg)
	}
}

func TestInitKeepsCardholderName(t *testing.T) {
	sim := gpgtest.New()
	sim.Card.Surname = "Byron"
	p, _ := newProvisioner(sim, Settings{Identity: ada(t)})

	_, err := p.Init(context.Background())
	require.NoError(t, err)

	assert.Empty(t, sim.ScriptsWith("name"))
	assert.Equal(t, "Byron", sim.Card.Surname)
}

func TestInitKDFSetupIsBestEffort(t *testing.T) {
	sim := gpgtest.New()
	sim.ScriptFailures["kdf-setup"] = 2
	p, out := newProvisioner(sim, Settings{Identity: ada(t)})

	_, err := p.Init(context.Background())
	require.NoError(t, err)
	assert.Contains(t, warningCodes(out), output.CodeWarnBestEffort)
	assert.Len(t, sim.ScriptsWith("generate"), 1)
}

func TestInitRunsIntegrations(t *testing.T) {
	sim := gpgtest.New()
	rec := &recordedIntegrations{}
	settings := Settings{Identity: ada(t), Flags: Flags{Git: "global", SSH: true}}
	p, _ := newProvisioner(sim, settings, WithIntegrations(rec))

	res, err := p.Init(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, rec.calls)
	assert.Equal(t, []string{res.Fingerprint}, rec.fprs)
	assert.Equal(t, []string{res.Fingerprint}, rec.ssh)
}

func TestInitWithoutCardFails(t *testing.T) {
	sim := gpgtest.New()
	sim.Card.Present = false
	p, _ := newProvisioner(sim, Settings{Identity: ada(t)})

	_, err := p.Init(context.Background())
	require.Error(t, err)
	assert.Empty(t, sim.ScriptsWith("generate"))
}

func TestPreparePinentry(t *testing.T) {
	const pinentryMac = "/opt/homebrew/bin/pinentry-mac"
	found := func(string) (string, error) { return pinentryMac, nil }
	missing := func(string) (string, error) { return "", exec.ErrNotFound }

	tests := []struct {
		name       string
		goos       string
		configured string
		lookPath   func(string) (string, error)
		fail       bool
		want       string
		wantWarn   bool
	}{
		{name: "macos unset", goos: "darwin", lookPath: found, want: gpg.QuoteOption(pinentryMac)},
		{name: "macos configured", goos: "darwin", configured: `"/usr/local/bin/pinentry-tty`, lookPath: found, want: `"/usr/local/bin/pinentry-tty`},
		{name: "macos without pinentry-mac", goos: "darwin", lookPath: missing},
		{name: "linux", goos: "linux", lookPath: found},
		{name: "change fails", goos: "darwin", lookPath: found, fail: true, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := gpgtest.New()
			if tt.configured != "" {
				sim.AgentOptions["pinentry-program"] = tt.configured
			}
			if tt.fail {
				sim.Failures["--change-options"] = 1
			}
			p, out := newProvisioner(sim, Settings{Identity: ada(t)})
			p.goos = tt.goos
			p.lookPath = tt.lookPath

			_, err := p.Init(context.Background())
			require.NoError(t, err, "pinentry setup is best effort")

			assert.Equal(t, tt.want, sim.AgentOptions["pinentry-program"])
			if tt.goos != "darwin" {
				assert.Zero(t, sim.Count("--list-options"))
			}
			if tt.wantWarn {
				assert.Contains(t, warningCodes(out), output.CodeWarnBestEffort)
			}
		})
	}
}
