package provision

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg/gpgtest"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/integration"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

const adaUID = "Ada Lovelace <ada@example.com>"

func ada(t *testing.T, extra ...string) identity.Identity {
	t.Helper()
	id, err := identity.New("Ada Lovelace", "ada@example.com", extra...)
	require.NoError(t, err)
	return id
}

func newProvisioner(sim *gpgtest.Sim, settings Settings, opts ...Option) (*Provisioner, *output.Handler) {
	out := output.Discard()
	opts = append([]Option{WithOutput(out)}, opts...)
	p := New(settings, sim.Client(), opts...)
	p.goos = "linux"
	p.lookPath = func(string) (string, error) {
		return "", exec.ErrNotFound
	}
	return p, out
}

func warningCodes(h *output.Handler) []output.Code {
	var codes []output.Code
	for _, w := range h.GetWarnings() {
		codes = append(codes, w.Code)
	}
	return codes
}

type recordedIntegrations struct {
	git   []integration.Scope
	ssh   []string
	fprs  []string
	calls int
}

func (r *recordedIntegrations) EnableGit(_ context.Context, scope integration.Scope, fingerprint string, _ identity.Identity) error {
	r.calls++
	r.git = append(r.git, scope)
	r.fprs = append(r.fprs, fingerprint)
	return nil
}

func (r *recordedIntegrations) EnableSSH(_ context.Context, fingerprint string) error {
	r.calls++
	r.ssh = append(r.ssh, fingerprint)
	return nil
}
