package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg/gpgtest"
)

func TestReconcileUIDsRestoresPrimary(t *testing.T) {
	const a, b = "A <a@example.com>", "B <b@example.com>"
	ctx := context.Background()

	tests := []struct {
		name          string
		primaryFollow bool
		setPrimary    int
	}{
		{"primary unchanged", false, 0},
		{"primary changed by add", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := gpgtest.New()
			sim.PrimaryFollowsAdd = tt.primaryFollow
			k := sim.AddKey(b, "ed25519")

			added, err := ReconcileUIDs(ctx, sim.Client(), k.Fingerprint, []string{a, b})
			require.NoError(t, err)

			assert.Equal(t, []string{a}, added)
			assert.ElementsMatch(t, []string{a, b}, k.UIDs)
			assert.Equal(t, b, k.UIDs[0], "pre-addition primary is kept")

			calls := sim.CallsWith("--quick-set-primary-uid")
			require.Len(t, calls, tt.setPrimary)
			if tt.setPrimary > 0 {
				assert.Equal(t, []string{"--quick-set-primary-uid", k.Fingerprint, b}, calls[0].Args)
			}
		})
	}
}

func TestReconcileUIDsNothingToAdd(t *testing.T) {
	sim := gpgtest.New()
	k := sim.AddKey("A <a@example.com>", "ed25519")
	k.UIDs = append(k.UIDs, "B <b@example.com>")

	added, err := ReconcileUIDs(context.Background(), sim.Client(), k.Fingerprint, []string{"B <b@example.com>", "A <a@example.com>"})
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Zero(t, sim.Count("--quick-add-uid"))
	assert.Zero(t, sim.Count("--quick-set-primary-uid"))
}

func TestOrdinals(t *testing.T) {
	// Capabilities in listing order: sign, auth, encrypt, auth.
	key := gpg.Key{
		KeyPart: gpg.KeyPart{Fingerprint: "FPR"},
		Subkeys: []gpg.KeyPart{
			{Capabilities: "s"},
			{Capabilities: "a"},
			{Capabilities: "e"},
			{Capabilities: "a"},
		},
	}

	enc, auth, err := Ordinals(key)
	require.NoError(t, err)
	assert.Equal(t, 3, enc)
	assert.Equal(t, 2, auth)

	key.Subkeys = key.Subkeys[:2]
	_, _, err = Ordinals(key)
	require.Error(t, err)
}
