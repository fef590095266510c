package backup

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/gopenpgp/v3/crypto"
)

// ErrUnusable is returned by Restore for a backup that failed inspection.
var ErrUnusable = errors.New("backup is not usable")

// Keyring is the part of the key-management tool the guard needs.
type Keyring interface {
	ExportSecretKeys(ctx context.Context, fingerprint string) ([]byte, error)
	Import(ctx context.Context, data []byte) error
}

// Snapshot identifies the key material held in a backup.
type Snapshot struct {
	Fingerprint string
	Subkeys     []string
}

// Equal reports whether both snapshots name the same keys.
func (s Snapshot) Equal(o Snapshot) bool {
	return strings.EqualFold(s.Fingerprint, o.Fingerprint) && slices.Equal(s.Subkeys, o.Subkeys)
}

// Backup is an in-memory armored export of a key's secret material.
type Backup struct {
	Fingerprint string
	Armored     []byte
	Snapshot    Snapshot
	// Err records why the export could not be inspected. A backup with
	// Err set is never re-imported.
	Err error
}

// Usable reports whether the backup passed inspection.
func (b *Backup) Usable() bool {
	return b != nil && b.Err == nil && len(b.Armored) > 0
}

// Guard takes a backup before a destructive transfer and restores it
// afterwards.
type Guard struct {
	keyring Keyring
}

// NewGuard returns a guard operating on keyring.
func NewGuard(keyring Keyring) *Guard {
	return &Guard{keyring: keyring}
}

// Export saves all secret material of fingerprint. A failing export
// command is returned as an error; an export that is empty or cannot be
// parsed is returned with Backup.Err set.
func (g *Guard) Export(ctx context.Context, fingerprint string) (*Backup, error) {
	armored, err := g.keyring.ExportSecretKeys(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to export secret keys: %w", err)
	}

	b := &Backup{Fingerprint: fingerprint, Armored: armored}
	snap, err := Inspect(armored)
	switch {
	case err != nil:
		b.Err = err
	case !strings.EqualFold(snap.Fingerprint, fingerprint):
		b.Err = fmt.Errorf("backup holds key %s, expected %s", snap.Fingerprint, fingerprint)
	default:
		b.Snapshot = snap
	}
	return b, nil
}

// Restore re-imports exactly the exported bytes. Importing material the
// keyring already knows leaves existing records unchanged.
func (g *Guard) Restore(ctx context.Context, b *Backup) error {
	if !b.Usable() {
		return ErrUnusable
	}
	if err := g.keyring.Import(ctx, b.Armored); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}

// Inspect parses an armored secret key export.
func Inspect(armored []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(armored)) == 0 {
		return Snapshot{}, errors.New("export is empty")
	}

	block, err := armor.Decode(bytes.NewReader(armored))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode armor: %w", err)
	}
	if block.Type != openpgp.PrivateKeyType {
		return Snapshot{}, fmt.Errorf("unexpected armor type %q", block.Type)
	}

	key, err := crypto.NewKeyFromArmored(string(armored))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse key: %w", err)
	}
	if !key.IsPrivate() {
		return Snapshot{}, errors.New("export holds no secret key")
	}

	snap := Snapshot{Fingerprint: strings.ToUpper(key.GetFingerprint())}
	if entity := key.GetEntity(); entity != nil {
		for _, sk := range entity.Subkeys {
			if sk.PublicKey == nil {
				continue
			}
			snap.Subkeys = append(snap.Subkeys, strings.ToUpper(hex.EncodeToString(sk.PublicKey.Fingerprint)))
		}
	}
	return snap, nil
}
