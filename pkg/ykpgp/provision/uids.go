package provision

import (
	"context"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
)

// ReconcileUIDs adds every uid missing from the key. Adding a user ID may
// make it the primary; the primary from before the additions is then
// restored. It returns the user IDs that were added.
func ReconcileUIDs(ctx context.Context, client *gpg.Client, fingerprint string, uids []string) ([]string, error) {
	key, err := client.SecretKey(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	primary := key.PrimaryUID()

	var added []string
	for _, uid := range uids {
		if key.HasUID(uid) {
			continue
		}
		if err := client.QuickAddUID(ctx, fingerprint, uid); err != nil {
			return added, err
		}
		added = append(added, uid)
	}
	if len(added) == 0 || primary == "" {
		return added, nil
	}

	key, err = client.SecretKey(ctx, fingerprint)
	if err != nil {
		return added, err
	}
	if key.PrimaryUID() != primary {
		if err := client.QuickSetPrimaryUID(ctx, fingerprint, primary); err != nil {
			return added, err
		}
	}
	return added, nil
}
