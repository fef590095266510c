package provision

import (
	"context"
	"strings"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
)

// Register creates a keyring key for keys that already live on the card.
// The key's creation time is faked to the card key's so the resulting
// fingerprints match the card.
func (p *Provisioner) Register(ctx context.Context) (*Result, error) {
	res := &Result{Path: PathRegister}
	primary := p.settings.Identity.Primary()
	p.ensurePinentry(ctx)

	card, err := p.client.CardStatus(ctx)
	if err != nil {
		return nil, err
	}
	if card.Empty() {
		return nil, notFound(nil, "keys on card")
	}
	if card.Serial == "" {
		return nil, notFound(nil, "card serial number")
	}
	signed := card.Created[gpg.SlotSign]
	if signed.IsZero() {
		return nil, notFound(nil, "creation time of the card's signature key")
	}

	key, err := p.client.FindSecretKeyByUID(ctx, primary)
	if err != nil {
		return nil, err
	}
	if key != nil && !onCard(key, card.Serial) {
		key = nil
	}
	if key == nil {
		p.logger.Debug().Time("created", signed).Msg("registering card keys")
		if err := p.client.QuickGenKey(ctx, primary, "card", "", "", signed); err != nil {
			return nil, err
		}
		res.Created = append(res.Created, "primary")
		key, err = p.client.FindSecretKeyBySerial(ctx, card.Serial)
		if err != nil {
			return nil, notFound(err, "fingerprint for UID "+primary)
		}
		if err := p.client.QuickSetExpire(ctx, key.Fingerprint, "0"); err != nil {
			return nil, err
		}
	}
	fpr := key.Fingerprint
	res.Fingerprint = fpr

	if _, _, ok := key.FirstSubkey(gpg.CapAuthenticate); !ok && card.Occupied(gpg.SlotAuth) {
		at := card.Created[gpg.SlotAuth]
		if at.IsZero() {
			at = signed
		}
		if err := p.client.QuickAddKey(ctx, fpr, "card", "auth", "", at); err != nil {
			return nil, err
		}
		res.Created = append(res.Created, "auth")
	}

	added, err := ReconcileUIDs(ctx, p.client, fpr, p.settings.Identity.UIDs)
	if err != nil {
		return nil, err
	}
	res.Created = append(res.Created, added...)

	if err := p.integrate(ctx, fpr); err != nil {
		return nil, err
	}
	return res, nil
}

func onCard(key *gpg.Key, serial string) bool {
	return serial != "" && strings.Contains(strings.ToUpper(key.Serial), strings.ToUpper(serial))
}
