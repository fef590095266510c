package provision

import (
	"context"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/algo"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
)

// generate creates all keys on the card itself.
func (p *Provisioner) generate(ctx context.Context) (*Result, error) {
	res := &Result{Path: PathGenerate}

	if err := p.negotiate(ctx, algo.Target(p.settings.Flags.RSA)); err != nil {
		return nil, err
	}

	card, err := p.client.CardStatus(ctx)
	if err != nil {
		return nil, err
	}
	if card.Serial == "" {
		return nil, notFound(nil, "card serial number")
	}

	key, err := p.provisionedKey(ctx, card)
	if err != nil {
		return nil, err
	}
	if key == nil {
		p.logger.Debug().Str("serial", card.Serial).Bool("replace", !card.Empty()).Msg("generating keys on card")
		if err := p.client.Edit(ctx, generateScript(p.settings.Identity, !card.Empty())); err != nil {
			return nil, err
		}
		res.Created = append(res.Created, "card-keys")

		key, err = p.client.FindSecretKeyBySerial(ctx, card.Serial)
		if err != nil {
			return nil, notFound(err, "key for card "+card.Serial)
		}
	}
	res.Fingerprint = key.Fingerprint

	added, err := ReconcileUIDs(ctx, p.client, key.Fingerprint, p.settings.Identity.UIDs)
	if err != nil {
		return nil, err
	}
	res.Created = append(res.Created, added...)

	if err := p.client.Edit(ctx, pinPolicyScript()); err != nil {
		return nil, err
	}
	return res, nil
}

// provisionedKey returns the keyring key already bound to a card that
// holds keys in every slot, or nil when keys must be generated.
func (p *Provisioner) provisionedKey(ctx context.Context, card gpg.CardState) (*gpg.Key, error) {
	for _, s := range gpg.Slots {
		if !card.Occupied(s) {
			return nil, nil
		}
	}
	key, err := p.client.FindSecretKeyBySerial(ctx, card.Serial)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	_, _, hasEnc := key.FirstSubkey(gpg.CapEncrypt)
	_, _, hasAuth := key.FirstSubkey(gpg.CapAuthenticate)
	if !hasEnc || !hasAuth || !key.HasUID(p.settings.Identity.Primary()) {
		return nil, nil
	}
	return key, nil
}

// negotiate reconfigures the card's key attributes when they differ
// from target.
func (p *Provisioner) negotiate(ctx context.Context, target algo.Triple) error {
	summary, err := p.client.CardSummary(ctx)
	if err != nil {
		return err
	}
	script, ok := algo.Negotiate(target, summary.KeyAttributes)
	if !ok {
		p.logger.Debug().Str("algorithms", target.String()).Msg("card key attributes already match")
		return nil
	}
	p.logger.Debug().Str("from", summary.KeyAttributes).Str("to", target.String()).Msg("changing card key attributes")
	return p.client.Edit(ctx, script)
}
