package provision

import (
	"context"
	"errors"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/algo"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// migrate moves a keyring key onto the card, creating the key and its
// subkeys first when they are missing.
func (p *Provisioner) migrate(ctx context.Context) (*Result, error) {
	res := &Result{Path: PathMigrate}
	primary := p.settings.Identity.Primary()

	key, err := p.client.FindSecretKeyByUID(ctx, primary)
	if err != nil {
		return nil, err
	}
	if key == nil {
		p.logger.Debug().Str("uid", primary).Msg("creating keyring key")
		if err := p.client.QuickGenKey(ctx, primary, p.keyAlgo(gpg.CapSign), "sign,cert", "0", zeroTime); err != nil {
			return nil, err
		}
		res.Created = append(res.Created, "primary")
		if key, err = p.client.FindSecretKeyByUID(ctx, primary); err != nil {
			return nil, err
		}
		if key == nil {
			return nil, notFound(nil, "fingerprint for UID "+primary)
		}
	}
	fpr := key.Fingerprint
	res.Fingerprint = fpr

	subkeys := []struct {
		capability gpg.Capability
		usage      string
		name       string
	}{
		{gpg.CapEncrypt, "encr", "encrypt"},
		{gpg.CapAuthenticate, "auth", "auth"},
	}
	for _, sk := range subkeys {
		key, err := p.client.SecretKey(ctx, fpr)
		if err != nil {
			return nil, err
		}
		if _, _, ok := key.FirstSubkey(sk.capability); ok {
			continue
		}
		p.logger.Debug().Str("usage", sk.usage).Msg("adding subkey")
		if err := p.client.QuickAddKey(ctx, fpr, p.keyAlgo(sk.capability), sk.usage, "0", zeroTime); err != nil {
			return nil, err
		}
		res.Created = append(res.Created, sk.name)
	}

	added, err := ReconcileUIDs(ctx, p.client, fpr, p.settings.Identity.UIDs)
	if err != nil {
		return nil, err
	}
	res.Created = append(res.Created, added...)

	if key, err = p.client.SecretKey(ctx, fpr); err != nil {
		return nil, err
	}
	target, err := algo.FromKeyring(*key)
	if err != nil {
		return nil, err
	}
	if err := p.negotiate(ctx, target); err != nil {
		return nil, err
	}

	enc, auth, err := Ordinals(*key)
	if err != nil {
		return nil, err
	}

	// Nothing destructive has happened yet; the backup is the only way back.
	saved, err := p.guard.Export(ctx, fpr)
	if err != nil {
		return nil, err
	}
	if !saved.Usable() {
		p.out.Warnf(output.CodeWarnBackup, "backup of %s is not usable, keys will not be restored: %v", fpr, saved.Err)
	}

	card, err := p.client.CardStatus(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Debug().Int("encrypt", enc).Int("auth", auth).Msg("moving keys to card")
	if err := p.client.Edit(ctx, keyToCardScript(fpr, card, enc, auth)); err != nil {
		return nil, err
	}
	if err := p.client.Edit(ctx, pinPolicyScript()); err != nil {
		return nil, err
	}

	if err := p.deleteStubs(ctx, fpr); err != nil {
		return nil, err
	}

	if saved.Usable() {
		if err := p.guard.Restore(ctx, saved); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// deleteStubs removes the local key objects left behind by the transfer.
func (p *Provisioner) deleteStubs(ctx context.Context, fingerprint string) error {
	key, err := p.client.SecretKey(ctx, fingerprint)
	if err != nil {
		return err
	}
	for _, grip := range key.Grips() {
		err := p.client.DeleteKey(ctx, grip)
		var agentErr *gpg.AgentError
		switch {
		case err == nil:
		case errors.As(err, &agentErr):
			p.out.Warnf(output.CodeWarnBestEffort, "could not delete key %s: %s", grip, agentErr.Reply)
		default:
			return err
		}
	}
	return nil
}
