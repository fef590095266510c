package provision

import (
	"context"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

const pinMessage = `ykpgp will now set up your YubiKey. You will be asked for
your (Admin) PIN multiple times. These are the default
values:

  - PIN: 123456
  - Admin PIN: 12345678

After generating/copying the keys it will ask you to set
up new PINs for this YubiKey. Remember those.`

const passphraseMessage = `If you already have a keypair, you will also be asked for
its passphrase multiple times. Otherwise, make up
something long and safe if you plan on saving the keypair.`

// prepare shows the PIN notice, enables KDF and stores the cardholder
// name when the card has none. Only the name step is fatal.
func (p *Provisioner) prepare(ctx context.Context) error {
	p.ensurePinentry(ctx)

	message := pinMessage
	if p.settings.Flags.KeyringKey {
		message += "\n\n" + passphraseMessage
	}
	if err := p.client.Confirm(ctx, message); err != nil {
		p.logger.Debug().Err(err).Msg("confirmation dialog failed")
	}

	// Fails on cards that were not reset; not critical.
	if err := p.client.Edit(ctx, kdfSetupScript()); err != nil {
		p.out.Warnf(output.CodeWarnBestEffort, "KDF setup failed: %v", err)
	}

	// Splitting given name and surname is imperfect, so only set it if unset.
	card, err := p.client.CardStatus(ctx)
	if err != nil {
		return err
	}
	if card.HasName() {
		return nil
	}
	surname, given := p.settings.Identity.CardholderName()
	return p.client.Edit(ctx, nameScript(surname, given))
}

// ensurePinentry points the agent at pinentry-mac on macOS when no
// pinentry program is configured. The scripted edit sessions need a
// graphical pinentry there to ask for PINs.
func (p *Provisioner) ensurePinentry(ctx context.Context) {
	if p.goos != "darwin" {
		return
	}
	opts, err := p.client.AgentOptions(ctx)
	if err != nil {
		p.out.Warnf(output.CodeWarnBestEffort, "could not read gpg-agent options: %v", err)
		return
	}
	for _, o := range opts {
		if o.Name == "pinentry-program" && o.Enabled() {
			return
		}
	}
	path, err := p.lookPath("pinentry-mac")
	if err != nil {
		return
	}
	p.logger.Debug().Str("path", path).Msg("configuring pinentry-mac")
	if err := p.client.SetAgentOption(ctx, "pinentry-program", gpg.QuoteOption(path)); err != nil {
		p.out.Warnf(output.CodeWarnBestEffort, "could not set pinentry-program: %v", err)
	}
}
