package provision

import (
	"strconv"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
)

// Scripted edit sessions. Each answers the tool's prompts in order;
// a replace confirmation is only present when the tool will ask for it.

// generateScript creates all three keys on the card.
func generateScript(id identity.Identity, replace bool) gpg.Script {
	s := gpg.CardEdit("admin", "generate",
		"n", // no off-card backup of the encryption key
	)
	if replace {
		s.Append("y")
	}
	s.Append(
		"0", // no expiry
		"y",
		id.Name,
		id.Email,
		"", // comment
	)
	return s
}

// keyToCardScript moves the primary key and the subkeys at the given
// ordinals to the sign, encrypt and auth slots. The primary key is
// reselected before each subkey so exactly one key is selected per move.
func keyToCardScript(fingerprint string, card gpg.CardState, enc, auth int) gpg.Script {
	s := gpg.KeyEdit(fingerprint,
		"key 0", "keytocard", "y", // really move the primary key
		strconv.Itoa(gpg.SlotSign.Number()),
	)
	if card.Occupied(gpg.SlotSign) {
		s.Append("y")
	}

	moves := []struct {
		ordinal int
		slot    gpg.Slot
	}{
		{enc, gpg.SlotEncrypt},
		{auth, gpg.SlotAuth},
	}
	for _, m := range moves {
		s.Append("key 0", "key "+strconv.Itoa(m.ordinal), "keytocard", strconv.Itoa(m.slot.Number()))
		if card.Occupied(m.slot) {
			s.Append("y")
		}
	}
	s.Append("save")
	return s
}

// pinPolicyScript opens the PIN and Admin PIN change dialogs.
func pinPolicyScript() gpg.Script {
	return gpg.CardEdit("admin", "passwd", "1", "3", "Q")
}

func kdfSetupScript() gpg.Script {
	return gpg.CardEdit("admin", "kdf-setup")
}

func nameScript(surname, given string) gpg.Script {
	return gpg.CardEdit("admin", "name", surname, given)
}

func factoryResetScript() gpg.Script {
	return gpg.CardEdit("admin", "factory-reset", "y", "yes")
}

// Ordinals returns the 1-based positions, among all subkeys in listing
// order, of the first encryption and the first authentication subkey.
// The key-edit session selects subkeys by this position.
func Ordinals(key gpg.Key) (enc, auth int, err error) {
	_, enc, ok := key.FirstSubkey(gpg.CapEncrypt)
	if !ok {
		return 0, 0, notFound(nil, "encryption subkey of "+key.Fingerprint)
	}
	_, auth, ok = key.FirstSubkey(gpg.CapAuthenticate)
	if !ok {
		return 0, 0, notFound(nil, "authentication subkey of "+key.Fingerprint)
	}
	return enc, auth, nil
}
