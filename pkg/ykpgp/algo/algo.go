// Package algo maps keyring key algorithms onto the card's key-attribute
// settings and decides when the card must be reconfigured.
package algo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
)

// Algorithm is a key algorithm as the card status prints it,
// e.g. "rsa4096", "ed25519" or "cv25519".
type Algorithm string

const (
	Ed25519    Algorithm = "ed25519"
	Curve25519 Algorithm = "cv25519"
	Ed448      Algorithm = "ed448"
	Curve448   Algorithm = "cv448"

	// DefaultRSABits is the key size used when RSA is preferred.
	DefaultRSABits = 4096
)

// RSA returns the RSA algorithm with the given modulus size.
func RSA(bits int) Algorithm {
	return Algorithm("rsa" + strconv.Itoa(bits))
}

// IsRSA reports whether a is an RSA variant.
func (a Algorithm) IsRSA() bool {
	return strings.HasPrefix(string(a), "rsa")
}

// Bits returns the RSA modulus size, or 0 for curve algorithms.
func (a Algorithm) Bits() int {
	if !a.IsRSA() {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(string(a), "rsa"))
	if err != nil {
		return 0
	}
	return n
}

// keyAttr returns the answers to the card's key-attr dialog for one slot:
// the key type followed by the key size or curve choice.
//
// Every non-RSA algorithm is answered with the first ECC curve offered
// (Curve 25519). Other curve families cannot be expressed.
func (a Algorithm) keyAttr() []string {
	if a.IsRSA() {
		return []string{"1", strconv.Itoa(a.Bits())}
	}
	return []string{"2", "1"}
}

// Triple is the algorithm of each card slot: sign, encrypt, auth.
type Triple struct {
	Sign    Algorithm
	Encrypt Algorithm
	Auth    Algorithm
}

// String serializes the triple the way the card status reports it.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", t.Sign, t.Encrypt, t.Auth)
}

// Slots returns the algorithms in card slot order.
func (t Triple) Slots() [3]Algorithm {
	return [3]Algorithm{t.Sign, t.Encrypt, t.Auth}
}

// Target returns the triple for keys generated directly on the card.
func Target(rsa bool) Triple {
	if rsa {
		r := RSA(DefaultRSABits)
		return Triple{Sign: r, Encrypt: r, Auth: r}
	}
	return Triple{Sign: Ed25519, Encrypt: Curve25519, Auth: Ed25519}
}

// FromKeyPart derives the card algorithm of a keyring key or subkey from
// its OpenPGP algorithm id, key length and curve name.
func FromKeyPart(p gpg.KeyPart) (Algorithm, error) {
	curve := strings.ToLower(strings.TrimSpace(p.Curve))

	switch packet.PublicKeyAlgorithm(p.Algorithm) {
	case packet.PubKeyAlgoRSA, packet.PubKeyAlgoRSAEncryptOnly, packet.PubKeyAlgoRSASignOnly:
		if p.Bits <= 0 {
			return "", fmt.Errorf("RSA key %s has no key length", p.KeyID)
		}
		return RSA(p.Bits), nil
	case packet.PubKeyAlgoEd25519:
		return Ed25519, nil
	case packet.PubKeyAlgoX25519:
		return Curve25519, nil
	case packet.PubKeyAlgoEd448:
		return Ed448, nil
	case packet.PubKeyAlgoX448:
		return Curve448, nil
	case packet.PubKeyAlgoEdDSA, packet.PubKeyAlgoECDH, packet.PubKeyAlgoECDSA:
		if mapped, ok := curveMappings[curve]; ok {
			return mapped, nil
		}
		if curve == "" {
			return "", fmt.Errorf("ECC key %s has no curve", p.KeyID)
		}
		return Algorithm(curve), nil
	default:
		return "", fmt.Errorf("unsupported algorithm %d for key %s", p.Algorithm, p.KeyID)
	}
}

// curveMappings normalizes the curve names gpg prints.
var curveMappings = map[string]Algorithm{
	"ed25519":    Ed25519,
	"curve25519": Curve25519,
	"cv25519":    Curve25519,
	"x25519":     Curve25519,
	"ed448":      Ed448,
	"cv448":      Curve448,
	"x448":       Curve448,
	"nist p-256": "nistp256",
	"nist p-384": "nistp384",
	"nist p-521": "nistp521",
}

// FromKeyring derives the triple from a keyring key: the primary key for
// the sign slot and the first encryption and authentication subkeys for
// the other two. The card must mirror the keys about to be moved onto it.
func FromKeyring(key gpg.Key) (Triple, error) {
	var t Triple
	var err error

	if t.Sign, err = FromKeyPart(key.KeyPart); err != nil {
		return Triple{}, err
	}

	enc, _, ok := key.FirstSubkey(gpg.CapEncrypt)
	if !ok {
		return Triple{}, &gpg.NotFoundError{What: "encryption subkey of " + key.Fingerprint}
	}
	if t.Encrypt, err = FromKeyPart(enc); err != nil {
		return Triple{}, err
	}

	auth, _, ok := key.FirstSubkey(gpg.CapAuthenticate)
	if !ok {
		return Triple{}, &gpg.NotFoundError{What: "authentication subkey of " + key.Fingerprint}
	}
	if t.Auth, err = FromKeyPart(auth); err != nil {
		return Triple{}, err
	}
	return t, nil
}

// Negotiate compares target against the card's current key attributes
// (as printed by the card status) and returns the card-edit script that
// reconfigures the card. ok is false when the card already matches.
func Negotiate(target Triple, current string) (script gpg.Script, ok bool) {
	if strings.Join(strings.Fields(current), " ") == target.String() {
		return gpg.Script{}, false
	}

	script = gpg.CardEdit("admin", "key-attr")
	for _, a := range target.Slots() {
		script.Append(a.keyAttr()...)
	}
	return script, true
}
