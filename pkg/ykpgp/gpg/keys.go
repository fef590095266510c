package gpg

import (
	"strings"
	"time"
)

// Capability is a key usage flag as printed in field 12 of key records.
type Capability rune

const (
	CapSign         Capability = 's'
	CapCertify      Capability = 'c'
	CapEncrypt      Capability = 'e'
	CapAuthenticate Capability = 'a'
)

// KeyPart holds the fields shared by primary keys and subkeys.
type KeyPart struct {
	Fingerprint  string
	KeyID        string
	Grip         string
	Algorithm    int
	Bits         int
	Curve        string
	Capabilities string
	Created      time.Time
	// Serial is the token serial number for keys whose secret part
	// lives on a card.
	Serial string
}

// Can reports whether the capability flags include c. The comparison
// is case-insensitive.
func (p KeyPart) Can(c Capability) bool {
	return strings.ContainsRune(strings.ToLower(p.Capabilities), rune(c))
}

// Key is a primary key with its user IDs and subkeys in listing order.
type Key struct {
	KeyPart
	Secret  bool
	UIDs    []string
	Subkeys []KeyPart
}

// PrimaryUID returns the first user ID listed after the key record.
func (k Key) PrimaryUID() string {
	if len(k.UIDs) == 0 {
		return ""
	}
	return k.UIDs[0]
}

// HasUID reports whether uid is bound to the key (exact match).
func (k Key) HasUID(uid string) bool {
	for _, u := range k.UIDs {
		if u == uid {
			return true
		}
	}
	return false
}

// FirstSubkey returns the first subkey carrying capability c together
// with its 1-based position among all subkeys.
func (k Key) FirstSubkey(c Capability) (KeyPart, int, bool) {
	for i, sk := range k.Subkeys {
		if sk.Can(c) {
			return sk, i + 1, true
		}
	}
	return KeyPart{}, 0, false
}

// Grips returns the keygrips of the primary key and every subkey.
func (k Key) Grips() []string {
	var grips []string
	if k.Grip != "" {
		grips = append(grips, k.Grip)
	}
	for _, sk := range k.Subkeys {
		if sk.Grip != "" {
			grips = append(grips, sk.Grip)
		}
	}
	return grips
}

// ParseKeys groups key listing records into keys. fpr and grp records
// attach to the most recent key or subkey record; uid records attach
// to the most recent key.
func ParseKeys(records []Record) []Key {
	var keys []Key
	var current *KeyPart

	for _, rec := range records {
		switch rec.Kind() {
		case RecordPublicKey, RecordSecretKey:
			keys = append(keys, Key{
				KeyPart: partFromRecord(rec),
				Secret:  rec.Kind() == RecordSecretKey,
			})
			current = &keys[len(keys)-1].KeyPart
		case RecordPublicSubkey, RecordSecretSubkey:
			if len(keys) == 0 {
				continue
			}
			k := &keys[len(keys)-1]
			k.Subkeys = append(k.Subkeys, partFromRecord(rec))
			current = &k.Subkeys[len(k.Subkeys)-1]
		case RecordFingerprint:
			if current != nil && current.Fingerprint == "" {
				current.Fingerprint = rec.Field(FieldUserID)
			}
		case RecordKeygrip:
			if current != nil && current.Grip == "" {
				current.Grip = rec.Field(FieldUserID)
			}
		case RecordUserID:
			if len(keys) == 0 {
				continue
			}
			k := &keys[len(keys)-1]
			k.UIDs = append(k.UIDs, rec.Field(FieldUserID))
		}
	}
	return keys
}

func partFromRecord(rec Record) KeyPart {
	return KeyPart{
		KeyID:        rec.Field(FieldKeyID),
		Algorithm:    rec.Int(FieldAlgorithm),
		Bits:         rec.Int(FieldKeyLength),
		Curve:        rec.Field(FieldCurve),
		Capabilities: rec.Field(FieldCapabilities),
		Created:      rec.Time(FieldCreated),
		Serial:       rec.Field(FieldTokenSerial),
	}
}
