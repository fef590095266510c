package gpg

import (
	"strings"
	"time"
)

// Slot is one of the three key positions of an OpenPGP card.
type Slot int

const (
	SlotSign Slot = iota
	SlotEncrypt
	SlotAuth
)

// Slots lists the card slots in the card's own order.
var Slots = []Slot{SlotSign, SlotEncrypt, SlotAuth}

// Number returns the 1-based slot number used by gpg's card menus.
func (s Slot) Number() int {
	return int(s) + 1
}

func (s Slot) String() string {
	switch s {
	case SlotSign:
		return "sign"
	case SlotEncrypt:
		return "encrypt"
	case SlotAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// CardState is the decoded `gpg --with-colons --card-status` output.
type CardState struct {
	Serial       string
	Surname      string
	GivenName    string
	Fingerprints [3]string
	Created      [3]time.Time
}

// Empty reports whether no slot holds a key.
func (c CardState) Empty() bool {
	for _, fp := range c.Fingerprints {
		if fp != "" {
			return false
		}
	}
	return true
}

// Occupied reports whether slot s holds a key.
func (c CardState) Occupied(s Slot) bool {
	return c.Fingerprints[s] != ""
}

// HasName reports whether a cardholder name is stored.
func (c CardState) HasName() bool {
	return c.Surname != "" || c.GivenName != ""
}

// ParseCardState decodes the colon form of the card status.
func ParseCardState(data []byte) CardState {
	var state CardState
	for _, rec := range ParseRecords(data) {
		switch rec.Kind() {
		case RecordSerial:
			state.Serial = rec.Field(1)
		case RecordName:
			state.Surname = rec.Field(1)
			state.GivenName = rec.Field(2)
		case RecordFingerprint:
			for _, s := range Slots {
				state.Fingerprints[s] = rec.Field(s.Number())
			}
		case RecordCardTimes:
			for _, s := range Slots {
				state.Created[s] = rec.Time(s.Number())
			}
		}
	}
	return state
}

// CardSummary holds the fields read from the human-readable card status.
type CardSummary struct {
	// KeyAttributes is the space-separated algorithm list, e.g.
	// "ed25519 cv25519 ed25519".
	KeyAttributes string
}

// ParseCardSummary decodes `gpg --card-status` output. Lines have the
// form "Label ....: value".
func ParseCardSummary(data []byte) CardSummary {
	var summary CardSummary
	for _, line := range strings.Split(string(data), "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimRight(strings.TrimSpace(label), ". ")
		value = strings.TrimSpace(value)

		if strings.EqualFold(label, "key attributes") {
			summary.KeyAttributes = strings.Join(strings.Fields(value), " ")
		}
	}
	return summary
}
