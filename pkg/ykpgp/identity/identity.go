package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrIncomplete is returned when no name or email could be resolved.
var ErrIncomplete = errors.New("name and email are required")

// Identity is the user's declared identity for one run. It is built once
// and never modified afterwards.
type Identity struct {
	Name  string
	Email string
	// UIDs lists every declared user ID; index 0 is the intended primary.
	UIDs []string
}

// FormatUID renders a user ID as "Name <email>".
func FormatUID(name, email string) string {
	return fmt.Sprintf("%s <%s>", name, email)
}

// ParseUID splits a "Name <email>" user ID. ok is false when uid has no
// angle-bracketed address.
func ParseUID(uid string) (name, email string, ok bool) {
	uid = strings.TrimSpace(uid)
	open := strings.LastIndex(uid, "<")
	if open < 0 || !strings.HasSuffix(uid, ">") {
		return "", "", false
	}
	name = strings.TrimSpace(uid[:open])
	email = strings.TrimSpace(uid[open+1 : len(uid)-1])
	if email == "" {
		return "", "", false
	}
	return name, email, true
}

// New builds an identity from a name and email. extra user IDs follow the
// primary in the given order; duplicates are dropped.
func New(name, email string, extra ...string) (Identity, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return Identity{}, ErrIncomplete
	}
	return Identity{
		Name:  name,
		Email: email,
		UIDs:  dedupe(append([]string{FormatUID(name, email)}, extra...)),
	}, nil
}

// FromUIDs builds an identity from an explicit UID list. The first entry
// is the primary and supplies the name and email.
func FromUIDs(uids []string) (Identity, error) {
	uids = dedupe(uids)
	if len(uids) == 0 {
		return Identity{}, ErrIncomplete
	}
	name, email, ok := ParseUID(uids[0])
	if !ok || name == "" {
		return Identity{}, fmt.Errorf("invalid user ID %q: expected \"Name <email>\"", uids[0])
	}
	return Identity{Name: name, Email: email, UIDs: uids}, nil
}

// Primary returns the declared primary user ID.
func (i Identity) Primary() string {
	if len(i.UIDs) == 0 {
		return ""
	}
	return i.UIDs[0]
}

// Has reports whether uid is one of the declared user IDs.
func (i Identity) Has(uid string) bool {
	for _, u := range i.UIDs {
		if u == uid {
			return true
		}
	}
	return false
}

var parenthesizedGiven = regexp.MustCompile(`^(.*\S)\s+\(([^)]+)\)$`)

// CardholderName splits the primary user ID's name into the surname and
// given name stored on the card. "Surname (Given Names)" marks the split
// explicitly; otherwise the last word is taken as the surname.
func (i Identity) CardholderName() (surname, given string) {
	name, _, ok := ParseUID(i.Primary())
	if !ok {
		name = i.Name
	}
	if m := parenthesizedGiven.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[len(fields)-1], strings.Join(fields[:len(fields)-1], " ")
}

func dedupe(uids []string) []string {
	seen := make(map[string]bool, len(uids))
	out := make([]string, 0, len(uids))
	for _, u := range uids {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
