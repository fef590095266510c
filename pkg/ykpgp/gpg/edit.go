package gpg

import "strings"

// Script is a fixed, fully pre-computed input for an edit session.
// The lines are written in one batch; the session never branches on
// the tool's replies.
type Script struct {
	// Fingerprint selects a --key-edit session; empty means --card-edit.
	Fingerprint string
	Lines       []string
}

// CardEdit returns a --card-edit script.
func CardEdit(lines ...string) Script {
	return Script{Lines: lines}
}

// KeyEdit returns a --key-edit script for fingerprint.
func KeyEdit(fingerprint string, lines ...string) Script {
	return Script{Fingerprint: fingerprint, Lines: lines}
}

// Append adds lines to the script.
func (s *Script) Append(lines ...string) {
	s.Lines = append(s.Lines, lines...)
}

// Args returns the gpg arguments for the session.
func (s Script) Args() []string {
	args := []string{"--command-fd=0", "--status-fd=1", "--expert"}
	if s.Fingerprint == "" {
		return append(args, "--card-edit")
	}
	return append(args, "--key-edit", s.Fingerprint)
}

// Input returns the script as newline-terminated lines.
func (s Script) Input() []byte {
	if len(s.Lines) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(s.Lines, "\n") + "\n")
}
