// Package gpgtest provides an in-memory stand-in for gpg, gpgconf,
// gpg-connect-agent and git config, for tests of code built on gpg.Client.
package gpgtest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
)

// Part is a simulated key or subkey.
type Part struct {
	Fingerprint string
	Grip        string
	Algo        int
	Bits        int
	Curve       string
	Caps        string
	Created     int64
	// Serial is "+" for local secret material or the card's application id.
	Serial string
}

// KeyID returns the last 16 hex digits of the fingerprint.
func (p *Part) KeyID() string {
	if len(p.Fingerprint) < 16 {
		return p.Fingerprint
	}
	return p.Fingerprint[len(p.Fingerprint)-16:]
}

// Key is a simulated keyring key.
type Key struct {
	Part
	UIDs    []string
	Subkeys []*Part
}

// Card is the simulated token.
type Card struct {
	Present      bool
	Serial       string
	Surname      string
	GivenName    string
	Fingerprints [3]string
	Created      [3]int64
	// Attributes holds the algorithm of each slot, e.g. "ed25519".
	Attributes [3]string
}

// AID returns the card's application id as it appears in key listings.
func (c *Card) AID() string {
	return "D2760001240103040006" + c.Serial + "0000"
}

// Sim implements gpg.Runner.
type Sim struct {
	Card Card
	Keys []*Key
	Home string

	// AgentOptions maps agent option names to their values.
	AgentOptions map[string]string
	// AgentReplies overrides the reply to delete_key for a grip.
	AgentReplies map[string]string
	DeletedGrips []string

	// Git maps scope ("local"/"global") to config values.
	Git map[string]map[string]string

	// Exports maps fingerprints to the armored secret export.
	Exports map[string][]byte
	Imports [][]byte

	// PrimaryFollowsAdd makes a newly added user ID the primary, as gpg
	// does when the new self-signature is the most recent one.
	PrimaryFollowsAdd bool

	// Failures maps a program argument to the exit code of any call
	// carrying it.
	Failures map[string]int
	// ScriptFailures maps an edit-session input line to the exit code of
	// any session containing it.
	ScriptFailures map[string]int

	Calls   []gpg.Command
	Scripts []gpg.Script

	serial int
}

// New returns a simulator with an empty card (serial 12345678) and an
// empty keyring.
func New() *Sim {
	return &Sim{
		Card: Card{
			Present:    true,
			Serial:     "12345678",
			Attributes: [3]string{"rsa2048", "rsa2048", "rsa2048"},
		},
		Home:           "/home/user/.gnupg",
		AgentOptions:   map[string]string{},
		AgentReplies:   map[string]string{},
		Git:            map[string]map[string]string{"local": {}, "global": {}},
		Exports:        map[string][]byte{},
		Failures:       map[string]int{},
		ScriptFailures: map[string]int{},
	}
}

// Client returns a gpg.Client backed by the simulator.
func (s *Sim) Client() *gpg.Client {
	return gpg.NewClient(s)
}

func (s *Sim) next() int {
	s.serial++
	return s.serial
}

// NewFingerprint returns a fresh 40 digit fingerprint.
func (s *Sim) NewFingerprint() string {
	return fmt.Sprintf("%040X", 0xF00000+s.next())
}

func (s *Sim) newPart(algo string, caps string) *Part {
	a, bits, curve := algoID(algo)
	n := s.next()
	return &Part{
		Fingerprint: fmt.Sprintf("%040X", 0xF00000+n),
		Grip:        fmt.Sprintf("%040X", 0xA00000+n),
		Algo:        a,
		Bits:        bits,
		Curve:       curve,
		Caps:        caps,
		Created:     1700000000 + int64(n),
		Serial:      "+",
	}
}

// AddKey puts a key with the given primary algorithm into the keyring and
// returns it. Subkeys are added with AddSubkey.
func (s *Sim) AddKey(uid, algo string) *Key {
	k := &Key{Part: *s.newPart(algo, "sc"), UIDs: []string{uid}}
	s.Keys = append(s.Keys, k)
	return k
}

// AddSubkey appends a subkey with capability flags caps.
func (s *Sim) AddSubkey(k *Key, algo, caps string) *Part {
	p := s.newPart(algo, caps)
	k.Subkeys = append(k.Subkeys, p)
	return p
}

// Key returns the key with the given fingerprint, or nil.
func (s *Sim) Key(fingerprint string) *Key {
	for _, k := range s.Keys {
		if strings.EqualFold(k.Fingerprint, fingerprint) {
			return k
		}
	}
	return nil
}

func algoID(algo string) (id, bits int, curve string) {
	switch {
	case strings.HasPrefix(algo, "rsa"):
		n, _ := strconv.Atoi(strings.TrimPrefix(algo, "rsa"))
		return 1, n, ""
	case algo == "cv25519":
		return 18, 255, "cv25519"
	case algo == "nistp256":
		return 19, 256, "nistp256"
	default:
		return 22, 255, "ed25519"
	}
}

// Count returns the number of calls carrying arg.
func (s *Sim) Count(arg string) int {
	n := 0
	for _, c := range s.Calls {
		if slices.Contains(c.Args, arg) {
			n++
		}
	}
	return n
}

// CallsWith returns the calls carrying arg, in order.
func (s *Sim) CallsWith(arg string) []gpg.Command {
	var calls []gpg.Command
	for _, c := range s.Calls {
		if slices.Contains(c.Args, arg) {
			calls = append(calls, c)
		}
	}
	return calls
}

// Index returns the position in Calls of the first call carrying arg, or -1.
func (s *Sim) Index(arg string) int {
	for i, c := range s.Calls {
		if slices.Contains(c.Args, arg) {
			return i
		}
	}
	return -1
}

// ScriptsWith returns the recorded edit scripts whose command line
// (the line after "admin" for card edits) is cmd.
func (s *Sim) ScriptsWith(cmd string) []gpg.Script {
	var out []gpg.Script
	for _, sc := range s.Scripts {
		if slices.Contains(sc.Lines, cmd) {
			out = append(out, sc)
		}
	}
	return out
}

func fail(c gpg.Command, code int, stderr string) error {
	return &gpg.CommandError{Command: c, ExitCode: code, Stderr: stderr}
}

// Output implements gpg.Runner.
func (s *Sim) Output(_ context.Context, c gpg.Command) ([]byte, error) {
	s.Calls = append(s.Calls, c)
	for _, a := range c.Args {
		if code, ok := s.Failures[a]; ok {
			return nil, fail(c, code, "simulated failure of "+a)
		}
	}

	switch c.Program {
	case "gpg":
		return s.gpg(c)
	case "gpgconf":
		return s.gpgconf(c)
	case "gpg-connect-agent":
		return s.agent(c)
	case "git":
		return s.git(c)
	}
	return nil, fail(c, 127, c.Program+": command not found")
}

// Interact implements gpg.Runner.
func (s *Sim) Interact(ctx context.Context, c gpg.Command) error {
	if _, err := s.Output(ctx, c); err != nil {
		return err
	}
	script := gpg.Script{}
	if i := slices.Index(c.Args, "--key-edit"); i >= 0 && i+1 < len(c.Args) {
		script.Fingerprint = c.Args[i+1]
	}
	if len(c.Stdin) > 0 {
		script.Lines = strings.Split(strings.TrimSuffix(string(c.Stdin), "\n"), "\n")
	}
	s.Scripts = append(s.Scripts, script)
	for _, line := range script.Lines {
		if code, ok := s.ScriptFailures[line]; ok {
			return fail(c, code, "simulated failure of "+line)
		}
	}

	if script.Fingerprint != "" {
		return s.keyEdit(c, script)
	}
	return s.cardEdit(c, script)
}

func (s *Sim) gpg(c gpg.Command) ([]byte, error) {
	args := c.Args
	if len(args) >= 2 && args[0] == "--faked-system-time" {
		args = args[2:]
	}
	if len(args) == 0 {
		return nil, fail(c, 2, "no command")
	}

	switch args[0] {
	case "--with-colons":
		if len(args) < 2 {
			return nil, fail(c, 2, "missing command")
		}
		switch args[1] {
		case "--list-secret-keys", "--list-keys":
			return s.listKeys(c, args[2:])
		case "--card-status":
			return s.cardStatusColons(c)
		}
	case "--card-status":
		return s.cardStatusHuman(c)
	case "--list-keys":
		return nil, nil
	case "--quick-gen-key":
		return nil, s.quickGenKey(c, args[1:])
	case "--quick-add-key":
		return nil, s.quickAddKey(c, args[1:])
	case "--quick-add-uid":
		return nil, s.quickAddUID(c, args[1:])
	case "--quick-set-primary-uid":
		return nil, s.quickSetPrimaryUID(c, args[1:])
	case "--quick-set-expire":
		if len(args) < 3 || s.Key(args[1]) == nil {
			return nil, fail(c, 2, "key not found")
		}
		return nil, nil
	case "--export-secret-keys":
		return s.Exports[args[len(args)-1]], nil
	case "--import":
		s.Imports = append(s.Imports, c.Stdin)
		s.restore(c.Stdin)
		return nil, nil
	case "--command-fd=0":
		return nil, nil
	}
	return nil, fail(c, 2, "unsupported gpg invocation")
}

func (s *Sim) listKeys(c gpg.Command, selectors []string) ([]byte, error) {
	var sb strings.Builder
	matched := 0
	for _, k := range s.Keys {
		if len(selectors) > 0 && !matches(k, selectors) {
			continue
		}
		matched++
		writeKey(&sb, k)
	}
	if len(selectors) > 0 && matched == 0 {
		return nil, fail(c, 2, "gpg: error reading key: No secret key")
	}
	return []byte(sb.String()), nil
}

func matches(k *Key, selectors []string) bool {
	for _, sel := range selectors {
		if strings.EqualFold(k.Fingerprint, sel) {
			return true
		}
		for _, u := range k.UIDs {
			if strings.Contains(u, sel) {
				return true
			}
		}
	}
	return false
}

func writeKey(sb *strings.Builder, k *Key) {
	caps := k.Caps
	agg := k.Caps
	for _, sk := range k.Subkeys {
		agg += sk.Caps
	}
	caps += strings.ToUpper(dedupeRunes(agg))
	fmt.Fprintf(sb, "sec:u:%d:%d:%s:%d:::u:::%s:::%s::%s:::0:\n",
		k.Bits, k.Algo, k.KeyID(), k.Created, caps, k.Serial, k.Curve)
	fmt.Fprintf(sb, "fpr:::::::::%s:\n", k.Fingerprint)
	fmt.Fprintf(sb, "grp:::::::::%s:\n", k.Grip)
	for i, u := range k.UIDs {
		fmt.Fprintf(sb, "uid:u::::%d::HASH%d::%s::::::::::0:\n", k.Created, i, escape(u))
	}
	for _, sk := range k.Subkeys {
		fmt.Fprintf(sb, "ssb:u:%d:%d:%s:%d::::::%s:::%s::%s::\n",
			sk.Bits, sk.Algo, sk.KeyID(), sk.Created, sk.Caps, sk.Serial, sk.Curve)
		fmt.Fprintf(sb, "fpr:::::::::%s:\n", sk.Fingerprint)
		fmt.Fprintf(sb, "grp:::::::::%s:\n", sk.Grip)
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, ":", `\x3a`)
}

func dedupeRunes(s string) string {
	var out []rune
	for _, r := range s {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return string(out)
}

func (s *Sim) cardStatusColons(c gpg.Command) ([]byte, error) {
	if !s.Card.Present {
		return nil, fail(c, 2, "gpg: selecting card failed: No such device")
	}
	cd := s.Card
	var sb strings.Builder
	fmt.Fprintf(&sb, "Reader:Yubico YubiKey OTP FIDO CCID:AID:%s:openpgp-card:\n", cd.AID())
	fmt.Fprintf(&sb, "serial:%s:\n", cd.Serial)
	fmt.Fprintf(&sb, "name:%s:%s:\n", cd.Surname, cd.GivenName)
	fmt.Fprintf(&sb, "fpr:%s:%s:%s:\n", cd.Fingerprints[0], cd.Fingerprints[1], cd.Fingerprints[2])
	fmt.Fprintf(&sb, "fprtime:%d:%d:%d:\n", cd.Created[0], cd.Created[1], cd.Created[2])
	return []byte(sb.String()), nil
}

func (s *Sim) cardStatusHuman(c gpg.Command) ([]byte, error) {
	if !s.Card.Present {
		return nil, fail(c, 2, "gpg: selecting card failed: No such device")
	}
	cd := s.Card
	var sb strings.Builder
	fmt.Fprintf(&sb, "Reader ...........: Yubico YubiKey OTP FIDO CCID 00 00\n")
	fmt.Fprintf(&sb, "Serial number ....: %s\n", cd.Serial)
	fmt.Fprintf(&sb, "Key attributes ...: %s %s %s\n", cd.Attributes[0], cd.Attributes[1], cd.Attributes[2])
	for i, label := range []string{"Signature key ....", "Encryption key....", "Authentication key"} {
		fp := cd.Fingerprints[i]
		if fp == "" {
			fp = "[none]"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, fp)
		if cd.Created[i] != 0 {
			fmt.Fprintf(&sb, "      created ....: %s\n", time.Unix(cd.Created[i], 0).UTC().Format("2006-01-02 15:04:05"))
		}
	}
	return []byte(sb.String()), nil
}

func (s *Sim) quickGenKey(c gpg.Command, args []string) error {
	if len(args) < 2 {
		return fail(c, 2, "usage: --quick-gen-key USER-ID [ALGO [USAGE [EXPIRE]]]")
	}
	uid, algo := args[0], args[1]
	for _, k := range s.Keys {
		if slices.Contains(k.UIDs, uid) && algo != "card" {
			return fail(c, 2, "gpg: A key for \""+uid+"\" already exists")
		}
	}

	if algo == "card" {
		cd := &s.Card
		if cd.Fingerprints[0] == "" {
			return fail(c, 2, "gpg: no signature key on card")
		}
		k := &Key{Part: *s.cardPart(gpg.SlotSign, "sc"), UIDs: []string{uid}}
		if cd.Fingerprints[1] != "" {
			k.Subkeys = append(k.Subkeys, s.cardPart(gpg.SlotEncrypt, "e"))
		}
		s.Keys = append(s.Keys, k)
		return nil
	}

	caps := "sc"
	if len(args) >= 3 {
		caps = usageCaps(args[2])
	}
	k := &Key{Part: *s.newPart(algo, caps), UIDs: []string{uid}}
	s.Keys = append(s.Keys, k)
	return nil
}

func (s *Sim) cardPart(slot gpg.Slot, caps string) *Part {
	a, bits, curve := algoID(s.Card.Attributes[slot])
	n := s.next()
	return &Part{
		Fingerprint: s.Card.Fingerprints[slot],
		Grip:        fmt.Sprintf("%040X", 0xB00000+n),
		Algo:        a,
		Bits:        bits,
		Curve:       curve,
		Caps:        caps,
		Created:     s.Card.Created[slot],
		Serial:      s.Card.AID(),
	}
}

func usageCaps(usage string) string {
	var caps string
	for _, u := range strings.Split(usage, ",") {
		switch u {
		case "sign":
			caps += "s"
		case "cert":
			caps += "c"
		case "encr", "encrypt":
			caps += "e"
		case "auth":
			caps += "a"
		}
	}
	return caps
}

func (s *Sim) quickAddKey(c gpg.Command, args []string) error {
	if len(args) < 3 {
		return fail(c, 2, "usage: --quick-add-key FPR ALGO USAGE [EXPIRE]")
	}
	k := s.Key(args[0])
	if k == nil {
		return fail(c, 2, "gpg: key not found")
	}
	if args[1] == "card" {
		k.Subkeys = append(k.Subkeys, s.cardPart(gpg.SlotAuth, "a"))
		return nil
	}
	s.AddSubkey(k, args[1], usageCaps(args[2]))
	return nil
}

func (s *Sim) quickAddUID(c gpg.Command, args []string) error {
	if len(args) < 2 {
		return fail(c, 2, "usage: --quick-add-uid FPR USER-ID")
	}
	k := s.Key(args[0])
	if k == nil {
		return fail(c, 2, "gpg: key not found")
	}
	if s.PrimaryFollowsAdd {
		k.UIDs = append([]string{args[1]}, k.UIDs...)
	} else {
		k.UIDs = append(k.UIDs, args[1])
	}
	return nil
}

func (s *Sim) quickSetPrimaryUID(c gpg.Command, args []string) error {
	if len(args) < 2 {
		return fail(c, 2, "usage: --quick-set-primary-uid FPR USER-ID")
	}
	k := s.Key(args[0])
	if k == nil {
		return fail(c, 2, "gpg: key not found")
	}
	i := slices.Index(k.UIDs, args[1])
	if i < 0 {
		return fail(c, 2, "gpg: user ID not found")
	}
	uid := k.UIDs[i]
	k.UIDs = append([]string{uid}, slices.Delete(k.UIDs, i, i+1)...)
	return nil
}

// restore marks the parts of any key whose export equals data as local again.
func (s *Sim) restore(data []byte) {
	for fpr, exp := range s.Exports {
		if string(exp) != string(data) {
			continue
		}
		if k := s.Key(fpr); k != nil {
			k.Serial = "+"
			for _, sk := range k.Subkeys {
				sk.Serial = "+"
			}
		}
	}
}

func (s *Sim) cardEdit(c gpg.Command, sc gpg.Script) error {
	if !s.Card.Present {
		return fail(c, 2, "gpg: selecting card failed: No such device")
	}
	lines := sc.Lines
	if len(lines) < 2 || lines[0] != "admin" {
		return nil
	}
	args := lines[2:]
	switch lines[1] {
	case "key-attr":
		return s.keyAttr(c, args)
	case "name":
		if len(args) > 0 {
			s.Card.Surname = args[0]
		}
		if len(args) > 1 {
			s.Card.GivenName = args[1]
		}
	case "generate":
		return s.generate(c, args)
	case "factory-reset":
		if len(args) == 2 && args[0] == "y" && args[1] == "yes" {
			serial := s.Card.Serial
			s.Card = Card{Present: true, Serial: serial, Attributes: [3]string{"rsa2048", "rsa2048", "rsa2048"}}
		}
	}
	return nil
}

func (s *Sim) keyAttr(c gpg.Command, args []string) error {
	if len(args) != 6 {
		return fail(c, 2, "key-attr: expected three type/size pairs")
	}
	curves := [3]string{"ed25519", "cv25519", "ed25519"}
	for i := 0; i < 3; i++ {
		typ, size := args[2*i], args[2*i+1]
		switch typ {
		case "1":
			s.Card.Attributes[i] = "rsa" + size
		case "2":
			s.Card.Attributes[i] = curves[i]
		default:
			return fail(c, 2, "key-attr: invalid type "+typ)
		}
	}
	return nil
}

// generate follows the on-card generation dialog: backup choice, replace
// confirmation when any slot is occupied, expiry, confirmation, name,
// email, comment.
func (s *Sim) generate(c gpg.Command, args []string) error {
	if len(args) == 0 || args[0] != "n" {
		return fail(c, 2, "generate: expected off-card backup answer")
	}
	args = args[1:]
	occupied := s.Card.Fingerprints != [3]string{}
	if occupied {
		if len(args) == 0 || args[0] != "y" {
			return fail(c, 2, "generate: replace existing keys not confirmed")
		}
		args = args[1:]
	}
	if len(args) != 5 || args[0] != "0" || args[1] != "y" {
		return fail(c, 2, fmt.Sprintf("generate: unexpected answers %q", args))
	}
	uid := args[2] + " <" + args[3] + ">"

	for i := range s.Card.Fingerprints {
		s.Card.Fingerprints[i] = s.NewFingerprint()
		s.Card.Created[i] = 1700000000 + int64(s.next())
	}
	k := &Key{Part: *s.cardPart(gpg.SlotSign, "sc"), UIDs: []string{uid}}
	k.Subkeys = append(k.Subkeys, s.cardPart(gpg.SlotEncrypt, "e"), s.cardPart(gpg.SlotAuth, "a"))
	s.Keys = append(s.Keys, k)
	return nil
}

// keyEdit follows keytocard moves. A selected subkey is moved to the
// slot named after keytocard; the primary key needs a "y" first. An
// occupied slot must be followed by a "y" replace confirmation.
func (s *Sim) keyEdit(c gpg.Command, sc gpg.Script) error {
	k := s.Key(sc.Fingerprint)
	if k == nil {
		return fail(c, 2, "gpg: key not found")
	}
	lines := sc.Lines
	selected := 0
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "key "):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "key "))
			if err != nil || n > len(k.Subkeys) {
				return fail(c, 2, "invalid key selection "+line)
			}
			selected = n
		case line == "keytocard":
			part := &k.Part
			if selected == 0 {
				i++
				if i >= len(lines) || lines[i] != "y" {
					return fail(c, 2, "keytocard: primary key move not confirmed")
				}
			} else {
				part = k.Subkeys[selected-1]
			}
			i++
			if i >= len(lines) {
				return fail(c, 2, "keytocard: missing slot")
			}
			slot, err := strconv.Atoi(lines[i])
			if err != nil || slot < 1 || slot > 3 {
				return fail(c, 2, "keytocard: invalid slot "+lines[i])
			}
			if s.Card.Fingerprints[slot-1] != "" {
				i++
				if i >= len(lines) || lines[i] != "y" {
					return fail(c, 2, "keytocard: replace not confirmed")
				}
			}
			s.Card.Fingerprints[slot-1] = part.Fingerprint
			s.Card.Created[slot-1] = part.Created
			part.Serial = s.Card.AID()
		case line == "save", line == "quit":
			return nil
		default:
			return fail(c, 2, "unexpected key-edit input "+strconv.Quote(line))
		}
	}
	return nil
}

func (s *Sim) gpgconf(c gpg.Command) ([]byte, error) {
	args := c.Args
	if len(args) < 2 {
		return nil, fail(c, 2, "gpgconf: missing argument")
	}
	switch args[0] {
	case "--list-dirs":
		if args[1] == "homedir" {
			return []byte(s.Home + "\n"), nil
		}
		return []byte(s.Home + "/S.gpg-agent." + args[1] + "\n"), nil
	case "--list-options":
		var sb strings.Builder
		for _, name := range []string{"verbose", "enable-ssh-support", "pinentry-program"} {
			fmt.Fprintf(&sb, "%s:16:1:%s:0:0::::%s:\n", name, name, s.AgentOptions[name])
		}
		return []byte(sb.String()), nil
	case "--change-options":
		for _, line := range strings.Split(strings.TrimSpace(string(c.Stdin)), "\n") {
			parts := strings.SplitN(line, ":", 3)
			if len(parts) == 3 {
				s.AgentOptions[parts[0]] = parts[2]
			}
		}
		return nil, nil
	}
	return nil, fail(c, 2, "gpgconf: unsupported")
}

func (s *Sim) agent(c gpg.Command) ([]byte, error) {
	if len(c.Args) == 0 {
		return nil, nil
	}
	req := c.Args[0]
	if grip, ok := strings.CutPrefix(req, "delete_key --force "); ok {
		if reply, ok := s.AgentReplies[grip]; ok {
			return []byte(reply + "\n"), nil
		}
		s.DeletedGrips = append(s.DeletedGrips, grip)
	}
	return []byte("OK\n"), nil
}

func (s *Sim) git(c gpg.Command) ([]byte, error) {
	args := c.Args
	if len(args) < 3 || args[0] != "config" {
		return nil, fail(c, 129, "git: unsupported")
	}
	scope := strings.TrimPrefix(args[1], "--")
	values, ok := s.Git[scope]
	if !ok {
		return nil, fail(c, 129, "git: unknown scope "+args[1])
	}
	if args[2] == "--get" {
		if len(args) < 4 {
			return nil, fail(c, 2, "git: missing key")
		}
		v, ok := values[args[3]]
		if !ok {
			return nil, fail(c, 1, "")
		}
		return []byte(v + "\n"), nil
	}
	if len(args) < 4 {
		return nil, fail(c, 2, "git: missing value")
	}
	values[args[2]] = args[3]
	return nil, nil
}
