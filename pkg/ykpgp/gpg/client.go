package gpg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when an expected datum is missing from a tool's output.
var ErrNotFound = errors.New("not found")

// NotFoundError names the missing datum.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s", e.What)
}

// Is makes errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Client wraps the key-management tool, its configuration helper and
// the agent-control helper.
type Client struct {
	Runner   Runner
	Programs Programs
	// Home overrides the key-storage home. When empty the home is
	// queried from gpgconf.
	Home string
}

// NewClient returns a client running the default program names.
func NewClient(runner Runner) *Client {
	return &Client{
		Runner:   runner,
		Programs: DefaultPrograms(),
	}
}

func (c *Client) gpg(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	return c.Runner.Output(ctx, Command{Program: c.Programs.GPG, Args: args, Stdin: stdin})
}

// ListSecretKeys lists secret keys matching the selectors (all when none given).
// Keygrips are included implicitly for secret keys in colon mode.
func (c *Client) ListSecretKeys(ctx context.Context, selectors ...string) ([]Key, error) {
	args := append([]string{"--with-colons", "--list-secret-keys"}, selectors...)
	out, err := c.gpg(ctx, nil, args...)
	if err != nil {
		return nil, err
	}
	return ParseKeys(ParseRecords(out)), nil
}

// SecretKey returns the secret key with the given fingerprint.
func (c *Client) SecretKey(ctx context.Context, fingerprint string) (*Key, error) {
	keys, err := c.ListSecretKeys(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		if strings.EqualFold(keys[i].Fingerprint, fingerprint) {
			return &keys[i], nil
		}
	}
	return nil, &NotFoundError{What: "secret key " + fingerprint}
}

// FindSecretKeyByUID returns the first secret key carrying uid, or nil.
// The whole keyring is listed so that an absent key is not a failure.
func (c *Client) FindSecretKeyByUID(ctx context.Context, uid string) (*Key, error) {
	keys, err := c.ListSecretKeys(ctx)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		if keys[i].HasUID(uid) {
			return &keys[i], nil
		}
	}
	return nil, nil
}

// FindSecretKeyBySerial returns the first secret key whose primary key
// lives on the card with the given serial number.
func (c *Client) FindSecretKeyBySerial(ctx context.Context, serial string) (*Key, error) {
	if serial == "" {
		return nil, &NotFoundError{What: "key for card without serial number"}
	}
	keys, err := c.ListSecretKeys(ctx)
	if err != nil {
		return nil, err
	}
	// The listing carries the full application id, which embeds the serial.
	serial = strings.ToUpper(serial)
	var match *Key
	for i := range keys {
		if keys[i].Serial == "" || !strings.Contains(strings.ToUpper(keys[i].Serial), serial) {
			continue
		}
		if match == nil || keys[i].Created.After(match.Created) {
			match = &keys[i]
		}
	}
	if match == nil {
		return nil, &NotFoundError{What: "key for card " + serial}
	}
	return match, nil
}

// CardStatus queries the colon form of the card status.
func (c *Client) CardStatus(ctx context.Context) (CardState, error) {
	out, err := c.gpg(ctx, nil, "--with-colons", "--card-status")
	if err != nil {
		return CardState{}, err
	}
	return ParseCardState(out), nil
}

// CardSummary queries the human-readable card status.
func (c *Client) CardSummary(ctx context.Context) (CardSummary, error) {
	out, err := c.gpg(ctx, nil, "--card-status")
	if err != nil {
		return CardSummary{}, err
	}
	return ParseCardSummary(out), nil
}

// fakedTime prefixes args with --faked-system-time when t is set.
func fakedTime(t time.Time, args ...string) []string {
	if t.IsZero() {
		return args
	}
	return append([]string{"--faked-system-time", t.UTC().Format("20060102T150405") + "!"}, args...)
}

// QuickGenKey creates a primary key. at fakes the creation time when non-zero.
func (c *Client) QuickGenKey(ctx context.Context, uid, algo, usage, expire string, at time.Time) error {
	args := []string{"--quick-gen-key", uid, algo}
	if usage != "" {
		args = append(args, usage)
		if expire != "" {
			args = append(args, expire)
		}
	}
	_, err := c.gpg(ctx, nil, fakedTime(at, args...)...)
	return err
}

// QuickAddKey adds a subkey to the key with the given fingerprint.
func (c *Client) QuickAddKey(ctx context.Context, fingerprint, algo, usage, expire string, at time.Time) error {
	args := []string{"--quick-add-key", fingerprint, algo, usage}
	if expire != "" {
		args = append(args, expire)
	}
	_, err := c.gpg(ctx, nil, fakedTime(at, args...)...)
	return err
}

// QuickSetExpire changes the expiry of the primary key.
func (c *Client) QuickSetExpire(ctx context.Context, fingerprint, expire string) error {
	_, err := c.gpg(ctx, nil, "--quick-set-expire", fingerprint, expire)
	return err
}

// QuickAddUID binds an additional user ID.
func (c *Client) QuickAddUID(ctx context.Context, fingerprint, uid string) error {
	_, err := c.gpg(ctx, nil, "--quick-add-uid", fingerprint, uid)
	return err
}

// QuickSetPrimaryUID marks uid as the primary user ID.
func (c *Client) QuickSetPrimaryUID(ctx context.Context, fingerprint, uid string) error {
	_, err := c.gpg(ctx, nil, "--quick-set-primary-uid", fingerprint, uid)
	return err
}

// ExportSecretKeys exports all secret material for fingerprint, armored.
func (c *Client) ExportSecretKeys(ctx context.Context, fingerprint string) ([]byte, error) {
	return c.gpg(ctx, nil, "--export-secret-keys", "--armor", fingerprint)
}

// Import imports key material read from data.
func (c *Client) Import(ctx context.Context, data []byte) error {
	_, err := c.gpg(ctx, data, "--import")
	return err
}

// Edit runs a scripted --card-edit or --key-edit session.
func (c *Client) Edit(ctx context.Context, s Script) error {
	return c.Runner.Interact(ctx, Command{
		Program: c.Programs.GPG,
		Args:    s.Args(),
		Stdin:   s.Input(),
	})
}

// Flush lists the public keyring, forcing gpg to settle any cached state
// for the current home.
func (c *Client) Flush(ctx context.Context) error {
	_, err := c.gpg(ctx, nil, "--list-keys")
	return err
}
