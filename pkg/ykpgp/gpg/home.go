package gpg

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// IsolatedHome is a throwaway key-storage home used for one run.
type IsolatedHome struct {
	Dir    string
	client *Client
}

// NewIsolatedHome creates an owner-only temporary home and points client at it.
// setenv must export GNUPGHOME to every child process the client starts.
func NewIsolatedHome(ctx context.Context, client *Client, setenv func(key, value string)) (*IsolatedHome, error) {
	dir, err := os.MkdirTemp("", "ykpgp-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary home: %w", err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to restrict temporary home: %w", err)
	}

	setenv("GNUPGHOME", dir)
	client.Home = dir

	h := &IsolatedHome{Dir: dir, client: client}
	if err := client.Flush(ctx); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return h, nil
}

// Close lists the keyring one last time and removes the directory.
// The removal happens even if the listing fails.
func (h *IsolatedHome) Close(ctx context.Context) error {
	if h == nil || h.Dir == "" {
		return nil
	}
	flushErr := h.client.Flush(ctx)
	removeErr := os.RemoveAll(h.Dir)
	h.Dir = ""
	return errors.Join(flushErr, removeErr)
}
