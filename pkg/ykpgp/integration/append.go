package integration

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// AppendLine appends line to the file at path unless an identical line is
// already present. The file is created with perm if missing and locked
// for the duration of the check and write. It reports whether the line
// was added.
func AppendLine(path, line string, perm os.FileMode) (bool, error) {
	return appendUnless(path, line, perm, func(existing string) bool {
		return strings.TrimSpace(existing) == line
	})
}

// AppendKeygrip adds grip to an sshcontrol file unless an entry for it
// exists. Entries are "GRIP [TTL] [flags]", so only the first field is
// compared.
func AppendKeygrip(path, grip string) (bool, error) {
	return appendUnless(path, grip, 0o600, func(existing string) bool {
		fields := strings.Fields(existing)
		return len(fields) > 0 && strings.EqualFold(fields[0], grip)
	})
}

func appendUnless(path, line string, perm os.FileMode, present func(existing string) bool) (bool, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, perm)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := lockFile(f); err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer func() { _ = unlockFile(f) }()

	content, err := io.ReadAll(f)
	if err != nil {
		return false, err
	}
	for _, existing := range strings.Split(string(content), "\n") {
		if present(existing) {
			return false, nil
		}
	}

	entry := line + "\n"
	if len(content) > 0 && content[len(content)-1] != '\n' {
		entry = "\n" + entry
	}
	if _, err := f.WriteString(entry); err != nil {
		return false, err
	}
	return true, f.Sync()
}
