package gpg

import (
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// TTY returns the terminal pinentry should use: $GPG_TTY if set,
// otherwise the name of the terminal on stdin, or "" without one.
func TTY() string {
	if tty := os.Getenv("GPG_TTY"); tty != "" {
		return tty
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ""
	}
	ttyCmd := exec.Command("tty")
	ttyCmd.Stdin = os.Stdin
	out, err := ttyCmd.Output()
	if err != nil {
		return ""
	}
	tty := strings.TrimSpace(string(out))
	if tty == "not a tty" {
		return ""
	}
	return tty
}
