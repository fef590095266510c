package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

var errNoTerminal = output.NewError(output.CodeUsageError, "no terminal available for confirmation")

func openTTY() (*os.File, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, errNoTerminal
	}
	if !term.IsTerminal(int(tty.Fd())) {
		_ = tty.Close()
		return nil, errNoTerminal
	}
	return tty, nil
}

// PromptConfirm asks the user for a y/n confirmation.
// Returns true if confirmed, false if declined, or an error on cancellation.
// Opens /dev/tty directly to work even when stdin is piped.
func PromptConfirm(prompt string, stderr io.Writer) (bool, error) {
	tty, err := openTTY()
	if err != nil {
		return false, err
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	_, _ = fmt.Fprintf(stderr, "%s [y/N]: ", prompt)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false, output.NewErrorf(output.CodeGeneralError, "failed to set raw mode: %v", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	buf := make([]byte, 1)
	for {
		_, err := tty.Read(buf)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "\r\n")
			return false, output.NewErrorf(output.CodeGeneralError, "failed to read input: %v", err)
		}

		switch buf[0] {
		case 'y', 'Y':
			_, _ = fmt.Fprintf(stderr, "y\r\n")
			return true, nil
		case 'n', 'N', '\r', '\n':
			_, _ = fmt.Fprintf(stderr, "n\r\n")
			return false, nil
		case 3, 27: // Ctrl-C or Escape
			_, _ = fmt.Fprintf(stderr, "\r\n")
			return false, nil
		}
	}
}

// PromptLine asks for one line of input on the terminal.
func PromptLine(label string, stderr io.Writer) (string, error) {
	tty, err := openTTY()
	if err != nil {
		return "", output.NewErrorf(output.CodeInvalidInput, "no terminal available to ask for %q; set it in the config or environment", strings.TrimSpace(label))
	}
	defer func() { _ = tty.Close() }()

	_, _ = fmt.Fprint(stderr, label)
	line, err := bufio.NewReader(tty).ReadString('\n')
	if err != nil && line == "" {
		return "", output.NewErrorf(output.CodeGeneralError, "failed to read input: %v", err)
	}
	return strings.TrimSpace(line), nil
}
