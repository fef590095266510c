//go:build !windows

package gpg

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerOutput(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(zerolog.Nop())
	r.Setenv("YKPGP_TEST_VALUE", "first")
	r.Setenv("YKPGP_TEST_VALUE", "second")

	out, err := r.Output(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", `read line; echo "$line $YKPGP_TEST_VALUE"`},
		Stdin:   []byte("hello\n"),
	})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "hello second" {
		t.Errorf("output = %q", got)
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(zerolog.Nop())

	_, err := r.Output(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "echo boom >&2; exit 3"},
	})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", cmdErr.ExitCode)
	}
	if strings.TrimSpace(cmdErr.Stderr) != "boom" {
		t.Errorf("stderr = %q", cmdErr.Stderr)
	}
}

func TestExecRunnerMissingProgram(t *testing.T) {
	r := NewExecRunner(zerolog.Nop())
	_, err := r.Output(context.Background(), Command{Program: "ykpgp-definitely-missing"})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != 127 {
		t.Fatalf("expected exit code 127, got %v", err)
	}
}

func TestExecRunnerInteractTeesStderr(t *testing.T) {
	requireShell(t)
	var stdout, stderr bytes.Buffer
	r := NewExecRunner(zerolog.Nop())
	r.Stdout = &stdout
	r.Stderr = &stderr

	err := r.Interact(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "cat; echo warn >&2; exit 1"},
		Stdin:   []byte("admin\nquit\n"),
	})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if stdout.String() != "admin\nquit\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if strings.TrimSpace(stderr.String()) != "warn" || strings.TrimSpace(cmdErr.Stderr) != "warn" {
		t.Errorf("stderr = %q / %q", stderr.String(), cmdErr.Stderr)
	}
}
