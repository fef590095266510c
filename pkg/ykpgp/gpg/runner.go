package gpg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Command is a single invocation of an external program.
type Command struct {
	Program string
	Args    []string
	Stdin   []byte
}

// String returns the command line as it would be typed in a shell (without quoting).
func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Runner executes external commands. Every call blocks until the
// process exits; a non-zero exit is returned as a *CommandError.
type Runner interface {
	// Output runs cmd and returns its captured stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// Interact runs cmd with cmd.Stdin as its complete input and the
	// process output passed through to the user's terminal.
	Interact(ctx context.Context, cmd Command) error
}

// CommandError reports an external command that exited non-zero.
type CommandError struct {
	Command  Command
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %s failed with exit code %d", e.Command.String(), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

// Unwrap returns the underlying process error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env holds KEY=VALUE entries appended to the inherited environment.
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
	logger zerolog.Logger
}

// NewExecRunner returns a runner that passes interactive output through to
// the process's own stdout and stderr.
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logger,
	}
}

// Setenv adds or replaces one environment entry for all future commands.
func (r *ExecRunner) Setenv(key, value string) {
	prefix := key + "="
	for i, e := range r.Env {
		if strings.HasPrefix(e, prefix) {
			r.Env[i] = prefix + value
			return
		}
	}
	r.Env = append(r.Env, prefix+value)
}

func (r *ExecRunner) environ() []string {
	env := os.Environ()
	return append(env, r.Env...)
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Env = r.environ()
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().Str("program", c.Program).Strs("args", c.Args).Msg("exec")
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), r.fail(c, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Interact implements Runner.
func (r *ExecRunner) Interact(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Env = r.environ()
	cmd.Stdin = bytes.NewReader(c.Stdin)

	// Keep a copy of stderr for the error message while still showing it live.
	var stderr bytes.Buffer
	cmd.Stdout = r.Stdout
	cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)

	r.logger.Debug().Str("program", c.Program).Strs("args", c.Args).Bool("interactive", true).Msg("exec")
	if err := cmd.Run(); err != nil {
		return r.fail(c, err, stderr.String())
	}
	return nil
}

func (r *ExecRunner) fail(c Command, err error, stderr string) error {
	code := 1
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		if exitErr.ExitCode() > 0 {
			code = exitErr.ExitCode()
		}
	case errors.Is(err, exec.ErrNotFound):
		code = 127
		if stderr == "" {
			stderr = err.Error()
		}
	default:
		if stderr == "" {
			stderr = err.Error()
		}
	}

	r.logger.Debug().Str("program", c.Program).Int("exit_code", code).Msg("command failed")
	return &CommandError{
		Command:  Command{Program: c.Program, Args: c.Args},
		ExitCode: code,
		Stderr:   stderr,
		Err:      err,
	}
}
