package output

import (
	"bytes"
	"errors"
	"testing"
)

func TestHandlerWarn(t *testing.T) {
	var stdout, stderr bytes.Buffer
	h := NewHandler(&stdout, &stderr)

	h.Warnf(CodeWarnBestEffort, "kdf setup failed: %s", "no card")

	if got := stderr.String(); got != "warning: kdf setup failed: no card\n" {
		t.Errorf("unexpected stderr %q", got)
	}
	if h.WarningCount() != 1 {
		t.Errorf("expected 1 warning, got %d", h.WarningCount())
	}
	if !h.GetWarnings()[0].Code.IsWarning() {
		t.Errorf("expected warning code, got %s", h.GetWarnings()[0].Code)
	}
}

func TestHandlerSilent(t *testing.T) {
	var stdout, stderr bytes.Buffer
	h := NewHandler(&stdout, &stderr, WithSilent(true))

	h.Warnf(CodeWarnGeneric, "hidden")
	h.Success("done")

	if stderr.Len() != 0 {
		t.Errorf("silent handler wrote to stderr: %q", stderr.String())
	}
	if stdout.String() != "done\n" {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
	if h.WarningCount() != 1 {
		t.Errorf("warnings should still be collected")
	}
}

func TestErrorExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want ExitCode
	}{
		{"state not found", NewError(CodeStateNotFound, "no serial"), ExitGeneralError},
		{"user abort", NewError(CodeUserAbort, "aborted"), ExitSuccess},
		{"config", NewError(CodeConfigParseError, "bad yaml"), ExitConfigError},
		{"override", NewError(CodeCommandFailed, "gpg").WithExitCode(2), 2},
		{"unknown code", NewError(Code("SOMETHING"), "x"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	cause := errors.New("boom")
	err := NewErrorf(CodeCommandFailed, "gpg failed: %v", cause).WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !errors.Is(err, NewError(CodeCommandFailed, "")) {
		t.Error("errors.Is should match by code")
	}
}
