package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// ExitCode represents the exit code for an error.
type ExitCode = output.ExitCode

// PrintError prints an error to stderr and returns the exit code.
// A failed external command exits with that command's own status; a
// declined confirmation exits cleanly.
func PrintError(w io.Writer, err error) ExitCode {
	if err == nil {
		return output.ExitSuccess
	}

	var outErr *output.Error
	hasOutErr := errors.As(err, &outErr)
	if hasOutErr && outErr.Code == output.CodeUserAbort {
		_, _ = fmt.Fprintf(w, "%s\n", outErr.Message)
		return output.ExitSuccess
	}

	_, _ = fmt.Fprintf(w, "%s\n", err)
	if hasOutErr && outErr.Cause != nil {
		_, _ = fmt.Fprintf(w, "  %v\n", outErr.Cause)
	}

	if failed := commandFailure(err); failed != nil {
		return failed.ExitCode()
	}
	if hasOutErr {
		return outErr.ExitCode()
	}
	return output.ExitGeneralError
}

// commandFailure returns err as a COMMAND_FAILED error carrying the exit
// status of the external command found in its chain, or nil.
func commandFailure(err error) *output.Error {
	var cmdErr *gpg.CommandError
	if !errors.As(err, &cmdErr) {
		return nil
	}
	code := output.ExitGeneralError
	if cmdErr.ExitCode > 0 {
		code = ExitCode(cmdErr.ExitCode)
	}
	return output.NewError(output.CodeCommandFailed, err.Error()).WithCause(cmdErr).WithExitCode(code)
}

// ExitWithError prints err and exits with its code. It returns when err is nil.
func ExitWithError(err error) {
	if err == nil {
		return
	}
	code := PrintError(os.Stderr, err)
	os.Exit(code.Int())
}
