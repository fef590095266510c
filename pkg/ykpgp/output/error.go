package output

import "fmt"

// Error represents a structured error with a code and message.
// It implements the standard error interface and supports error chaining.
type Error struct {
	Code    Code
	Message string
	Cause   error

	exit *ExitCode
}

// NewError creates a new structured error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorf creates a new structured error with a formatted message.
func NewErrorf(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithCause wraps an underlying error for error chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithExitCode overrides the exit code derived from the error's Code.
func (e *Error) WithExitCode(code ExitCode) *Error {
	e.exit = &code
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the numeric exit code for CLI use.
func (e *Error) ExitCode() ExitCode {
	if e.exit != nil {
		return *e.exit
	}
	return e.Code.GetExitCode()
}

// Is checks if this error matches another error by code.
// This supports errors.Is() for code-based matching.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}
