package output

import (
	"fmt"
	"io"
	"strings"
)

// Handler collects warnings and writes user-facing progress.
// Warnings go to stderr prefixed with "warning:", progress lines to stdout.
type Handler struct {
	stdout   io.Writer
	stderr   io.Writer
	silent   bool
	warnings []*Warning
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSilent sets silent mode (suppress warning output to stderr).
func WithSilent(silent bool) HandlerOption {
	return func(h *Handler) {
		h.silent = silent
	}
}

// NewHandler creates a new output handler with the given writers and options.
func NewHandler(stdout, stderr io.Writer, opts ...HandlerOption) *Handler {
	h := &Handler{
		stdout:   stdout,
		stderr:   stderr,
		warnings: make([]*Warning, 0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Discard returns a handler that writes nothing. Warnings are still collected.
func Discard() *Handler {
	return NewHandler(io.Discard, io.Discard, WithSilent(true))
}

// Warn records a warning and prints it unless silent.
func (h *Handler) Warn(w *Warning) {
	h.warnings = append(h.warnings, w)
	if !h.silent {
		_, _ = fmt.Fprintf(h.stderr, "warning: %s\n", w.Message)
	}
}

// Warnf creates and emits a warning with a formatted message.
func (h *Handler) Warnf(code Code, format string, args ...interface{}) {
	h.Warn(NewWarningf(code, format, args...))
}

// Success emits a message line to stdout.
func (h *Handler) Success(message string) {
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	_, _ = fmt.Fprint(h.stdout, message)
}

// Successf emits a formatted message line to stdout.
func (h *Handler) Successf(format string, args ...interface{}) {
	h.Success(fmt.Sprintf(format, args...))
}

// GetWarnings returns collected warnings.
func (h *Handler) GetWarnings() []*Warning {
	return h.warnings
}

// WarningCount returns the number of collected warnings.
func (h *Handler) WarningCount() int {
	return len(h.warnings)
}

// Stdout returns the stdout writer.
func (h *Handler) Stdout() io.Writer {
	return h.stdout
}

// Stderr returns the stderr writer.
func (h *Handler) Stderr() io.Writer {
	return h.stderr
}
