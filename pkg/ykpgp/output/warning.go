package output

import "fmt"

// Warning represents a structured warning with a code and message.
type Warning struct {
	Code    Code
	Message string
}

// NewWarning creates a new structured warning with the given code and message.
func NewWarning(code Code, message string) *Warning {
	return &Warning{
		Code:    code,
		Message: message,
	}
}

// NewWarningf creates a new warning with a formatted message.
func NewWarningf(code Code, format string, args ...interface{}) *Warning {
	return NewWarning(code, fmt.Sprintf(format, args...))
}

// String returns a human-readable representation of the warning.
func (w *Warning) String() string {
	return fmt.Sprintf("warning: %s", w.Message)
}
