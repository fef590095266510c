package output

// Code represents a structured error or warning code.
// These are stable string identifiers for machine-readable error handling.
type Code string

// Error codes - grouped by category
const (
	// General errors (exit code 1)
	CodeGeneralError    Code = "GENERAL_ERROR"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeOperationFailed Code = "OPERATION_FAILED"
	CodeUsageError      Code = "USAGE_ERROR"

	// Config errors (exit code 2)
	CodeConfigInvalid    Code = "CONFIG_INVALID"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeConfigSaveError  Code = "CONFIG_SAVE_ERROR"

	// External tool errors. The exit code is normally replaced by the
	// failing command's own exit status.
	CodeCommandFailed Code = "COMMAND_FAILED"

	// An expected datum was missing from a tool's output (exit code 1)
	CodeStateNotFound Code = "STATE_NOT_FOUND"

	// The user declined an irreversible operation (exit code 0)
	CodeUserAbort Code = "USER_ABORT"
)

// Warning codes
const (
	CodeWarnGeneric     Code = "WARN_GENERIC"
	CodeWarnBestEffort  Code = "WARN_BEST_EFFORT"
	CodeWarnUnsupported Code = "WARN_UNSUPPORTED"
	CodeWarnBackup      Code = "WARN_BACKUP"
)

// IsWarning returns true if the code is a warning code.
func (c Code) IsWarning() bool {
	switch c {
	case CodeWarnGeneric, CodeWarnBestEffort, CodeWarnUnsupported, CodeWarnBackup:
		return true
	default:
		return false
	}
}

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}
