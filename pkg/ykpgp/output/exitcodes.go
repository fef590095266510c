package output

// ExitCode is the numeric process exit status.
type ExitCode int

const (
	ExitSuccess      ExitCode = 0
	ExitGeneralError ExitCode = 1
	ExitConfigError  ExitCode = 2
)

// codeToExitCode maps structured codes to numeric exit codes.
var codeToExitCode = map[Code]ExitCode{
	CodeGeneralError:    ExitGeneralError,
	CodeInvalidInput:    ExitGeneralError,
	CodeOperationFailed: ExitGeneralError,
	CodeUsageError:      ExitGeneralError,

	CodeConfigInvalid:    ExitConfigError,
	CodeConfigParseError: ExitConfigError,
	CodeConfigSaveError:  ExitConfigError,

	CodeCommandFailed: ExitGeneralError,
	CodeStateNotFound: ExitGeneralError,
	CodeUserAbort:     ExitSuccess,
}

// GetExitCode returns the numeric exit code for a structured code.
func (c Code) GetExitCode() ExitCode {
	if exit, ok := codeToExitCode[c]; ok {
		return exit
	}
	return ExitGeneralError
}

// Int returns the integer value of the exit code.
func (e ExitCode) Int() int {
	return int(e)
}
