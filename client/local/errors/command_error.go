package errors

import "fmt"

const (
	ExitCodeRemoteError     = 20
	ExitCodeValidationError = 30
)

// CmdError carries the exit code the process should end with when a command fails.
type CmdError struct {
	Cause error
	Code  int
}

func (e *CmdError) Error() string { return e.Cause.Error() }

func (e *CmdError) Unwrap() error { return e.Cause }

func NewCmdError(cause error, code int) *CmdError {
	return &CmdError{
		Cause: cause,
		Code:  code,
	}
}

// NewValidationErrorf reports bad flags or input, detected before anything is sent.
func NewValidationErrorf(format string, args ...any) *CmdError {
	return NewCmdError(fmt.Errorf(format, args...), ExitCodeValidationError)
}

// NewRemoteErrorf reports a request the changelogger server answered with a failure.
func NewRemoteErrorf(format string, args ...any) *CmdError {
	return NewCmdError(fmt.Errorf(format, args...), ExitCodeRemoteError)
}
