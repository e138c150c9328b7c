package cmd

import "fmt"

// Exit codes for install runs. Scan runs exit with the report's
// severity code instead (0 clean, 1 info, 2 warning, 3 critical).
const (
	ExitOK                = 0
	ExitInstallFailed     = 1
	ExitInvalidInput      = 2
	ExitValidationFailed  = 3
	ExitThreatBlocked     = 4
	ExitUnsafeDestination = 5
)

// ExitError carries a process exit code through cobra's error return.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
