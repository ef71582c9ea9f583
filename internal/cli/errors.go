package cli

// ExitError carries a process exit code for outcomes that are not command
// failures in the usual sense, such as a run that finished with captured item
// errors.
type ExitError struct {
	ExitCode int
	Reason   string
}

func (e *ExitError) Error() string {
	return e.Reason
}

// Exit codes used by ExitError.
const (
	ExitItemFailures = 2
)
