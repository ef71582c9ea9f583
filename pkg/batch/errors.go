package batch

import (
	"fmt"
	"time"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors, comparable with errors.Is.
var (
	// ErrInvalidConfiguration is returned for a batch or partition size below 1.
	ErrInvalidConfiguration = constError("batch size must be a positive integer")

	// ErrNilWorker is returned when Run is called without a worker.
	ErrNilWorker = constError("batch worker cannot be nil")

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = constError("operation timed out")

	// ErrWorkerPanic matches every *PanicError.
	ErrWorkerPanic = constError("worker panicked")
)

// TimeoutError reports an attempt that did not settle within Options.Timeout.
type TimeoutError struct {
	Timeout time.Duration
	Attempt int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.Timeout)
}

// Is makes errors.Is(err, ErrTimeout) true.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// PanicError carries the value recovered from a panicking worker.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panicked: %v", e.Value)
}

// Is makes errors.Is(err, ErrWorkerPanic) true.
func (e *PanicError) Is(target error) bool {
	return target == ErrWorkerPanic
}

// PermanentFailureError is an item failure that survived every retry attempt.
// Err is the error of the last attempt.
type PermanentFailureError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *PermanentFailureError) Error() string {
	return fmt.Sprintf("item %d failed after %d attempt(s): %v", e.Index, e.Attempts, e.Err)
}

func (e *PermanentFailureError) Unwrap() error {
	return e.Err
}
