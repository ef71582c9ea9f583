package batch

import (
	"context"
	"fmt"
	"time"
)

// Default run configuration, resolved per call.
const (
	// DefaultBatchSize is the number of items per group when BatchSize is 0.
	DefaultBatchSize = 1

	// DefaultMaxAttempts is the attempt budget when Retry.MaxAttempts <= 0.
	DefaultMaxAttempts = 1

	// DefaultInitialDelay is the base retry wait when Retry.InitialDelay is 0.
	DefaultInitialDelay = 100 * time.Millisecond

	// DefaultMaxDelay caps exponential backoff when Retry.MaxDelay is 0.
	DefaultMaxDelay = 30 * time.Second
)

// Worker processes a single item. It must be safe to call concurrently.
type Worker[T, R any] func(ctx context.Context, item T) (R, error)

// ProgressFunc is invoked after each group settles with the number of groups
// completed so far and the total number of groups.
type ProgressFunc func(completed, total int)

// AttemptEvent describes one settled worker invocation.
type AttemptEvent struct {
	// Index is the item position in the input slice.
	Index int
	// Attempt is 1-based.
	Attempt  int
	Started  time.Time
	Duration time.Duration
	// Err is nil for a successful attempt.
	Err error
}

// RetryOptions controls per-item retries.
type RetryOptions struct {
	// MaxAttempts is the total number of invocations per item. Values <= 0 mean 1.
	MaxAttempts int

	// Backoff selects the wait policy between attempts.
	Backoff BackoffKind

	// InitialDelay is the wait before the second attempt. Zero means
	// DefaultInitialDelay; a negative value disables the wait.
	InitialDelay time.Duration

	// MaxDelay caps exponential waits. Zero means DefaultMaxDelay.
	MaxDelay time.Duration
}

// Strategy returns the backoff strategy described by r after defaults are applied.
func (r RetryOptions) Strategy() Strategy {
	r = r.withDefaults()
	initial := r.InitialDelay
	if initial < 0 {
		initial = 0
	}
	if r.Backoff == BackoffExponential {
		return Exponential{Initial: initial, Max: r.MaxDelay}
	}
	return Constant{Interval: initial}
}

func (r RetryOptions) withDefaults() RetryOptions {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = DefaultMaxAttempts
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = DefaultInitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = DefaultMaxDelay
	}
	return r
}

// Options configures a run. The zero value is usable: one item per group,
// a single attempt, no timeout and abort on the first failure.
type Options struct {
	// BatchSize is the number of items run concurrently. Zero means DefaultBatchSize.
	BatchSize int

	// DelayBetweenBatches is slept before every group except the first.
	DelayBetweenBatches time.Duration

	Retry RetryOptions

	// ContinueOnError captures permanent failures as item outcomes instead of
	// aborting the run.
	ContinueOnError bool

	// Timeout bounds each attempt. Zero disables it.
	Timeout time.Duration

	// CancelOnTimeout cancels the context handed to the worker when its
	// attempt times out. Without it the timed-out call is left running.
	CancelOnTimeout bool

	// OnProgress is called from the run goroutine after each group.
	OnProgress ProgressFunc

	// OnAttempt is called after every attempt, concurrently from item goroutines.
	OnAttempt func(AttemptEvent)
}

func (o Options) withDefaults() (Options, error) {
	if o.BatchSize < 0 {
		return o, fmt.Errorf("%w: got %d", ErrInvalidConfiguration, o.BatchSize)
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.DelayBetweenBatches < 0 {
		o.DelayBetweenBatches = 0
	}
	if o.Timeout < 0 {
		o.Timeout = 0
	}
	o.Retry = o.Retry.withDefaults()
	return o, nil
}
