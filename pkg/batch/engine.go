package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/batchrun/internal/logging"
)

// Run processes items in groups of opts.BatchSize and returns one slice of
// outcomes per group, in input order.
//
// Groups run strictly one after another; every item of a group runs in its own
// goroutine and the group completes only when all of them have settled. Unless
// opts.ContinueOnError is set, the first group containing a permanent failure
// ends the run: the failure of its lowest-index failed item is returned, later
// groups never start and no outcomes are returned.
//
// Cancelling ctx stops the run at the next suspension point and returns the
// context error.
func Run[T, R any](ctx context.Context, items []T, worker Worker[T, R], opts Options) ([][]Outcome[R], error) {
	if worker == nil {
		return nil, ErrNilWorker
	}

	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	groups, err := Partition(items, opts.BatchSize)
	if err != nil {
		return nil, err
	}

	r := &runner[T, R]{
		worker:   worker,
		opts:     opts,
		strategy: opts.Retry.Strategy(),
		log:      logging.FromContext(ctx),
	}
	return r.run(ctx, groups)
}

// RunFlat is Run with the per-group nesting removed.
func RunFlat[T, R any](ctx context.Context, items []T, worker Worker[T, R], opts Options) ([]Outcome[R], error) {
	groups, err := Run(ctx, items, worker, opts)
	if err != nil {
		return nil, err
	}
	return Flatten(groups), nil
}

type runner[T, R any] struct {
	worker   Worker[T, R]
	opts     Options
	strategy Strategy
	log      *zerolog.Logger
}

type attemptResult[R any] struct {
	value R
	err   error
}

func (r *runner[T, R]) run(ctx context.Context, groups [][]T) ([][]Outcome[R], error) {
	total := len(groups)
	results := make([][]Outcome[R], 0, total)
	start := time.Now()

	r.log.Debug().
		Int("groups", total).
		Int("batch_size", r.opts.BatchSize).
		Int("max_attempts", r.opts.Retry.MaxAttempts).
		Dur("timeout", r.opts.Timeout).
		Msg("batch run started")

	for groupIndex, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch %d not started: %w", groupIndex, err)
		}

		if groupIndex > 0 && r.opts.DelayBetweenBatches > 0 {
			if err := sleep(ctx, r.opts.DelayBetweenBatches); err != nil {
				return nil, fmt.Errorf("batch %d not started: %w", groupIndex, err)
			}
		}

		r.log.Debug().Int("batch", groupIndex).Int("items", len(group)).Msg("batch started")

		outcomes := r.runGroup(ctx, group, groupIndex*r.opts.BatchSize)

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch %d interrupted: %w", groupIndex, err)
		}

		if !r.opts.ContinueOnError {
			for _, o := range outcomes {
				if o.Err != nil {
					r.log.Warn().
						Int("batch", groupIndex).
						Int("item", o.Index).
						Int("attempts", o.Attempts).
						Err(o.Err).
						Msg("permanent failure, aborting run")
					return nil, fmt.Errorf("batch %d failed: %w", groupIndex, o.Err)
				}
			}
		}

		results = append(results, outcomes)

		if r.opts.OnProgress != nil {
			r.opts.OnProgress(groupIndex+1, total)
		}
	}

	r.log.Debug().
		Int("groups", total).
		Dur("elapsed", time.Since(start)).
		Msg("batch run finished")

	return results, nil
}

// runGroup runs every item of group concurrently. offset is the input index of
// group[0]. Each goroutine writes only its own slot.
func (r *runner[T, R]) runGroup(ctx context.Context, group []T, offset int) []Outcome[R] {
	outcomes := make([]Outcome[R], len(group))

	var g errgroup.Group
	for i, item := range group {
		g.Go(func() error {
			outcomes[i] = r.runItem(ctx, offset+i, item)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// runItem drives the retry loop for one item.
func (r *runner[T, R]) runItem(ctx context.Context, index int, item T) Outcome[R] {
	maxAttempts := r.opts.Retry.MaxAttempts

	for attempt := 1; ; attempt++ {
		started := time.Now()
		value, err := r.invoke(ctx, item, attempt)

		if r.opts.OnAttempt != nil {
			r.opts.OnAttempt(AttemptEvent{
				Index:    index,
				Attempt:  attempt,
				Started:  started,
				Duration: time.Since(started),
				Err:      err,
			})
		}

		if err == nil {
			return Outcome[R]{Index: index, Value: value, Attempts: attempt}
		}

		if attempt >= maxAttempts || ctx.Err() != nil {
			return Outcome[R]{
				Index:    index,
				Err:      &PermanentFailureError{Index: index, Attempts: attempt, Err: err},
				Attempts: attempt,
			}
		}

		wait := r.strategy.Delay(attempt)
		r.log.Debug().
			Int("item", index).
			Int("attempt", attempt).
			Dur("wait", wait).
			Err(err).
			Msg("attempt failed, retrying")

		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return Outcome[R]{
				Index:    index,
				Err:      &PermanentFailureError{Index: index, Attempts: attempt, Err: sleepErr},
				Attempts: attempt,
			}
		}
	}
}

// invoke runs one attempt. The worker runs in its own goroutine and races the
// timeout timer; a losing worker is detached and its result dropped into the
// buffered channel.
func (r *runner[T, R]) invoke(ctx context.Context, item T, attempt int) (R, error) {
	workerCtx := ctx
	if r.opts.Timeout > 0 && r.opts.CancelOnTimeout {
		var cancel context.CancelFunc
		workerCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	done := make(chan attemptResult[R], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- attemptResult[R]{err: &PanicError{Value: p}}
			}
		}()
		v, err := r.worker(workerCtx, item)
		done <- attemptResult[R]{value: v, err: err}
	}()

	var timeout <-chan time.Time
	if r.opts.Timeout > 0 {
		timer := time.NewTimer(r.opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var zero R
	select {
	case res := <-done:
		return res.value, res.err
	case <-timeout:
		return zero, &TimeoutError{Timeout: r.opts.Timeout, Attempt: attempt}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
