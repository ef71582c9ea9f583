package cli

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/batchrun/internal/config"
	"github.com/rshade/batchrun/internal/logging"
	"github.com/rshade/batchrun/pkg/batch"
)

// execFlags holds the flag values of the exec command. Only flags that were
// explicitly set override the configuration.
type execFlags struct {
	input           string
	placeholder     string
	batchSize       int
	delay           time.Duration
	timeout         time.Duration
	maxAttempts     int
	backoff         string
	initialDelay    time.Duration
	maxDelay        time.Duration
	continueOnError bool
	flatten         bool
	progress        bool
	output          string
}

func newExecCmd() *cobra.Command {
	var flags execFlags

	cmd := &cobra.Command{
		Use:   "exec [flags] -- <command> [args...]",
		Short: "Run a command once per input line in bounded batches",
		Long: `Reads one item per line from --input (or stdin) and runs the command once per item.

Items are grouped into batches of --batch-size. All items of a batch run
concurrently; the next batch starts only when every item of the current one has
finished. The item replaces {} in the arguments (or is appended when no argument
contains it) and is also written to the command's stdin.

A failed item is retried up to --max-attempts times. Without --continue-on-error
the first item that still fails aborts the run; with it, failures are reported
inline and the command exits with status 2.`,
		Example: `  # Ping hosts three at a time with a 2s limit per attempt
  batchrun exec --input hosts.txt --batch-size 3 --timeout 2s -- ping -c1 {}

  # Retry flaky uploads, keep going on failure, print JSON
  batchrun exec --max-attempts 4 --backoff exponential --continue-on-error --output json -- ./upload.sh {} < files.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "file with one item per line (default stdin)")
	f.StringVar(&flags.placeholder, "placeholder", defaultPlaceholder, "argument token replaced by the item")
	f.IntVarP(&flags.batchSize, "batch-size", "b", batch.DefaultBatchSize, "items run concurrently per batch")
	f.DurationVar(&flags.delay, "delay", 0, "pause before every batch except the first")
	f.DurationVar(&flags.timeout, "timeout", 0, "per-attempt time limit (0 = none)")
	f.IntVar(&flags.maxAttempts, "max-attempts", batch.DefaultMaxAttempts, "attempts per item before it fails")
	f.StringVar(&flags.backoff, "backoff", batch.BackoffLinear.String(), "retry wait policy: linear or exponential")
	f.DurationVar(&flags.initialDelay, "initial-delay", batch.DefaultInitialDelay, "wait before the second attempt")
	f.DurationVar(&flags.maxDelay, "max-delay", batch.DefaultMaxDelay, "upper bound for exponential waits")
	f.BoolVar(&flags.continueOnError, "continue-on-error", false, "report item failures inline instead of aborting")
	f.BoolVar(&flags.flatten, "flatten", false, "print one flat list instead of per-batch groups")
	f.BoolVar(&flags.progress, "progress", false, "print progress to stderr after every batch")
	f.StringVarP(&flags.output, "output", "o", "", "output format: text, json or yaml (default from config)")

	return cmd
}

// applyExecFlags overrides cfg with every flag the user set.
func applyExecFlags(cmd *cobra.Command, cfg *config.Config, flags execFlags) {
	changed := cmd.Flags().Changed

	if changed("batch-size") {
		cfg.Batch.Size = flags.batchSize
	}
	if changed("delay") {
		cfg.Batch.Delay = config.Duration(flags.delay)
	}
	if changed("timeout") {
		cfg.Batch.Timeout = config.Duration(flags.timeout)
	}
	if changed("continue-on-error") {
		cfg.Batch.ContinueOnError = flags.continueOnError
	}
	if changed("flatten") {
		cfg.Batch.Flatten = flags.flatten
	}
	if changed("max-attempts") {
		cfg.Retry.MaxAttempts = flags.maxAttempts
	}
	if changed("backoff") {
		cfg.Retry.Backoff = flags.backoff
	}
	if changed("initial-delay") {
		cfg.Retry.InitialDelay = config.Duration(flags.initialDelay)
	}
	if changed("max-delay") {
		cfg.Retry.MaxDelay = config.Duration(flags.maxDelay)
	}
	if changed("progress") {
		cfg.Output.Progress = flags.progress
	}
	if changed("output") {
		cfg.Output.DefaultFormat = flags.output
	}
}

func runExec(cmd *cobra.Command, args []string, flags execFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	cfg := *config.GetGlobalConfig()
	applyExecFlags(cmd, &cfg, flags)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}

	worker, err := newCommandWorker(args, flags.placeholder)
	if err != nil {
		return err
	}

	items, err := readInput(cmd, flags.input)
	if err != nil {
		return err
	}

	var attempts, timeouts int64
	opts.CancelOnTimeout = true
	opts.OnAttempt = func(e batch.AttemptEvent) {
		atomic.AddInt64(&attempts, 1)
		if e.Err == nil {
			return
		}
		if errors.Is(e.Err, batch.ErrTimeout) {
			atomic.AddInt64(&timeouts, 1)
		}
		log.Debug().
			Int("item", e.Index).
			Int("attempt", e.Attempt).
			Dur("duration", e.Duration).
			Err(e.Err).
			Msg("attempt failed")
	}

	if cfg.Output.Progress {
		tracker := batch.NewTracker(len(items), opts.BatchSize)
		tracker.OnUpdate(func(s batch.ProgressSnapshot) {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), formatProgress(s, tracker.EstimatedTimeRemaining()))
		})
		opts.OnProgress = func(completed, total int) {
			tracker.Observe(completed, total)
			log.Debug().
				Int("completed", completed).
				Int("total", total).
				Dur("eta", tracker.EstimatedTimeRemaining()).
				Msg("batch completed")
		}
	}

	log.Info().
		Str("command", worker.name).
		Int("items", len(items)).
		Int("batch_size", opts.BatchSize).
		Msg("exec started")

	start := time.Now()
	groups, err := batch.Run(ctx, items, worker.Run, opts)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("exec aborted")
		return fmt.Errorf("run aborted: %w", err)
	}

	flat := batch.Flatten(groups)
	failed := len(batch.Failures(flat))
	summary := runSummary{
		Items:    len(flat),
		Batches:  len(groups),
		Failed:   failed,
		Attempts: int(atomic.LoadInt64(&attempts)),
		Timeouts: int(atomic.LoadInt64(&timeouts)),
		Elapsed:  time.Since(start),
	}

	log.Info().
		Int("items", summary.Items).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("exec finished")

	r := renderer{
		w:      cmd.OutOrStdout(),
		format: cfg.Output.DefaultFormat,
		styled: cmd.OutOrStdout() == os.Stdout && isTerminal(os.Stdout),
	}
	if err = r.renderResults(toRecords(items, groups), cfg.Batch.Flatten, summary); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	if failed > 0 {
		return &ExitError{
			ExitCode: ExitItemFailures,
			Reason:   fmt.Sprintf("%d of %d items failed", failed, summary.Items),
		}
	}
	return nil
}
