package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Environment variables read by ApplyEnv.
const (
	EnvBatchSize       = "BATCHRUN_BATCH_SIZE"
	EnvDelay           = "BATCHRUN_DELAY"
	EnvMaxAttempts     = "BATCHRUN_MAX_ATTEMPTS"
	EnvBackoff         = "BATCHRUN_BACKOFF"
	EnvTimeout         = "BATCHRUN_TIMEOUT"
	EnvContinueOnError = "BATCHRUN_CONTINUE_ON_ERROR"
	EnvLogLevel        = "BATCHRUN_LOG_LEVEL"
	EnvLogFormat       = "BATCHRUN_LOG_FORMAT"
)

// ApplyEnv overrides values from the environment. lookup is usually
// os.LookupEnv. Unparsable values are skipped and reported together.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	if v, ok := lookup(EnvBatchSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvBatchSize, err))
		} else {
			c.Batch.Size = n
		}
	}
	if v, ok := lookup(EnvDelay); ok && v != "" {
		if d, err := ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDelay, err))
		} else {
			c.Batch.Delay = Duration(d)
		}
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		if d, err := ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		} else {
			c.Batch.Timeout = Duration(d)
		}
	}
	if v, ok := lookup(EnvMaxAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxAttempts, err))
		} else {
			c.Retry.MaxAttempts = n
		}
	}
	if v, ok := lookup(EnvBackoff); ok && v != "" {
		c.Retry.Backoff = v
	}
	if v, ok := lookup(EnvContinueOnError); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvContinueOnError, err))
		} else {
			c.Batch.ContinueOnError = b
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}

	return errors.Join(errs...)
}
