package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/batchrun/pkg/batch"
)

// Output formats accepted by OutputConfig.DefaultFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the batchrun configuration file (~/.batchrun/config.yaml).
type Config struct {
	Batch   BatchConfig   `yaml:"batch"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// BatchConfig holds the grouping and failure policy of a run.
type BatchConfig struct {
	Size            int      `yaml:"size"`
	Delay           Duration `yaml:"delay"`
	Timeout         Duration `yaml:"timeout"`
	ContinueOnError bool     `yaml:"continue_on_error"`
	Flatten         bool     `yaml:"flatten"`
}

// RetryConfig holds the per-item retry policy.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	Backoff      string   `yaml:"backoff"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
}

// LoggingConfig holds log level, format and optional file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Progress      bool   `yaml:"progress"`
}

// Duration is a time.Duration written as a Go duration string ("250ms") in YAML.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Bare integers are milliseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// ParseDuration parses a Go duration string, or a bare integer as milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}

// New returns a Config populated with the engine defaults.
func New() *Config {
	return &Config{
		Batch: BatchConfig{
			Size: batch.DefaultBatchSize,
		},
		Retry: RetryConfig{
			MaxAttempts:  batch.DefaultMaxAttempts,
			Backoff:      batch.BackoffLinear.String(),
			InitialDelay: Duration(batch.DefaultInitialDelay),
			MaxDelay:     Duration(batch.DefaultMaxDelay),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			DefaultFormat: FormatText,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the config file from the config directory.
func LoadDefault() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Batch.Size < 1 {
		errs = append(errs, fmt.Errorf("batch.size: %w: got %d", batch.ErrInvalidConfiguration, c.Batch.Size))
	}
	if c.Batch.Delay < 0 {
		errs = append(errs, fmt.Errorf("batch.delay must be >= 0, got %s", time.Duration(c.Batch.Delay)))
	}
	if c.Batch.Timeout < 0 {
		errs = append(errs, fmt.Errorf("batch.timeout must be >= 0, got %s", time.Duration(c.Batch.Timeout)))
	}
	if _, err := batch.ParseBackoff(c.Retry.Backoff); err != nil {
		errs = append(errs, fmt.Errorf("retry.backoff: %w", err))
	}
	if c.Retry.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("retry.max_delay must be >= 0, got %s", time.Duration(c.Retry.MaxDelay)))
	}
	switch c.Output.DefaultFormat {
	case FormatText, FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("output.default_format must be text, json or yaml, got %q", c.Output.DefaultFormat))
	}

	return errors.Join(errs...)
}

// ToOptions converts the file settings to engine options. Callbacks are left
// for the caller to set.
func (c *Config) ToOptions() (batch.Options, error) {
	backoff, err := batch.ParseBackoff(c.Retry.Backoff)
	if err != nil {
		return batch.Options{}, err
	}

	return batch.Options{
		BatchSize:           c.Batch.Size,
		DelayBetweenBatches: time.Duration(c.Batch.Delay),
		Timeout:             time.Duration(c.Batch.Timeout),
		ContinueOnError:     c.Batch.ContinueOnError,
		Retry: batch.RetryOptions{
			MaxAttempts:  c.Retry.MaxAttempts,
			Backoff:      backoff,
			InitialDelay: time.Duration(c.Retry.InitialDelay),
			MaxDelay:     time.Duration(c.Retry.MaxDelay),
		},
	}, nil
}
