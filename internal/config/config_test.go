package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/batchrun/internal/config"
	"github.com/rshade/batchrun/pkg/batch"
)

func TestNew_Defaults(t *testing.T) {
	cfg := config.New()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.ToOptions()
	require.NoError(t, err)
	assert.Equal(t, batch.DefaultBatchSize, opts.BatchSize)
	assert.Equal(t, batch.DefaultMaxAttempts, opts.Retry.MaxAttempts)
	assert.Equal(t, batch.BackoffLinear, opts.Retry.Backoff)
	assert.Equal(t, batch.DefaultInitialDelay, opts.Retry.InitialDelay)
	assert.Equal(t, batch.DefaultMaxDelay, opts.Retry.MaxDelay)
	assert.False(t, opts.ContinueOnError)
	assert.Zero(t, opts.Timeout)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.New()
	cfg.Batch.Size = 8
	cfg.Batch.Timeout = config.Duration(1500 * time.Millisecond)
	cfg.Retry.Backoff = "exponential"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.New(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeOverlay(t, `
batch:
  size: 5
  delay: 250
retry:
  max_attempts: 4
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Batch.Size)
	assert.Equal(t, config.Duration(250*time.Millisecond), cfg.Batch.Delay, "bare integers are milliseconds")
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, "linear", cfg.Retry.Backoff)
	assert.Equal(t, config.FormatText, cfg.Output.DefaultFormat)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeOverlay(t, "batch: {size: [1,2]}\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidate(t *testing.T) {
	cfg := config.New()
	cfg.Batch.Size = 0
	cfg.Retry.Backoff = "fibonacci"
	cfg.Output.DefaultFormat = "xml"
	cfg.Batch.Delay = config.Duration(-time.Second)

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, batch.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "retry.backoff")
	assert.Contains(t, err.Error(), "output.default_format")
	assert.Contains(t, err.Error(), "batch.delay")
}

func TestToOptions_BadBackoff(t *testing.T) {
	cfg := config.New()
	cfg.Retry.Backoff = "random"
	_, err := cfg.ToOptions()
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "100ms", want: 100 * time.Millisecond},
		{in: "2s", want: 2 * time.Second},
		{in: "250", want: 250 * time.Millisecond},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := config.ParseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestGetConfigPath_HonoursHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)

	path, err := config.GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)
}

func TestGlobalConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)
	t.Setenv(config.EnvBatchSize, "6")
	config.ResetGlobalConfigForTest()
	t.Cleanup(config.ResetGlobalConfigForTest)

	require.NoError(t, config.InitGlobalConfig())
	cfg := config.GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 6, cfg.Batch.Size)

	replacement := config.New()
	replacement.Batch.Size = 99
	config.SetGlobalConfig(replacement)
	assert.Equal(t, 99, config.GetGlobalConfig().Batch.Size)
}

func TestEnsureLogDir(t *testing.T) {
	cfg := config.New()
	require.NoError(t, config.EnsureLogDir(cfg))

	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "batchrun.log")
	require.NoError(t, config.EnsureLogDir(cfg))
	assert.DirExists(t, filepath.Dir(cfg.Logging.File))
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "debug", Format: "json"}
	assert.Equal(t, "stderr", lc.ToLoggingConfig().Output)

	lc.File = "/tmp/batchrun.log"
	out := lc.ToLoggingConfig()
	assert.Equal(t, "file", out.Output)
	assert.Equal(t, "/tmp/batchrun.log", out.File)
	assert.Equal(t, "debug", out.Level)
}
