package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/batchrun/internal/config"
)

// newDefaultTarget returns a Config with known non-zero values so tests can
// verify that absent overlay keys leave the original values intact.
func newDefaultTarget() *config.Config {
	return &config.Config{
		Batch: config.BatchConfig{
			Size:            10,
			Delay:           config.Duration(time.Second),
			ContinueOnError: true,
		},
		Retry: config.RetryConfig{
			MaxAttempts: 3,
			Backoff:     "exponential",
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Output: config.OutputConfig{
			DefaultFormat: "json",
			Progress:      true,
		},
	}
}

// writeOverlay is a test helper that writes YAML content to a temp file
// and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
batch:
  size: 4
  timeout: 2s
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, 4, target.Batch.Size)
	assert.Equal(t, config.Duration(2*time.Second), target.Batch.Timeout)
	// Whole section replaced: fields absent from the overlay are zeroed.
	assert.False(t, target.Batch.ContinueOnError)
	assert.Zero(t, target.Batch.Delay)

	// Untouched sections survive.
	assert.Equal(t, 3, target.Retry.MaxAttempts)
	assert.Equal(t, "json", target.Logging.Format)
	assert.True(t, target.Output.Progress)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
plugins:
  foo: bar
logging:
  level: debug
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "debug", target.Logging.Level)
	assert.Equal(t, 10, target.Batch.Size)
}

func TestShallowMergeYAML_EmptyFile(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "# nothing here\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, newDefaultTarget(), target)
}

func TestShallowMergeYAML_Errors(t *testing.T) {
	t.Run("nil target", func(t *testing.T) {
		err := config.ShallowMergeYAML(nil, "whatever.yaml")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.ShallowMergeYAML(newDefaultTarget(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading overlay file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		overlay := writeOverlay(t, "batch: [unclosed\n")
		err := config.ShallowMergeYAML(newDefaultTarget(), overlay)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing overlay YAML")
	})

	t.Run("bad duration", func(t *testing.T) {
		overlay := writeOverlay(t, "batch:\n  delay: soon\n")
		err := config.ShallowMergeYAML(newDefaultTarget(), overlay)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `applying overlay section "batch"`)
	})
}
