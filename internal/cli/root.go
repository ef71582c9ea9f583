package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/batchrun/internal/config"
	"github.com/rshade/batchrun/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the batchrun CLI.
// It loads configuration, wires up logging and registers the exec,
// partition and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "batchrun",
		Short:         "Run commands over input lines in bounded concurrent batches",
		Long:          "batchrun: run a command once per input item, a fixed number at a time, with retries, timeouts and pacing",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file overlaid on ~/.batchrun/config.yaml")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(newExecCmd(), newPartitionCmd(), newConfigCmd())

	return cmd
}

// loadConfig builds the effective configuration: defaults, then the config
// file and environment, then the --config overlay.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadEffective(os.LookupEnv)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	overlay, _ := cmd.Flags().GetString("config")
	if overlay != "" {
		if err := config.ShallowMergeYAML(cfg, overlay); err != nil {
			return nil, fmt.Errorf("loading --config: %w", err)
		}
	}
	return cfg, nil
}

const rootCmdExample = `  # Fetch URLs five at a time, retrying failures with exponential backoff
  batchrun exec --input urls.txt --batch-size 5 --max-attempts 3 --backoff exponential -- curl -fsS {}

  # Resize images two at a time with a pause between batches
  ls *.png | batchrun exec --batch-size 2 --delay 1s -- convert {} -resize 50% small/{}

  # Show how input lines would be grouped
  batchrun partition --size 3 --input items.txt --output json

  # Write a default configuration file
  batchrun config init`
