package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/batchrun/internal/config"
	"github.com/rshade/batchrun/pkg/batch"
)

func newPartitionCmd() *cobra.Command {
	var (
		input  string
		size   int
		output string
	)

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Show how input lines are grouped into batches",
		Example: `  # Group lines into batches of three
  seq 10 | batchrun partition --size 3

  # JSON output
  batchrun partition --size 25 --input ids.txt --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if !cmd.Flags().Changed("size") {
				size = cfg.Batch.Size
			}
			if output == "" {
				output = cfg.Output.DefaultFormat
			}

			items, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			groups, err := batch.Partition(items, size)
			if err != nil {
				return err
			}

			r := renderer{
				w:      cmd.OutOrStdout(),
				format: output,
				styled: cmd.OutOrStdout() == os.Stdout && isTerminal(os.Stdout),
			}
			if err = r.renderGroups(groups); err != nil {
				return fmt.Errorf("writing groups: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "file with one item per line (default stdin)")
	cmd.Flags().IntVarP(&size, "size", "s", batch.DefaultBatchSize, "items per group")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: text, json or yaml (default from config)")

	return cmd
}
