package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doylet/docsearch/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system checks (disk, memory, permissions) before indexing or serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := findRoot(flagDataDir)
			dataDir := dataDirFor(root)
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose),
			)

			results := checker.RunAll(cmd.Context(), dataDir)
			checker.PrintResults(results)

			if checker.HasCriticalFailures(results) {
				return fmt.Errorf("preflight checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")
	return cmd
}
