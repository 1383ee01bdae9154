package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doylet/docsearch/internal/daemon"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show query telemetry from the running daemon",
		Long: `Stats reports query-type counts, latency distribution and
zero-result queries accumulated by the daemon since it started.

Telemetry is in-process only: it lives inside the daemon's
analytics.Recorder and is reset whenever the daemon restarts. Without a
running daemon there is nothing to report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := daemon.NewClient(daemon.DefaultConfig())
			if !client.IsRunning() {
				return fmt.Errorf("no docsearch daemon running; start one with 'docsearch serve'")
			}

			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total queries: %d\n", stats.TotalQueries)
			fmt.Fprintf(out, "zero-result queries: %d (%.1f%%)\n", stats.ZeroResultCount, stats.ZeroResultRate*100)
			fmt.Fprintf(out, "exact repeats: %d\n", stats.ExactRepeatCount)

			if len(stats.QueryTypeCounts) > 0 {
				fmt.Fprintln(out, "query types:")
				for t, c := range stats.QueryTypeCounts {
					fmt.Fprintf(out, "  %s: %d\n", t, c)
				}
			}
			if len(stats.LatencyDistribution) > 0 {
				fmt.Fprintln(out, "latency buckets:")
				for b, c := range stats.LatencyDistribution {
					fmt.Fprintf(out, "  %s: %d\n", b, c)
				}
			}
			if len(stats.TopQueries) > 0 {
				fmt.Fprintln(out, "top queries:")
				for _, q := range stats.TopQueries {
					fmt.Fprintf(out, "  %q: %d\n", q.Query, q.Count)
				}
			}
			return nil
		},
	}

	return cmd
}
