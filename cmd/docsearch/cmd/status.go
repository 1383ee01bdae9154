package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doylet/docsearch/internal/config"
	"github.com/doylet/docsearch/internal/daemon"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and index health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client := daemon.NewClient(daemon.DefaultConfig())
			if client.IsRunning() {
				status, err := client.Status(ctx)
				if err != nil {
					return err
				}
				printStatus(cmd, "daemon", status.Status, status.ReadinessStatus, status.CollectionsLoaded)
				return nil
			}

			root := findRoot(flagDataDir)
			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			svc, err := openService(ctx, dataDirFor(root), cfg)
			if err != nil {
				return fmt.Errorf("open service: %w", err)
			}
			defer svc.Close()

			live := svc.Service.Health(ctx)
			ready := svc.Service.ReadinessStatus(ctx)
			collections, err := svc.Service.ListCollections(ctx)
			if err != nil {
				return err
			}

			printStatus(cmd, "local", live.Status.String(), ready.Status.String(), len(collections))
			for _, check := range live.Checks {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", check.Name, check.Status.String())
			}
			return nil
		},
	}

	return cmd
}

func printStatus(cmd *cobra.Command, mode, status, readiness string, collections int) {
	fmt.Fprintf(cmd.OutOrStdout(), "mode: %s\nstatus: %s\nreadiness: %s\ncollections: %d\n",
		mode, status, readiness, collections)
}
