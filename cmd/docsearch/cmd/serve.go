package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doylet/docsearch/internal/config"
	"github.com/doylet/docsearch/internal/daemon"
	"github.com/doylet/docsearch/internal/profiling"
)

func newServeCmd() *cobra.Command {
	var cpuProfilePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a background daemon keeping the index warm",
		Long: `Serve opens the stores for the project under --data-dir (or the
current directory) and listens on a Unix domain socket, so repeated
search commands can reuse the warm embedder and caches instead of
reopening everything on every invocation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cpuProfilePath != "" {
				cleanup, err := profiling.NewProfiler().StartCPU(cpuProfilePath)
				if err != nil {
					return fmt.Errorf("start cpu profile: %w", err)
				}
				defer cleanup()
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

			daemonCfg := daemon.DefaultConfig()
			if err := os.MkdirAll(filepath.Dir(daemonCfg.SocketPath), 0o755); err != nil {
				return fmt.Errorf("create daemon dir: %w", err)
			}

			srv, err := daemon.NewServer(daemonCfg.SocketPath)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			srv.SetHandler(daemon.NewServiceHandler(svc.Service))

			pf := daemon.NewPIDFile(daemonCfg.PIDPath)
			if err := pf.Write(); err != nil {
				return fmt.Errorf("write pid file: %w", err)
			}
			defer pf.Remove()

			fmt.Fprintf(cmd.OutOrStdout(), "docsearch daemon listening on %s\n", daemonCfg.SocketPath)
			slog.Info("daemon listening", slog.String("socket", daemonCfg.SocketPath))
			err = srv.ListenAndServe(ctx)
			_ = srv.Close()
			slog.Info("daemon stopped")
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cpuProfilePath, "cpuprofile", "", "Write a CPU profile to this path while the daemon runs")

	return cmd
}
