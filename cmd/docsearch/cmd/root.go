// Package cmd provides the CLI commands for docsearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/doylet/docsearch/internal/logging"
	"github.com/doylet/docsearch/pkg/version"
)

var (
	flagDataDir string
	flagNoColor bool
	flagDebug   bool

	debugLoggingCleanup func()
)

// NewRootCmd creates the root command for the docsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsearch",
		Short: "Hybrid BM25 + vector document search",
		Long: `docsearch indexes a directory into a combined lexical (BM25) and
dense-vector (HNSW) store and serves hybrid search over it, either
directly or through a warm background daemon.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("docsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Project root containing .docsearch (default: current directory)")
	cmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging to ~/.docsearch/logs/")

	cmd.PersistentPreRunE = startDebugLogging
	cmd.PersistentPostRunE = stopDebugLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startDebugLogging enables file-based debug logging for the whole CLI
// invocation when --debug is set, so every command (search, index, serve,
// service helpers) logs through the same rotating file instead of only the
// separate docsearch-logs viewer ever touching internal/logging.
func startDebugLogging(_ *cobra.Command, _ []string) error {
	if !flagDebug {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("setup debug logging: %w", err)
	}
	debugLoggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopDebugLogging(_ *cobra.Command, _ []string) error {
	if debugLoggingCleanup != nil {
		slog.Info("debug logging stopped")
		debugLoggingCleanup()
		debugLoggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
