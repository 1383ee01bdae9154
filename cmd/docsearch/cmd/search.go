package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doylet/docsearch/internal/config"
	"github.com/doylet/docsearch/internal/daemon"
)

type searchOptions struct {
	limit      int
	collection string
	format     string
	local      bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed corpus",
		Long: `Search runs a hybrid BM25 + vector query against the index under
.docsearch, fusing and ranking both signals into a single ordered result
list.

If a docsearch daemon is running for this project it is used (the
embedder and stores stay warm); otherwise search opens the stores
directly for this one invocation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.collection, "collection", "c", "", "Restrict search to one collection")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Bypass the daemon and search directly")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	root := findRoot(flagDataDir)

	params := daemon.SearchParams{
		Query:      query,
		Limit:      opts.limit,
		Collection: opts.collection,
	}

	if !opts.local {
		client := daemon.NewClient(daemon.DefaultConfig())
		if client.IsRunning() {
			slog.Debug("searching via daemon", slog.String("query", query))
			results, err := client.Search(ctx, params)
			if err == nil {
				return printResults(cmd, query, results, opts.format)
			}
			slog.Warn("daemon search failed, falling back to local search", slog.String("error", err.Error()))
			fmt.Fprintf(cmd.ErrOrStderr(), "daemon search failed (%v), falling back to local search\n", err)
		}
	}

	slog.Debug("searching locally", slog.String("query", query), slog.String("root", root))
	return runLocalSearch(ctx, cmd, root, params, opts.format)
}

func runLocalSearch(ctx context.Context, cmd *cobra.Command, root string, params daemon.SearchParams, format string) error {
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, err := openService(ctx, dataDirFor(root), cfg)
	if err != nil {
		return fmt.Errorf("open service: %w", err)
	}
	defer svc.Close()

	if err := params.Validate(); err != nil {
		return err
	}
	resp, err := svc.Service.Search(ctx, params.ToSearchRequest())
	if err != nil {
		return err
	}

	results := make([]daemon.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, daemon.NewSearchResult(r))
	}
	return printResults(cmd, params.Query, results, format)
}

func printResults(cmd *cobra.Command, query string, results []daemon.SearchResult, format string) error {
	out := cmd.OutOrStdout()

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintf(out, "no results for %q\n", query)
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(out, "%d. %s (score %.3f)\n", i+1, r.Title, r.Score)
		if r.URI != "" {
			fmt.Fprintf(out, "   %s\n", r.URI)
		}
		if r.Snippet != nil {
			fmt.Fprintf(out, "   %s\n", strings.TrimSpace(*r.Snippet))
		}
	}
	return nil
}
