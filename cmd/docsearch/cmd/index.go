package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doylet/docsearch/internal/config"
	"github.com/doylet/docsearch/internal/gitignore"
	"github.com/doylet/docsearch/internal/output"
	"github.com/doylet/docsearch/internal/progress"
	"github.com/doylet/docsearch/internal/ui"
	"github.com/doylet/docsearch/internal/watcher"
)

const defaultCollection = "default"

func newIndexCmd() *cobra.Command {
	var (
		watch       bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory for hybrid search",
		Long: `Index walks a directory, chunking and embedding its files into the
lexical (BM25) and vector stores under .docsearch, honoring .gitignore
the way a git checkout of the directory would.

Use --watch to keep indexing in sync with the filesystem after the
initial pass, reconciling on every create, modify, delete, rename and
.gitignore change.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			root := absPath
			if flagDataDir != "" {
				root = flagDataDir
			}
			dataDir := dataDirFor(root)

			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			svc, err := openService(ctx, dataDir, cfg)
			if err != nil {
				return fmt.Errorf("open service: %w", err)
			}
			defer svc.Close()

			out := output.New(cmd.OutOrStdout())
			out.Statusf("", "indexing %s", absPath)
			slog.Debug("indexing directory", slog.String("path", absPath), slog.Int("concurrency", concurrency))
			result, err := indexDirectoryRespectingGitignore(ctx, svc, absPath, concurrency)
			if err != nil {
				return err
			}
			if len(result.errors) == 0 {
				out.Successf("indexed %d, skipped %d", result.indexed, result.skipped)
			} else {
				out.Warningf("indexed %d, skipped %d, errors %d", result.indexed, result.skipped, len(result.errors))
				slog.Warn("indexing completed with errors",
					slog.Int("indexed", result.indexed),
					slog.Int("skipped", result.skipped),
					slog.Int("errors", len(result.errors)))
			}
			errOut := output.New(cmd.ErrOrStderr())
			for _, e := range result.errors {
				errOut.Errorf("%s: %v", e.path, e.err)
			}

			if !watch {
				return nil
			}
			return watchAndReconcile(ctx, cmd, svc, absPath)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep indexing in sync with filesystem changes after the initial pass")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "Number of files to index concurrently")

	return cmd
}

type indexFileError struct {
	path string
	err  error
}

type indexDirResult struct {
	indexed int
	skipped int
	errors  []indexFileError
}

// indexDirectoryRespectingGitignore walks root, loading every .gitignore it
// finds along the way, and indexes each file not ignored by any of them (or
// by the always-on .docsearch/ and .git/ exclusions). It calls
// Service.IndexDocument directly rather than Service.IndexDirectory, since
// the latter has no notion of gitignore exclusions.
func indexDirectoryRespectingGitignore(ctx context.Context, svc *openedService, root string, concurrency int) (indexDirResult, error) {
	matcher := gitignore.New()
	matcher.AddPattern(".git/")
	matcher.AddPattern(".docsearch/")

	if err := loadGitignoreFiles(root, matcher); err != nil {
		return indexDirResult{}, err
	}

	type candidate struct {
		relPath string
		absPath string
	}
	var files []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		isDir := d.IsDir()
		if matcher.Match(rel, isDir) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil && info.Size() > 100*1024*1024 {
			return nil
		}
		files = append(files, candidate{relPath: rel, absPath: path})
		return nil
	})
	if err != nil {
		return indexDirResult{}, err
	}

	result := indexDirResult{}
	resultErrs := make(chan indexFileError, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, f := range files {
		f := f
		g.Go(func() error {
			raw, err := os.ReadFile(f.absPath)
			if err != nil {
				resultErrs <- indexFileError{path: f.relPath, err: err}
				return nil
			}
			_, err = svc.Service.IndexDocument(gctx, defaultCollection, f.relPath, f.relPath, raw)
			if err != nil {
				resultErrs <- indexFileError{path: f.relPath, err: err}
				return nil
			}
			return nil
		})
	}
	_ = g.Wait()
	close(resultErrs)

	for e := range resultErrs {
		result.errors = append(result.errors, e)
	}
	result.skipped = len(result.errors)
	result.indexed = len(files) - result.skipped

	return result, nil
}

// loadGitignoreFiles walks root collecting every .gitignore found, each
// scoped to its containing directory so nested ignore rules don't leak
// outside their own subtree.
func loadGitignoreFiles(root string, matcher *gitignore.Matcher) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != ".gitignore" {
			return nil
		}
		base, relErr := filepath.Rel(root, filepath.Dir(path))
		if relErr != nil {
			return relErr
		}
		if base == "." {
			base = ""
		}
		return matcher.AddFromFile(path, base)
	})
}

// watchAndReconcile runs a HybridWatcher over root, reindexing (or removing)
// documents as their files change, reporting progress through a live
// single-line renderer when attached to a TTY and plain log lines otherwise.
func watchAndReconcile(ctx context.Context, cmd *cobra.Command, svc *openedService, root string) error {
	w, err := watcher.NewHybridWatcher(watcher.Options{
		IgnorePatterns: []string{".docsearch/", ".docsearch/**"},
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx, root); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	out := cmd.OutOrStdout()
	live := ui.IsTTY(out) && !flagNoColor
	var reporter *progress.Reporter
	if live {
		reporter = progress.Start(ctx, defaultCollection)
		defer reporter.Stop()
	} else {
		fmt.Fprintf(out, "watching %s for changes\n", root)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			for _, evt := range batch {
				reconcileEvent(ctx, svc, root, evt, reporter, out, live)
			}
		case err, ok := <-w.Errors():
			if !ok {
				continue
			}
			if live {
				reporter.Report(progress.Event{Path: "", Action: "error", Err: err})
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			}
		}
	}
}

func reconcileEvent(ctx context.Context, svc *openedService, root string, evt watcher.FileEvent, reporter *progress.Reporter, out io.Writer, live bool) {
	switch evt.Operation {
	case watcher.OpDelete:
		_, err := svc.Service.DeleteDocument(ctx, defaultCollection, evt.Path)
		report(reporter, out, live, evt.Path, "removed", err)
	case watcher.OpGitignoreChange, watcher.OpConfigChange:
		result, err := indexDirectoryRespectingGitignore(ctx, svc, root, 8)
		if err != nil {
			report(reporter, out, live, evt.Path, "error", err)
			return
		}
		for _, e := range result.errors {
			report(reporter, out, live, e.path, "error", e.err)
		}
	default:
		absPath := filepath.Join(root, evt.Path)
		raw, err := os.ReadFile(absPath)
		if err != nil {
			report(reporter, out, live, evt.Path, "error", err)
			return
		}
		_, err = svc.Service.IndexDocument(ctx, defaultCollection, evt.Path, evt.Path, raw)
		report(reporter, out, live, evt.Path, "indexed", err)
	}
}

func report(reporter *progress.Reporter, out io.Writer, live bool, path, action string, err error) {
	if live {
		if err != nil {
			action = "error"
		}
		reporter.Report(progress.Event{Path: path, Action: action, Err: err})
		return
	}
	if err != nil {
		fmt.Fprintf(out, "  %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(out, "%s %s\n", action, path)
}
