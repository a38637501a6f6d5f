package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/render"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const watchDebounce = 300 * time.Millisecond

func newBuildCmd(root *rootOptions) *cobra.Command {
	var (
		outDir string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "build <glob>...",
		Short: "Render documents with navigation into an output directory",
		Long: `Render every document matched by the glob patterns. HTML and Markdown
pages are written as HTML with the navigation injected; PDF and DOCX
documents are written as navigation tree JSON.

Examples:
  docnav build "docs/**/*.md" --out site
  docnav build "docs/**/*.html" --out site --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			b := &builder{cfg: cfg, log: log, outDir: outDir}

			files, err := expand(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no supported documents match %s", strings.Join(args, " "))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := b.buildAll(ctx, files); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %d document(s) into %s\n", len(files), outDir)

			if !watch {
				return nil
			}
			return b.watch(ctx, args, files)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "site", "output directory")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild documents when they change")
	return cmd
}

// expand resolves glob patterns to the sorted, de-duplicated list of
// supported documents.
func expand(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if parser.IsSupportedExtension(m) {
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

type builder struct {
	cfg    config.Config
	log    *slog.Logger
	outDir string
}

// buildAll builds files concurrently, at most WorkerCount at a time.
func (b *builder) buildAll(ctx context.Context, files []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.WorkerCount)
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return b.buildFile(f)
		})
	}
	return g.Wait()
}

// buildFile writes the output for one document.
func (b *builder) buildFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var out []byte
	var ext string
	if parser.IsRenderable(path) {
		page, tree, err := render.Page(bytes.NewReader(data), path, b.cfg.RenderOptions())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		out, ext = page, ".html"
		b.log.Debug("rendered", "file", path, "entries", len(tree.Order))
	} else {
		p, err := parser.ForFile(path, b.cfg.ParserOptions())
		if err != nil {
			return err
		}
		doc, err := p.Parse(bytes.NewReader(data), path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		tree := navigator.Build(doc, b.cfg.NavOptions())
		out, err = json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return err
		}
		ext = ".json"
		b.log.Debug("outlined", "file", path, "entries", len(tree.Order))
	}

	dst := outputPath(b.outDir, path, ext)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return err
	}
	b.log.Info("wrote", "file", path, "out", dst)
	return nil
}

// outputPath mirrors a relative source path under dir. Sources outside the
// working directory are written by base name.
func outputPath(dir, src, ext string) string {
	rel := filepath.Clean(src)
	if !filepath.IsLocal(rel) {
		rel = filepath.Base(rel)
	}
	return filepath.Join(dir, strings.TrimSuffix(rel, filepath.Ext(rel))+ext)
}

// watch rebuilds documents matching patterns when their directories change.
func (b *builder) watch(ctx context.Context, patterns, files []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	var dirs []string
	for _, f := range files {
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	for _, d := range slices.Compact(dirs) {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}
	b.log.Info("watching for changes", "dirs", len(dirs))

	pending := make(map[string]struct{})
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("watch error", "error", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if matchesAny(patterns, ev.Name) {
				pending[ev.Name] = struct{}{}
				timer.Reset(watchDebounce)
			}
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for f := range pending {
				changed = append(changed, f)
			}
			clear(pending)
			slices.Sort(changed)
			if err := b.buildAll(ctx, changed); err != nil {
				b.log.Error("rebuild failed", "error", err)
			}
		}
	}
}

func matchesAny(patterns []string, path string) bool {
	if !parser.IsSupportedExtension(path) {
		return false
	}
	for _, p := range patterns {
		if ok, _ := doublestar.PathMatch(filepath.Clean(p), filepath.Clean(path)); ok {
			return true
		}
	}
	return false
}
