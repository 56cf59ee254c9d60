// Package watch recompiles assets whenever a source file changes. Events are
// debounced so editor save bursts trigger a single run.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/webcompile/internal/config"
	"git.home.luguber.info/inful/webcompile/internal/observability"
	"git.home.luguber.info/inful/webcompile/internal/resolve"
)

// DefaultDebounce is the quiet period after the last event before a run.
const DefaultDebounce = 300 * time.Millisecond

// Watcher drives compile runs from filesystem events.
type Watcher struct {
	Root     string
	Config   *config.Config
	Debounce time.Duration

	// Run is invoked after each debounced change burst, and once at startup.
	Run func(ctx context.Context) error
}

// Start blocks until the context is canceled, running the pipeline on source
// changes. Watched directories are derived from the resolved unit sources.
func (w *Watcher) Start(ctx context.Context) error {
	if w.Debounce <= 0 {
		w.Debounce = DefaultDebounce
	}

	plan, err := resolve.Resolve(w.Root, w.Config)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, dir := range watchDirs(w.Root, w.Config, plan) {
		if err := fsw.Add(dir); err != nil {
			observability.WarnContext(ctx, "Cannot watch directory",
				slog.String("dir", dir), slog.String("error", err.Error()))
		}
	}

	if err := w.Run(ctx); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			observability.DebugContext(ctx, "Source changed",
				slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
				fire = timer.C
			} else {
				timer.Reset(w.Debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			observability.WarnContext(ctx, "Watch error", slog.String("error", err.Error()))

		case <-fire:
			timer = nil
			fire = nil
			if err := w.Run(ctx); err != nil {
				// Configuration went bad mid-watch; report and keep watching.
				observability.ErrorContext(ctx, "Run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// watchDirs returns the unique directories to watch: the parent directory of
// every unit source plus the configured traversal roots and, with recurse on,
// their subdirectories. The roots cover partial-only directories, which hold
// no units of their own.
func watchDirs(root string, cfg *config.Config, plan *resolve.Plan) []string {
	seen := map[string]struct{}{}
	var dirs []string
	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	for _, u := range plan.Units() {
		add(filepath.Join(root, filepath.FromSlash(path.Dir(u.Source))))
	}

	for _, opts := range []config.TraversalOptions{cfg.Sass.TraversalOptions, cfg.JS.TraversalOptions} {
		for _, p := range opts.Paths {
			abs := filepath.Join(root, filepath.FromSlash(p))
			info, err := os.Stat(abs)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				add(filepath.Dir(abs))
				continue
			}
			add(abs)
			if opts.RecurseEnabled() {
				_ = filepath.WalkDir(abs, func(sub string, d fs.DirEntry, walkErr error) error {
					if walkErr == nil && d.IsDir() {
						add(sub)
					}
					return nil
				})
			}
		}
	}
	return dirs
}
