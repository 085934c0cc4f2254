// Package watch re-runs the build when source files change, and optionally
// on a fixed schedule. It performs no serving; each trigger is one more
// one-way build.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
)

const debounceWindow = 300 * time.Millisecond

// Options configures a watch session.
type Options struct {
	Source string        // source tree to watch
	Ignore []string      // directory names never watched (destination, VCS)
	Every  time.Duration // optional periodic rebuild interval
}

// Run blocks, invoking rebuild after each debounced change burst until ctx
// is canceled. The initial build is the caller's responsibility.
func Run(ctx context.Context, opts Options, rebuild func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirsRecursive(watcher, opts.Source, opts.Ignore); err != nil {
		return err
	}

	rebuildReq, trigger := newDebouncer(debounceWindow)

	var scheduler gocron.Scheduler
	if opts.Every > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(opts.Every),
			gocron.NewTask(func() { trigger() }),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
		slog.Info("Periodic rebuild scheduled", "every", opts.Every)
	}

	slog.Info("Watching for changes", "source", opts.Source)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignoredPath(event.Name, opts.Ignore) {
				continue
			}
			// New directories must be picked up for future events.
			if event.Op.Has(fsnotify.Create) {
				_ = addDirsRecursive(watcher, event.Name, opts.Ignore)
			}
			slog.Debug("Change detected", "path", event.Name, "op", event.Op.String())
			trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)

		case <-rebuildReq:
			if err := rebuild(ctx); err != nil {
				// A broken rebuild keeps the watch alive; the author is
				// mid-edit and the next save may fix it.
				slog.Error("Rebuild failed", "error", err)
			}
		}
	}
}

// newDebouncer coalesces change bursts into a single rebuild request.
func newDebouncer(window time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(window, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}

	return req, trigger
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string, ignore []string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && (strings.HasPrefix(base, ".") || ignoredName(base, ignore)) {
			return filepath.SkipDir
		}
		if werr := watcher.Add(path); werr != nil {
			slog.Warn("Cannot watch directory", "path", path, "error", werr)
		}
		return nil
	})
}

func ignoredName(base string, ignore []string) bool {
	for _, name := range ignore {
		if base == name {
			return true
		}
	}
	return false
}

func ignoredPath(path string, ignore []string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "." && part != ".." && (strings.HasPrefix(part, ".") || ignoredName(part, ignore)) {
			return true
		}
	}
	return false
}
