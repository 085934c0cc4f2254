package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/quietpress/quill/internal/build"
	"github.com/quietpress/quill/internal/watch"
)

// WatchCmd implements the 'watch' command: build once, then rebuild after
// every debounced change burst until interrupted.
type WatchCmd struct {
	Every time.Duration `help:"Also rebuild on a fixed interval (e.g. 5m)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	// Link checking on every save is noise; the one-shot build still runs it.
	cfg.SkipLinkCheck = true

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := newRecorder(cfg)
	rebuild := func(ctx context.Context) error {
		report, err := build.Run(ctx, cfg, recorder)
		if err != nil {
			return err
		}
		slog.Info("Rebuild finished", "outcome", string(report.Outcome), "emitted", report.Emitted)
		return nil
	}

	if err := rebuild(ctx); err != nil {
		// A broken initial build is not fatal for watch mode; the author is
		// about to edit the source anyway.
		slog.Error("Initial build failed", "error", err.Error())
	}

	return watch.Run(ctx, watch.Options{
		Source: cfg.Source,
		Ignore: []string{filepath.Base(cfg.Destination), ".git"},
		Every:  w.Every,
	}, rebuild)
}
