package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/quietpress/quill/internal/build"
	"github.com/quietpress/quill/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source        string `short:"s" help:"Source directory override"`
	Output        string `short:"o" help:"Destination directory override"`
	Drafts        bool   `help:"Include documents under _drafts"`
	Future        bool   `help:"Include posts dated after build time"`
	Strict        bool   `help:"Treat warnings as fatal"`
	Clean         bool   `help:"Remove the destination tree before emitting"`
	SkipLinkCheck bool   `name:"skip-link-check" help:"Skip internal link verification"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	b.applyOverrides(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := build.Run(ctx, cfg, newRecorder(cfg))
	fmt.Print(report.Summary())
	return err
}

// applyOverrides layers CLI flags over the file configuration. Boolean flags
// only ever enable behavior; absence leaves the file's setting alone.
func (b *BuildCmd) applyOverrides(cfg *config.Config) {
	if b.Source != "" {
		cfg.Source = b.Source
	}
	if b.Output != "" {
		cfg.Destination = b.Output
	}
	cfg.Drafts = cfg.Drafts || b.Drafts
	cfg.Future = cfg.Future || b.Future
	cfg.Strict = cfg.Strict || b.Strict
	cfg.Clean = cfg.Clean || b.Clean
	cfg.SkipLinkCheck = cfg.SkipLinkCheck || b.SkipLinkCheck
}
