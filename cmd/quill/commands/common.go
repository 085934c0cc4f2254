package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/quietpress/quill/internal/config"
	"github.com/quietpress/quill/internal/metrics"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"quill.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site once"`
	Init    InitCmd    `cmd:"" help:"Scaffold a new site"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild on source changes"`
	History HistoryCmd `cmd:"" help:"Show recent build records"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file. A missing file is not an error;
// the defaults describe a conventional source tree.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

// newRecorder picks the metrics implementation: Prometheus when a textfile
// export is configured, a no-op otherwise.
func newRecorder(cfg *config.Config) metrics.Recorder {
	if cfg.Metrics.Textfile != "" {
		return metrics.NewPrometheusRecorder(prom.NewRegistry())
	}
	return metrics.NoopRecorder{}
}
