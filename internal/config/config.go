// Package config loads and validates the quill.yaml build configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	qerrors "github.com/quietpress/quill/internal/errors"
	"github.com/quietpress/quill/internal/permalink"
	"github.com/quietpress/quill/internal/vars"
)

// Config is the build configuration. CLI flags override individual fields
// after loading.
type Config struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`

	Title       string         `yaml:"title"`
	Description string         `yaml:"description,omitempty"`
	Author      string         `yaml:"author,omitempty"`
	BaseURL     string         `yaml:"base_url,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`

	// Permalink is the default output pattern for posts; individual
	// documents may override it in front matter.
	Permalink string `yaml:"permalink"`

	LayoutsDir  string `yaml:"layouts_dir"`
	IncludesDir string `yaml:"includes_dir"`
	LayoutDepth int    `yaml:"layout_depth"`

	Drafts bool `yaml:"drafts"` // include documents under _drafts
	Future bool `yaml:"future"` // include posts dated after build time
	Strict bool `yaml:"strict"` // promote warnings to per-document errors

	// MissingVar picks what an unresolved substitution renders as:
	// "empty" or "keep".
	MissingVar string `yaml:"missing_var"`

	Workers       int      `yaml:"workers"`
	RenderTimeout Duration `yaml:"render_timeout"`

	Exclude []string `yaml:"exclude,omitempty"`
	Clean   bool     `yaml:"clean"`

	SkipLinkCheck bool `yaml:"skip_link_check"`

	Theme   *ThemeConfig  `yaml:"theme,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// ThemeConfig names a git repository supplying layouts and includes that are
// overlaid beneath the local directories.
type ThemeConfig struct {
	Repository string `yaml:"repository"`
	Ref        string `yaml:"ref,omitempty"`
	CacheDir   string `yaml:"cache_dir,omitempty"`
}

// HistoryConfig enables the SQLite build history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables Prometheus textfile export of build metrics.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file, expanding ${VAR} references after
// loading a .env file if one is present next to the process.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it only feeds os.ExpandEnv below.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qerrors.Wrap(err, qerrors.CategoryConfig, qerrors.SeverityFatal, fmt.Sprintf("read config %s", path))
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, qerrors.Wrap(err, qerrors.CategoryConfig, qerrors.SeverityFatal, "parse config")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = "."
	}
	if c.Destination == "" {
		c.Destination = "_site"
	}
	if c.Permalink == "" {
		c.Permalink = permalink.DefaultPostPattern
	}
	if c.LayoutsDir == "" {
		c.LayoutsDir = "_layouts"
	}
	if c.IncludesDir == "" {
		c.IncludesDir = "_includes"
	}
	if c.LayoutDepth == 0 {
		c.LayoutDepth = 10
	}
	if c.MissingVar == "" {
		c.MissingVar = string(vars.PolicyEmpty)
	}
	if c.RenderTimeout == 0 {
		c.RenderTimeout = Duration(10 * time.Second)
	}
}

// Validate rejects configurations that cannot produce a correct build.
func (c *Config) Validate() error {
	if c.MissingVar != string(vars.PolicyEmpty) && c.MissingVar != string(vars.PolicyKeep) {
		return qerrors.New(qerrors.CategoryConfig, qerrors.SeverityFatal,
			fmt.Sprintf("missing_var must be %q or %q, got %q", vars.PolicyEmpty, vars.PolicyKeep, c.MissingVar))
	}
	if c.LayoutDepth < 1 {
		return qerrors.New(qerrors.CategoryConfig, qerrors.SeverityFatal, "layout_depth must be at least 1")
	}
	if c.Workers < 0 {
		return qerrors.New(qerrors.CategoryConfig, qerrors.SeverityFatal, "workers must not be negative")
	}
	if c.Source == c.Destination {
		return qerrors.New(qerrors.CategoryConfig, qerrors.SeverityFatal, "source and destination must differ")
	}
	if c.Theme != nil && c.Theme.Repository == "" {
		return qerrors.New(qerrors.CategoryConfig, qerrors.SeverityFatal, "theme.repository is required when theme is set")
	}
	return nil
}

// MissingVarPolicy returns the validated substitution policy.
func (c *Config) MissingVarPolicy() vars.Policy { return vars.Policy(c.MissingVar) }

// SiteVars exposes the configuration as `site.*` bindings. Params entries
// are flattened in alongside the built-in fields. No build-time value is
// bound: the same source must always produce the same bytes.
func (c *Config) SiteVars() map[string]any {
	sv := map[string]any{
		"title":       c.Title,
		"description": c.Description,
		"author":      c.Author,
		"baseurl":     c.BaseURL,
	}
	for k, v := range c.Params {
		sv[k] = v
	}
	return sv
}
