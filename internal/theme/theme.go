// Package theme fetches a remote theme repository supplying layouts and
// includes that are overlaid beneath the site's local directories.
package theme

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/quietpress/quill/internal/config"
)

// Fetch clones the configured theme repository into the cache directory and
// returns its root. An existing checkout is replaced so a ref change in the
// configuration always takes effect.
func Fetch(ctx context.Context, cfg *config.ThemeConfig) (string, error) {
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "quill-themes")
	}
	checkout := filepath.Join(cacheDir, checkoutName(cfg.Repository, cfg.Ref))

	if err := os.RemoveAll(checkout); err != nil {
		return "", fmt.Errorf("clear theme checkout: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create theme cache: %w", err)
	}

	opts := &git.CloneOptions{URL: cfg.Repository, Depth: 1}
	if cfg.Ref != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + cfg.Ref)
		opts.SingleBranch = true
	}

	slog.Debug("Fetching theme", "repository", cfg.Repository, "ref", cfg.Ref, "path", checkout)
	repo, err := git.PlainCloneContext(ctx, checkout, false, opts)
	if err != nil {
		return "", fmt.Errorf("clone theme %s: %w", cfg.Repository, err)
	}
	if ref, herr := repo.Head(); herr == nil {
		slog.Info("Theme fetched", "repository", cfg.Repository, "commit", ref.Hash().String()[:8])
	}

	return checkout, nil
}

// LayoutDirs returns the layout overlay directories inside a theme checkout,
// local layouts dir first so it shadows the theme.
func LayoutDirs(localLayouts, themeRoot string) []string {
	dirs := []string{localLayouts}
	if themeRoot != "" {
		dirs = append(dirs, filepath.Join(themeRoot, "_layouts"))
	}
	return dirs
}

// IncludeDirs returns the include overlay directories, local first.
func IncludeDirs(localIncludes, themeRoot string) []string {
	dirs := []string{localIncludes}
	if themeRoot != "" {
		dirs = append(dirs, filepath.Join(themeRoot, "_includes"))
	}
	return dirs
}

func checkoutName(repository, ref string) string {
	name := strings.TrimSuffix(filepath.Base(repository), ".git")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "theme"
	}
	if ref != "" {
		name += "@" + ref
	}
	return name
}
