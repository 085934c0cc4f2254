// Package content discovers source files and classifies them by location.
//
// Kind membership is determined solely by where a file lives in the source
// tree: `_posts/` holds posts, `_drafts/` holds drafts, every other Markdown
// file is a page; anything else passes through as an asset. Underscore and
// dot directories (layouts, includes, output, VCS) never contribute content.
package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	qerrors "github.com/quietpress/quill/internal/errors"
	"github.com/quietpress/quill/internal/site"
)

// File is one discovered source file.
type File struct {
	Path    string // absolute path
	Rel     string // path relative to the source root, slash-separated
	Kind    site.Kind
	IsAsset bool
}

// Scanner walks a source tree.
type Scanner struct {
	root     string
	exclude  []string
	skipDirs []string
}

// NewScanner creates a scanner for the given source root. Exclude patterns
// are path.Match globs applied to source-relative paths; skipDirs names
// source-relative directories never descended into (the destination tree,
// when nested inside the source).
func NewScanner(root string, exclude []string, skipDirs ...string) *Scanner {
	return &Scanner{root: root, exclude: exclude, skipDirs: skipDirs}
}

var markdownExts = map[string]bool{".md": true, ".markdown": true}

// Scan walks the tree and returns every content file and asset. An
// unreadable source tree is a build-fatal error.
func (s *Scanner) Scan() ([]File, error) {
	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return nil, qerrors.Wrap(err, qerrors.CategoryContent, qerrors.SeverityFatal,
			fmt.Sprintf("source tree %s is not a readable directory", s.root))
	}

	var files []File
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return qerrors.Wrap(err, qerrors.CategoryContent, qerrors.SeverityFatal, "walk source tree")
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		base := filepath.Base(path)
		if d.IsDir() {
			// Special directories contribute via their own loaders, not as
			// content. _posts and _drafts are the exceptions.
			if strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			if strings.HasPrefix(base, "_") && base != "_posts" && base != "_drafts" {
				return filepath.SkipDir
			}
			for _, skip := range s.skipDirs {
				if rel == skip {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if strings.HasPrefix(base, ".") || s.excluded(rel) {
			return nil
		}

		files = append(files, classify(path, rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		// Also match against the base name so `*.tmp` works at any depth.
		if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}

func classify(path, rel string) File {
	f := File{Path: path, Rel: rel}

	ext := strings.ToLower(filepath.Ext(rel))
	isMarkdown := markdownExts[ext]

	switch {
	case strings.HasPrefix(rel, "_posts/"):
		if isMarkdown {
			f.Kind = site.KindPost
		} else {
			f.IsAsset = true
		}
	case strings.HasPrefix(rel, "_drafts/"):
		if isMarkdown {
			f.Kind = site.KindDraft
		} else {
			f.IsAsset = true
		}
	case isMarkdown:
		f.Kind = site.KindPage
	case ext == ".html" || ext == ".xml":
		// HTML/XML sources are documents only when they open with front
		// matter; otherwise they pass through untouched.
		if hasFrontMatter(path) {
			f.Kind = site.KindPage
		} else {
			f.IsAsset = true
		}
	default:
		f.IsAsset = true
	}

	return f
}

func hasFrontMatter(path string) bool {
	fh, err := os.Open(path)
	if err != nil {
		return false
	}
	defer fh.Close()

	buf := make([]byte, 4)
	n, _ := fh.Read(buf)
	return n >= 4 && string(buf[:3]) == "---" && (buf[3] == '\n' || buf[3] == '\r')
}
