// Package permalink expands permalink patterns into output paths.
//
// Patterns use `:name` placeholders (`/:year/:month/:day/:slug/`). Values
// come from front matter or from the `YYYY-MM-DD-slug.md` filename
// convention; a placeholder resolvable from neither fails the document.
package permalink

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/quietpress/quill/internal/site"
	"github.com/quietpress/quill/internal/slug"
)

// DefaultPostPattern matches the classic dated blog URL shape.
const DefaultPostPattern = "/:year/:month/:day/:slug/"

var token = regexp.MustCompile(`:([a-z_]+)`)

// Vars carries the values available to pattern expansion.
type Vars struct {
	Date       time.Time
	HasDate    bool
	Slug       string
	Title      string
	Categories []string
}

// Expand substitutes every placeholder in pattern. The returned path keeps
// the pattern's trailing slash; see OutputPath for the file mapping.
func Expand(source, pattern string, v Vars) (string, error) {
	var unresolved string

	expanded := token.ReplaceAllStringFunc(pattern, func(m string) string {
		name := m[1:]
		val, ok := resolve(name, v)
		if !ok && unresolved == "" {
			unresolved = name
		}
		return val
	})

	if unresolved != "" {
		return "", &site.UnresolvedPermalinkError{Source: source, Pattern: pattern, Placeholder: unresolved}
	}

	// Collapse empty segments left by an empty :categories.
	expanded = strings.ReplaceAll(expanded, "//", "/")
	return expanded, nil
}

// OutputPath maps an expanded permalink to a destination-relative file path.
// Pretty URLs (trailing slash or no extension) map to an index.html inside
// the directory.
func OutputPath(expanded string) string {
	p := strings.TrimPrefix(expanded, "/")
	switch {
	case p == "":
		return "index.html"
	case strings.HasSuffix(p, "/"):
		return path.Join(p, "index.html")
	case path.Ext(p) == "":
		return path.Join(p, "index.html")
	default:
		return p
	}
}

// DefaultPagePath maps a page's source path to its output path when no
// permalink pattern is declared: the extension is swapped for .html.
func DefaultPagePath(source string) string {
	ext := path.Ext(source)
	if ext == "" {
		return source + ".html"
	}
	return strings.TrimSuffix(source, ext) + ".html"
}

func resolve(name string, v Vars) (string, bool) {
	switch name {
	case "year":
		if !v.HasDate {
			return "", false
		}
		return fmt.Sprintf("%04d", v.Date.Year()), true
	case "month":
		if !v.HasDate {
			return "", false
		}
		return fmt.Sprintf("%02d", int(v.Date.Month())), true
	case "day":
		if !v.HasDate {
			return "", false
		}
		return fmt.Sprintf("%02d", v.Date.Day()), true
	case "i_month":
		if !v.HasDate {
			return "", false
		}
		return fmt.Sprintf("%d", int(v.Date.Month())), true
	case "i_day":
		if !v.HasDate {
			return "", false
		}
		return fmt.Sprintf("%d", v.Date.Day()), true
	case "slug":
		return v.Slug, v.Slug != ""
	case "title":
		if v.Title == "" {
			return "", false
		}
		return slug.Make(v.Title), true
	case "categories":
		parts := make([]string, 0, len(v.Categories))
		for _, c := range v.Categories {
			parts = append(parts, slug.Make(c))
		}
		return strings.Join(parts, "/"), true
	default:
		return "", false
	}
}
