// Package linkcheck verifies that internal links in the emitted tree
// resolve to files that were actually emitted.
package linkcheck

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Issue is one broken internal reference.
type Issue struct {
	File string // emitted file containing the link, destination-relative
	Href string // the offending reference
}

func (i Issue) String() string { return fmt.Sprintf("%s: broken link %q", i.File, i.Href) }

// Verify walks the destination tree, parses every HTML file and checks each
// internal href/src. External links, anchors and mailto references are out
// of scope.
func Verify(dest string) ([]Issue, error) {
	emitted := map[string]struct{}{}
	var htmlFiles []string

	err := filepath.WalkDir(dest, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := filepath.ToSlash(strings.TrimPrefix(p, dest+string(filepath.Separator)))
		emitted[rel] = struct{}{}
		if strings.HasSuffix(rel, ".html") {
			htmlFiles = append(htmlFiles, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk destination: %w", err)
	}

	var issues []Issue
	for _, rel := range htmlFiles {
		refs, err := extractRefs(filepath.Join(dest, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if target, internal := resolveInternal(rel, ref); internal && !exists(emitted, target) {
				issues = append(issues, Issue{File: rel, Href: ref})
			}
		}
	}

	return issues, nil
}

func extractRefs(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	doc, err := html.Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := getAttr(n, "href"); href != "" {
					refs = append(refs, href)
				}
			case "img", "script":
				if src := getAttr(n, "src"); src != "" {
					refs = append(refs, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return refs, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// resolveInternal maps a reference to a destination-relative path. internal
// is false for external URLs, anchors and non-http schemes.
func resolveInternal(from, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}

	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = path.Join(path.Dir(from), p)
	}
	return strings.TrimPrefix(path.Clean(p), "/"), true
}

// exists accepts directory-style targets: /a/ matches a/index.html, and an
// extensionless /a matches a/index.html or a.html.
func exists(emitted map[string]struct{}, target string) bool {
	if target == "" {
		return true
	}
	candidates := []string{
		target,
		path.Join(target, "index.html"),
		target + ".html",
	}
	for _, c := range candidates {
		if _, ok := emitted[c]; ok {
			return true
		}
	}
	return false
}
