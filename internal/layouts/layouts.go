// Package layouts loads the layout arena and composes rendered documents
// against their layout chain.
//
// A layout is a template file with a `{{ content }}` hole; its own front
// matter may name a parent layout, forming a chain up to the root. Chains
// are resolved with an explicit visited set, so a revisit is detected as a
// cycle rather than as stack exhaustion.
package layouts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quietpress/quill/internal/frontmatter"
	"github.com/quietpress/quill/internal/site"
	"github.com/quietpress/quill/internal/vars"
)

// Layout is one named template in the arena.
type Layout struct {
	Name   string
	Parent string
	Body   string
}

// Arena holds every known layout by name. It is populated once at build
// start and read-only afterwards.
type Arena struct {
	layouts  map[string]*Layout
	maxDepth int
}

// Load reads layout files (.html, .md) from dirs. Earlier directories win on
// name collision, so a local layouts dir passed first shadows a theme
// overlay passed after it.
func Load(maxDepth int, dirs ...string) (*Arena, error) {
	a := &Arena{layouts: map[string]*Layout{}, maxDepth: maxDepth}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read layouts dir %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if ext != ".html" && ext != ".md" {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ext)
			if _, shadowed := a.layouts[name]; shadowed {
				continue
			}

			raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("read layout %s: %w", entry.Name(), err)
			}

			fm, body, _, err := frontmatter.Split(raw)
			if err != nil {
				return nil, fmt.Errorf("layout %s: %w", entry.Name(), err)
			}
			meta, err := frontmatter.Decode(fm)
			if err != nil {
				return nil, fmt.Errorf("layout %s: %w", entry.Name(), err)
			}

			a.layouts[name] = &Layout{Name: name, Parent: meta.Layout(), Body: string(body)}
		}
	}

	return a, nil
}

// Has reports whether a layout name exists in the arena.
func (a *Arena) Has(name string) bool {
	_, ok := a.layouts[name]
	return ok
}

// Names returns the loaded layout names, unordered.
func (a *Arena) Names() []string {
	names := make([]string, 0, len(a.layouts))
	for name := range a.layouts {
		names = append(names, name)
	}
	return names
}

// Chain resolves the layout chain child -> parent -> ... -> root. A missing
// name yields UnknownLayoutError (attributed to source); a revisit or a
// chain beyond the configured depth yields LayoutCycleError.
func (a *Arena) Chain(source, name string) ([]*Layout, error) {
	var chain []*Layout
	visited := map[string]struct{}{}

	for current := name; current != ""; {
		if _, seen := visited[current]; seen {
			return nil, &site.LayoutCycleError{Chain: append(chainNames(chain), current)}
		}
		if len(chain) >= a.maxDepth {
			return nil, &site.LayoutCycleError{Chain: append(chainNames(chain), current)}
		}
		visited[current] = struct{}{}

		layout, ok := a.layouts[current]
		if !ok {
			return nil, &site.UnknownLayoutError{Source: source, Layout: current}
		}
		chain = append(chain, layout)
		current = layout.Parent
	}

	return chain, nil
}

// Compose wraps body in its layout chain. At each level the parent's
// `content` hole receives the accumulated child output; ctx supplies the
// page/site/include bindings, read-only for every layout. Returned warnings
// name the unresolved placeholders encountered across the chain.
func (a *Arena) Compose(source, layoutName string, body string, ctx *vars.Context, policy vars.Policy) (string, []string, error) {
	chain, err := a.Chain(source, layoutName)
	if err != nil {
		return "", nil, err
	}

	accumulated := body
	var warnings []string
	for _, layout := range chain {
		out, missing := vars.Substitute(layout.Body, ctx.WithValue("content", accumulated), policy)
		for _, name := range missing {
			warnings = append(warnings, fmt.Sprintf("layout %s: unresolved {{ %s }}", layout.Name, name))
		}
		accumulated = out
	}

	return accumulated, warnings, nil
}

func chainNames(chain []*Layout) []string {
	names := make([]string, 0, len(chain))
	for _, l := range chain {
		names = append(names, l.Name)
	}
	return names
}
