// Package vars implements the read-only binding context and the placeholder
// substitution applied to document bodies and layouts.
//
// Placeholders use the `{{ name }}` form with dotted, namespaced keys:
// `page.*` for front matter, `site.*` for configuration, `include.*` for
// shared snippets and `content` for the layout body hole. An unresolvable
// placeholder never aborts a document; it renders per the configured policy
// and is surfaced as a warning.
package vars

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Policy controls what an unresolved placeholder renders as.
type Policy string

const (
	// PolicyEmpty replaces unresolved placeholders with the empty string.
	PolicyEmpty Policy = "empty"
	// PolicyKeep leaves unresolved placeholders verbatim in the output.
	PolicyKeep Policy = "keep"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)

// Context is an immutable set of bindings. Deriving a new context never
// mutates the parent, so layouts can read bindings but cannot leak values
// back to siblings.
type Context struct {
	values map[string]string
}

// NewContext returns an empty binding context.
func NewContext() *Context {
	return &Context{values: map[string]string{}}
}

// WithNamespace returns a derived context with every entry of vals bound
// under `ns.key`. Values are stringified once, at binding time.
func (c *Context) WithNamespace(ns string, vals map[string]any) *Context {
	next := c.clone(len(vals))
	for k, v := range vals {
		next.values[ns+"."+k] = Stringify(v)
	}
	return next
}

// WithValue returns a derived context with a single additional binding.
func (c *Context) WithValue(key string, value any) *Context {
	next := c.clone(1)
	next.values[key] = Stringify(value)
	return next
}

// Lookup resolves a binding.
func (c *Context) Lookup(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Context) clone(extra int) *Context {
	next := &Context{values: make(map[string]string, len(c.values)+extra)}
	for k, v := range c.values {
		next.values[k] = v
	}
	return next
}

// Substitute replaces every `{{ name }}` placeholder in text with its
// binding. Unresolved names are rendered per policy and returned as
// warnings, one per distinct name.
func Substitute(text string, ctx *Context, policy Policy) (string, []string) {
	var missing []string
	seen := map[string]struct{}{}

	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := ctx.Lookup(name); ok {
			return v
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			missing = append(missing, name)
		}
		if policy == PolicyKeep {
			return m
		}
		return ""
	})

	return out, missing
}

// Stringify renders a binding value for interpolation. Dates render as
// 2006-01-02; lists join with ", ".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02")
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}
