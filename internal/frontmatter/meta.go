package frontmatter

import (
	"fmt"
	"time"
)

// Meta is the decoded front matter mapping. A small set of fields is
// recognized and typed through accessors; everything else stays in the open
// bag and is reachable through Extra. Validation happens lazily, only when a
// typed accessor is called.
type Meta map[string]any

// Recognized field names.
const (
	keyTitle      = "title"
	keyDate       = "date"
	keyTags       = "tags"
	keyLayout     = "layout"
	keyPermalink  = "permalink"
	keyDraft      = "draft"
	keyPublished  = "published"
	keySlug       = "slug"
	keyWeight     = "weight"
	keyCategories = "categories"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Title returns the document title, or "" when unset.
func (m Meta) Title() string { return m.str(keyTitle) }

// Layout returns the declared layout name, or "" when none.
func (m Meta) Layout() string { return m.str(keyLayout) }

// Permalink returns the permalink pattern override, or "" when none.
func (m Meta) Permalink() string { return m.str(keyPermalink) }

// Slug returns the explicit slug override, or "" when none.
func (m Meta) Slug() string { return m.str(keySlug) }

// Draft reports whether the document is marked as a draft.
func (m Meta) Draft() bool {
	b, ok := m[keyDraft].(bool)
	return ok && b
}

// Published reports whether the document is published; it defaults to true
// when the field is absent.
func (m Meta) Published() bool {
	b, ok := m[keyPublished].(bool)
	return !ok || b
}

// Date returns the document date. ok is false when the field is absent; an
// error is returned when the field is present but not a recognizable date.
func (m Meta) Date() (date time.Time, ok bool, err error) {
	v, present := m[keyDate]
	if !present {
		return time.Time{}, false, nil
	}

	switch d := v.(type) {
	case time.Time:
		return d, true, nil
	case string:
		for _, layout := range dateLayouts {
			if t, perr := time.Parse(layout, d); perr == nil {
				return t, true, nil
			}
		}
		return time.Time{}, true, fmt.Errorf("unrecognized date %q", d)
	default:
		return time.Time{}, true, fmt.Errorf("date field has type %T, want string or timestamp", v)
	}
}

// Tags returns the document's tags, deduplicated per document while keeping
// declaration order. Tags are case-sensitive. A scalar tag value is treated
// as a single-element list.
func (m Meta) Tags() []string {
	v, present := m[keyTags]
	if !present {
		return nil
	}

	var raw []any
	switch t := v.(type) {
	case []any:
		raw = t
	case string:
		raw = []any{t}
	default:
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok || s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		tags = append(tags, s)
	}
	return tags
}

// Categories returns the document's categories in declaration order. A
// scalar value is treated as a single-element list.
func (m Meta) Categories() []string {
	var raw []any
	switch c := m[keyCategories].(type) {
	case []any:
		raw = c
	case string:
		raw = []any{c}
	default:
		return nil
	}

	cats := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			cats = append(cats, s)
		}
	}
	return cats
}

// Weight returns the explicit ordering weight for pages, if set.
func (m Meta) Weight() (int, bool) {
	switch w := m[keyWeight].(type) {
	case int:
		return w, true
	case float64:
		return int(w), true
	default:
		return 0, false
	}
}

// Extra returns all fields outside the recognized set.
func (m Meta) Extra() map[string]any {
	recognized := map[string]struct{}{
		keyTitle: {}, keyDate: {}, keyTags: {}, keyLayout: {},
		keyPermalink: {}, keyDraft: {}, keyPublished: {}, keySlug: {},
		keyWeight: {}, keyCategories: {},
	}
	extra := map[string]any{}
	for k, v := range m {
		if _, ok := recognized[k]; !ok {
			extra[k] = v
		}
	}
	return extra
}

func (m Meta) str(key string) string {
	s, _ := m[key].(string)
	return s
}
