// Package site defines the document model, collections, the tag index and
// the immutable snapshot consumed by downstream build stages.
package site

import (
	"strings"
	"time"

	"github.com/quietpress/quill/internal/frontmatter"
)

// Kind classifies a document by its source location.
type Kind string

const (
	KindPost  Kind = "post"
	KindPage  Kind = "page"
	KindDraft Kind = "draft"
)

// State tracks a document's progress through the pipeline. A document either
// reaches StateEmitted or stops at StateFailed with Err set.
type State string

const (
	StateParsed       State = "parsed"
	StateBodyRendered State = "body_rendered"
	StateIndexed      State = "indexed"
	StateComposed     State = "composed"
	StateEmitted      State = "emitted"
	StateFailed       State = "failed"
)

// Document is a single source file flowing through the pipeline. Identity is
// the source-relative path; the resolved output path is computed exactly once
// and never changes afterwards.
type Document struct {
	Source string // path relative to the source root
	Kind   Kind

	Meta    frontmatter.Meta
	RawBody []byte

	// Derived during parsing.
	Date time.Time
	Slug string

	// Rendered is the HTML body after substitution and markdown conversion.
	Rendered []byte

	// Composed is the final output after layout composition.
	Composed []byte

	// Output is the resolved destination path, relative to the destination
	// root. Deterministic for a given source and front matter.
	Output string

	State State
	Err   error
}

// Fail marks the document as terminally failed.
func (d *Document) Fail(err error) {
	d.State = StateFailed
	d.Err = err
}

// Failed reports whether the document was excluded by a per-document error.
func (d *Document) Failed() bool { return d.State == StateFailed }

// Title returns the front matter title, falling back to the slug.
func (d *Document) Title() string {
	if t := d.Meta.Title(); t != "" {
		return t
	}
	return d.Slug
}

// URL returns the site-absolute URL for the document's output path, with a
// trailing index.html folded into the directory form.
func (d *Document) URL() string {
	u := "/" + d.Output
	if strings.HasSuffix(u, "/index.html") {
		u = strings.TrimSuffix(u, "index.html")
	}
	return u
}

// Collection is a named, ordered group of documents sharing a kind.
type Collection struct {
	Name string
	Docs []*Document
}
