package site

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MalformedFrontMatterError reports a front matter block that was opened but
// not closed, or whose content is not a clean key/value mapping. Per-document.
type MalformedFrontMatterError struct {
	Source string
	Cause  error
}

func (e *MalformedFrontMatterError) Error() string {
	return fmt.Sprintf("%s: malformed front matter: %v", e.Source, e.Cause)
}

func (e *MalformedFrontMatterError) Unwrap() error { return e.Cause }

// PermalinkCollision records one output path claimed by multiple sources.
type PermalinkCollision struct {
	Output  string
	Sources []string
}

// DuplicatePermalinkError reports output paths resolved by more than one
// document. Build-fatal: silently overwriting one page with another is
// unrecoverable data loss. All collisions are reported, not just the first.
type DuplicatePermalinkError struct {
	Collisions []PermalinkCollision
}

func (e *DuplicatePermalinkError) Error() string {
	parts := make([]string, 0, len(e.Collisions))
	for _, c := range e.Collisions {
		parts = append(parts, fmt.Sprintf("%s claimed by %s", c.Output, strings.Join(c.Sources, ", ")))
	}
	return "duplicate permalink: " + strings.Join(parts, "; ")
}

// LayoutCycleError reports a cycle in the layout parent chain. Build-fatal:
// the layout arena is shared by every document.
type LayoutCycleError struct {
	Chain []string
}

func (e *LayoutCycleError) Error() string {
	return "layout cycle: " + strings.Join(e.Chain, " -> ")
}

// UnknownLayoutError reports a document referencing a layout that does not
// exist in the arena. Per-document.
type UnknownLayoutError struct {
	Source string
	Layout string
}

func (e *UnknownLayoutError) Error() string {
	return fmt.Sprintf("%s: unknown layout %q", e.Source, e.Layout)
}

// UnresolvedPermalinkError reports a permalink placeholder that is absent
// from front matter and not derivable from the filename. Per-document.
type UnresolvedPermalinkError struct {
	Source      string
	Pattern     string
	Placeholder string
}

func (e *UnresolvedPermalinkError) Error() string {
	return fmt.Sprintf("%s: permalink %q: unresolved placeholder :%s", e.Source, e.Pattern, e.Placeholder)
}

// RenderTimeoutError reports a document whose composition exceeded the
// configured per-document timeout. Per-document.
type RenderTimeoutError struct {
	Source  string
	Timeout time.Duration
}

func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("%s: render timed out after %s", e.Source, e.Timeout)
}

// IsFatal reports whether err is an index-wide invariant violation that must
// halt the whole build rather than exclude one document.
func IsFatal(err error) bool {
	var dup *DuplicatePermalinkError
	var cycle *LayoutCycleError
	return errors.As(err, &dup) || errors.As(err, &cycle)
}
