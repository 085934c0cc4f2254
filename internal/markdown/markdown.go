// Package markdown converts document bodies to HTML via goldmark.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer wraps a configured goldmark instance. It is safe for concurrent
// use; goldmark converters are stateless across Convert calls.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds the site renderer: GFM plus footnotes, with raw inline
// HTML passed through unchanged. Fenced code blocks are emitted verbatim
// inside <pre><code> with no markdown transformation applied to their
// contents.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts a Markdown body into HTML.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}
