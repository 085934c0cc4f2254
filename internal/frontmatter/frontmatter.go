// Package frontmatter splits source documents into their YAML front matter
// block and Markdown body, and provides a typed view over the decoded fields.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter opened but closing delimiter is missing")

// Split separates a `---` delimited YAML front matter block from the body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. An opened but unclosed block is an error.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]

	// Empty block: the closing delimiter immediately follows the opening one.
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A final `---` without trailing newline still counts as closed.
		// For an empty block the opening newline doubles as the close
		// delimiter's leading one, so rest is the bare marker.
		if bytes.Equal(rest, []byte("---")) {
			return []byte{}, []byte{}, true, nil
		}
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			return rest[:len(rest)-len(tail)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// Decode parses raw YAML front matter (without delimiters) into a Meta map.
// The YAML must form a clean key/value mapping.
func Decode(fm []byte) (Meta, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return Meta{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return Meta(fields), nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
