// Package emit writes the final output tree: composed documents at their
// resolved paths plus passthrough assets.
package emit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	qerrors "github.com/quietpress/quill/internal/errors"
)

// IncompleteMarker names the sentinel file present while a build is writing.
// Its presence in a destination tree means the tree must not be served.
const IncompleteMarker = ".quill-incomplete"

// Emitter writes into a destination root. Writes are byte-stable: emitting
// the same inputs twice produces an identical tree.
type Emitter struct {
	dest string
}

// New creates an emitter rooted at dest.
func New(dest string) *Emitter { return &Emitter{dest: dest} }

// Begin prepares the destination: optionally clears it, ensures it exists
// and drops the incomplete marker.
func (e *Emitter) Begin(clean bool) error {
	if clean {
		if err := os.RemoveAll(e.dest); err != nil {
			return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, "clean destination")
		}
	}
	if err := os.MkdirAll(e.dest, 0o755); err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, "create destination")
	}
	if err := os.WriteFile(e.markerPath(), []byte("build in progress\n"), 0o644); err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, "write incomplete marker")
	}
	return nil
}

// WriteDocument writes rendered bytes to a destination-relative path,
// creating intermediate directories.
func (e *Emitter) WriteDocument(rel string, data []byte) error {
	target, err := e.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, fmt.Sprintf("create directories for %s", rel))
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, fmt.Sprintf("write %s", rel))
	}
	return nil
}

// CopyAsset copies a passthrough file to the same destination-relative path.
func (e *Emitter) CopyAsset(src, rel string) error {
	target, err := e.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, fmt.Sprintf("create directories for %s", rel))
	}

	in, err := os.Open(src)
	if err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, fmt.Sprintf("open asset %s", src))
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, fmt.Sprintf("create asset %s", rel))
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, fmt.Sprintf("copy asset %s", rel))
	}
	return out.Close()
}

// Finish removes the incomplete marker; the tree is now valid output.
func (e *Emitter) Finish() error {
	if err := os.Remove(e.markerPath()); err != nil {
		return qerrors.Wrap(err, qerrors.CategoryEmit, qerrors.SeverityFatal, "remove incomplete marker")
	}
	return nil
}

func (e *Emitter) markerPath() string { return filepath.Join(e.dest, IncompleteMarker) }

// resolve joins rel under dest and rejects traversal outside it.
func (e *Emitter) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || len(clean) >= 3 && clean[:3] == ".."+string(filepath.Separator) {
		return "", qerrors.New(qerrors.CategoryEmit, qerrors.SeverityFatal, fmt.Sprintf("output path %q escapes destination", rel))
	}
	return filepath.Join(e.dest, clean), nil
}
