package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// WriteTextfile exports a registry in the Prometheus text exposition format,
// suitable for node-exporter textfile collection after a batch build. The
// write goes through a temp file so collectors never read a partial export.
func WriteTextfile(reg *prom.Registry, path string) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".quill-metrics-*")
	if err != nil {
		return fmt.Errorf("create metrics tempfile: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metrics tempfile: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
