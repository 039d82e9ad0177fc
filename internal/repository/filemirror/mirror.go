// Package filemirror keeps a copy of the latest document payload on local disk.
package filemirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

var _ repository.Mirror = (*Mirror)(nil)

// Mirror writes <dir>/<key>.json, replacing it via rename so readers never see
// a truncated file.
type Mirror struct {
	dir string
}

func New(dir string) *Mirror {
	return &Mirror{dir: dir}
}

// Path returns the file used for key.
func (m *Mirror) Path(key string) string {
	return filepath.Join(m.dir, key+".json")
}

func (m *Mirror) Save(_ context.Context, key string, payload []byte) error {
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}
	tmp, err := os.CreateTemp(m.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp mirror: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write mirror: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close mirror: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.Path(key)); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	return nil
}
