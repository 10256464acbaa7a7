// Package storage provides tryon.Storage backends for generated images.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhpenta/tryon"
)

// Local writes images below a directory on disk.
type Local struct {
	dir string
}

// Ensure Local implements tryon.Storage.
var _ tryon.Storage = (*Local)(nil)

// NewLocal creates a Local backend rooted at dir. The directory is created on
// first save.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// SaveFile writes data to dir/path and returns a file:// URL for it. Paths
// that would leave dir are rejected.
func (l *Local) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage path %q escapes %s", path, l.dir)
	}

	full := filepath.Join(l.dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", full, err)
	}

	abs, err := filepath.Abs(full)
	if err != nil {
		abs = full
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
