// Package file reads user-supplied tables from the local machine: the upload
// gate that enforces the size cap and extension policy before any parsing,
// local files for the CLI, and explicit workbook-to-CSV conversion.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name is the base name used for extension checks and messages.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Size stats the file.
func (l *Local) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fi, err := os.Stat(l.path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", l.path, err)
	}
	return fi.Size(), nil
}

// Open opens the configured path for reading. A context that is already done
// short-circuits without touching the filesystem; filesystem errors are
// wrapped with the path and remain errors.Is-comparable.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ReadChecked runs the upload gate against the file and returns its text.
// Size and extension are rejected before the file is opened.
func (l *Local) ReadChecked(ctx context.Context, lim Limits) (string, error) {
	size, err := l.Size(ctx)
	if err != nil {
		return "", err
	}
	if err := lim.Check(l.Name(), size); err != nil {
		return "", err
	}
	rc, err := l.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return lim.ReadAll(ctx, l.Name(), size, rc)
}
