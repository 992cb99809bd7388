// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the path.
func (l *Local) Name() string { return l.path }

// Open opens the configured path for reading.
//
// A context that is already done short-circuits without touching the
// filesystem. Filesystem errors are wrapped with the path and still match
// errors.Is(err, os.ErrNotExist). Directories are rejected.
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
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	return f, nil
}
