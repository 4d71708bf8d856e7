// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
)

// Local opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

func (l *Local) Name() string { return l.path }

// Ext returns the lowercased file extension without the dot ("csv", "xlsx").
func (l *Local) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(l.path)), ".")
}

// Open returns the underlying *os.File, so loaders needing random access
// (parquet) can type-assert io.ReaderAt.
//
// A context that is already done short-circuits without touching the disk.
// Filesystem failures come back as *errs.IOError, so a missing file is
// distinguishable through errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, &errs.IOError{Op: "load", Path: l.path, Err: err}
	}
	return f, nil
}
