package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
)

// WriteFileAtomic calls write with a temporary file next to path and renames
// it over path once write succeeds and the data is synced. On any failure, or
// when ctx is done before the rename, the temporary file is removed and path
// is left untouched. Failures are *errs.IOError.
func WriteFileAtomic(ctx context.Context, path string, write func(w io.Writer) error) (err error) {
	fail := func(e error) error { return &errs.IOError{Op: "save", Path: path, Err: e} }
	if path == "" {
		return fail(os.ErrInvalid)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(err)
	}
	return nil
}
