// Package datasource defines where raw table bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one input table. Callers own the returned
// reader and must close it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs and errors, e.g. a file path.
	Name() string
}
