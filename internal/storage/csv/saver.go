// Package csv saves tables as CSV files.
package csv

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	csvcodec "github.com/Haashiraaa/data-analysis-projects/internal/parser/csv"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Saver writes one CSV file atomically.
type Saver struct {
	cfg storage.Config
}

func New(cfg storage.Config) (*Saver, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csv: path must not be empty")
	}
	return &Saver{cfg: cfg}, nil
}

func (s *Saver) Save(ctx context.Context, t *table.Table) error {
	err := storage.WriteFileAtomic(ctx, s.cfg.Path, func(w io.Writer) error {
		return csvcodec.Write(w, t, ',')
	})
	if err != nil {
		return err
	}
	s.cfg.Log().Info("table saved", zap.String("kind", "csv"), zap.String("path", s.cfg.Path), zap.Int("rows", t.NumRows()))
	return nil
}

func init() {
	storage.Register("csv", func(cfg storage.Config) (storage.Saver, error) {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
