// Package parquet saves tables as Parquet files through the arrow writer.
package parquet

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	pqcodec "github.com/Haashiraaa/data-analysis-projects/internal/parser/parquet"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// DefaultCompression is used when the config names none.
const DefaultCompression = "snappy"

// Saver writes one Parquet file atomically.
type Saver struct {
	cfg storage.Config
}

// New validates cfg and returns a Saver.
func New(cfg storage.Config) (*Saver, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("parquet: path must not be empty")
	}
	if cfg.Compression == "" {
		cfg.Compression = DefaultCompression
	}
	if !pqcodec.Codec(cfg.Compression) {
		return nil, fmt.Errorf("parquet: unknown compression %q", cfg.Compression)
	}
	return &Saver{cfg: cfg}, nil
}

func (s *Saver) Save(ctx context.Context, t *table.Table) error {
	err := storage.WriteFileAtomic(ctx, s.cfg.Path, func(w io.Writer) error {
		return pqcodec.Write(w, t, pqcodec.WriteOptions{Compression: s.cfg.Compression})
	})
	if err != nil {
		return err
	}
	s.cfg.Log().Info("table saved",
		zap.String("kind", "parquet"),
		zap.String("path", s.cfg.Path),
		zap.String("compression", s.cfg.Compression),
		zap.Int("rows", t.NumRows()),
	)
	return nil
}

func init() {
	storage.Register("parquet", func(cfg storage.Config) (storage.Saver, error) {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
