package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// DefaultBatchSize is the number of rows handed to one CopyFn call.
const DefaultBatchSize = 5000

// CopyFn abstracts a backend's bulk insert. It inserts rows (aligned to
// columns) and returns the number of rows it reports as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// CopyTable feeds every row of t to copyFn in batches of batchSize, logging
// progress after each flush. It stops at the first error or when ctx is done.
func CopyTable(ctx context.Context, t *table.Table, batchSize int, copyFn CopyFn, log *zap.Logger) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		total   int64
		batches int
		start   = time.Now()
		columns = t.Names()
		batch   = make([][]any, 0, min(batchSize, t.NumRows()))
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			return err
		}
		batches++
		log.Debug("batch copied",
			zap.Int("batch", batches),
			zap.Int64("rows", n),
			zap.Int64("total", total),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	}

	for i := 0; i < t.NumRows(); i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch = append(batch, t.Row(i))
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// SQLTypes maps each column of t through typeOf, in column order.
func SQLTypes(t *table.Table, typeOf func(table.Field) string) []string {
	schema := t.Schema()
	out := make([]string, len(schema))
	for i, f := range schema {
		out[i] = typeOf(f)
	}
	return out
}

// DatesAsText returns t with every date column rendered as text in its display
// format ("2025-01-15", or "2025-03" for monthly periods). Backends without a
// native date type store these strings.
func DatesAsText(t *table.Table) (*table.Table, error) {
	out := t
	for _, c := range t.Columns() {
		if c.Type() != table.Date {
			continue
		}
		b := table.NewBuilder(c.Name(), table.Text, c.Len())
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) {
				b.AppendNull()
				continue
			}
			b.AppendString(c.Format(i))
		}
		var err error
		if out, err = out.With(b.Build()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
