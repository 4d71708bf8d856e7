// Package parquet reads and writes columnar snapshots of a table with
// arrow-go's pqarrow bridge.
package parquet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Load reads a whole parquet file into a table. Inputs that are not seekable
// are buffered in memory first.
func Load(ctx context.Context, r io.Reader) (*table.Table, error) {
	src, ok := r.(parquet.ReaderAtSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
		src = bytes.NewReader(data)
	}
	pf, err := file.NewParquetReader(src)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("arrow reader: %w", err)
	}
	at, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer at.Release()

	schema := at.Schema()
	cols := make([]*table.Column, 0, schema.NumFields())
	for i, f := range schema.Fields() {
		typ, gran, err := semanticType(f)
		if err != nil {
			return nil, err
		}
		b := table.NewBuilder(f.Name, typ, int(at.NumRows()))
		if typ == table.Date {
			b.Granularity(gran)
		}
		for _, chunk := range at.Column(i).Data().Chunks() {
			if err := appendChunk(b, chunk); err != nil {
				return nil, fmt.Errorf("column %q: %w", f.Name, err)
			}
		}
		cols = append(cols, b.Build())
	}
	return table.New(cols...)
}

func appendChunk(b *table.Builder, arr arrow.Array) error {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.AppendNull()
			continue
		}
		if err := b.Append(value(arr, i)); err != nil {
			return err
		}
	}
	return nil
}

// value converts one non-null arrow cell to the Go value the table builder
// expects for its semantic type.
func value(arr arrow.Array, i int) any {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Boolean:
		return strconv.FormatBool(a.Value(i))
	case *array.Dictionary:
		return value(a.Dictionary(), a.GetValueIndex(i))
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC()
	case *array.Date32:
		return a.Value(i).ToTime().UTC()
	case *array.Date64:
		return a.Value(i).ToTime().UTC()
	}
	return nil
}

// codecs lists the compression names accepted by WriteOptions.
var codecs = map[string]compress.Compression{
	"snappy": compress.Codecs.Snappy,
	"zstd":   compress.Codecs.Zstd,
	"gzip":   compress.Codecs.Gzip,
	"none":   compress.Codecs.Uncompressed,

	"compressed": compress.Codecs.Zstd,
}

// Codec reports whether name is a supported compression.
func Codec(name string) bool {
	_, ok := codecs[name]
	return ok || name == ""
}

// WriteOptions tunes Write. The zero value writes snappy-compressed output.
type WriteOptions struct {
	Compression string
}

// Write encodes t as one parquet row group, storing the arrow schema so
// semantic types survive a reload. Write does not close w.
func Write(w io.Writer, t *table.Table, opt WriteOptions) error {
	name := opt.Compression
	if name == "" {
		name = "snappy"
	}
	codec, ok := codecs[name]
	if !ok {
		return fmt.Errorf("unknown parquet compression %q", name)
	}

	mem := memory.NewGoAllocator()
	schema := Schema(t)
	rec, err := Record(mem, schema, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(codec), parquet.WithCreatedBy("tidy"))
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(mem),
		pqarrow.WithStoreSchema(),
	)
	fw, err := pqarrow.NewFileWriter(schema, noClose{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	return fw.Close()
}

// noClose hides io.Closer so the parquet writer leaves the sink open for the
// caller to sync and close.
type noClose struct{ io.Writer }
