package parquet

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Field metadata keys carrying the semantic type across a round trip.
const (
	metaType   = "tidy.type"
	metaPeriod = "tidy.period"
)

// Schema maps a table's columns to an arrow schema. Categorical and period
// columns keep their semantic type in field metadata.
func Schema(t *table.Table) *arrow.Schema {
	cols := t.Columns()
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		keys := []string{metaType}
		vals := []string{c.Type().String()}
		if c.IsPeriod() {
			keys = append(keys, metaPeriod)
			vals = append(vals, string(c.Granularity()))
		}
		fields[i] = arrow.Field{
			Name:     c.Name(),
			Type:     arrowType(c.Type()),
			Nullable: true,
			Metadata: arrow.NewMetadata(keys, vals),
		}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t table.Type) arrow.DataType {
	switch t {
	case table.Integer:
		return arrow.PrimitiveTypes.Int64
	case table.Decimal:
		return arrow.PrimitiveTypes.Float64
	case table.Date:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// Record copies t into a single arrow record. The caller releases it.
func Record(mem memory.Allocator, schema *arrow.Schema, t *table.Table) (arrow.Record, error) {
	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	for i, c := range t.Columns() {
		fb := rb.Field(i)
		fb.Reserve(c.Len())
		for r := 0; r < c.Len(); r++ {
			if c.IsMissing(r) {
				fb.AppendNull()
				continue
			}
			switch b := fb.(type) {
			case *array.StringBuilder:
				b.Append(c.Value(r).(string))
			case *array.Int64Builder:
				b.Append(c.Value(r).(int64))
			case *array.Float64Builder:
				b.Append(c.Value(r).(float64))
			case *array.TimestampBuilder:
				b.Append(arrow.Timestamp(c.Value(r).(time.Time).UnixMicro()))
			default:
				return nil, fmt.Errorf("column %q: unsupported arrow builder %T", c.Name(), fb)
			}
		}
	}
	return rb.NewRecord(), nil
}

// semanticType recovers a column type from field metadata, falling back to
// the physical arrow type for files written elsewhere.
func semanticType(f arrow.Field) (table.Type, table.Granularity, error) {
	if v, ok := f.Metadata.GetValue(metaType); ok {
		typ, err := table.ParseType(v)
		if err != nil {
			return 0, "", err
		}
		g, _ := f.Metadata.GetValue(metaPeriod)
		return typ, table.Granularity(g), nil
	}
	switch f.Type.ID() {
	case arrow.STRING, arrow.LARGE_STRING, arrow.BOOL:
		return table.Text, "", nil
	case arrow.DICTIONARY:
		return table.Categorical, "", nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return table.Integer, "", nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return table.Decimal, "", nil
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return table.Date, "", nil
	default:
		return 0, "", fmt.Errorf("field %q: unsupported arrow type %s", f.Name, f.Type)
	}
}
