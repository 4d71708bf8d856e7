package csv

import (
	"encoding/csv"
	"io"

	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Write renders t as CSV with a header row. Missing values are empty cells;
// dates use the column's display format, so period columns write as "2025-03".
func Write(w io.Writer, t *table.Table, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	cols := t.Columns()
	rec := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			rec[j] = c.Format(i)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
