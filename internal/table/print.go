package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Fprint writes up to maxRows rows of t as an aligned text grid. maxRows <= 0
// prints every row. Missing values print as "<NA>".
func Fprint(w io.Writer, t *Table, maxRows int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(t.Names(), "\t")); err != nil {
		return err
	}
	n := t.rows
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	cells := make([]string, len(t.cols))
	for i := 0; i < n; i++ {
		for j, c := range t.cols {
			if c.IsMissing(i) {
				cells[j] = "<NA>"
				continue
			}
			cells[j] = c.Format(i)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	if n < t.rows {
		if _, err := fmt.Fprintf(tw, "... %d more row(s)\n", t.rows-n); err != nil {
			return err
		}
	}
	return tw.Flush()
}
