package builtin

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// textCol builds a Text column; nil entries are missing.
func textCol(name string, vals ...*string) *table.Column {
	b := table.NewBuilder(name, table.Text, len(vals))
	for _, v := range vals {
		if v == nil {
			b.AppendNull()
			continue
		}
		b.AppendString(*v)
	}
	return b.Build()
}

func s(v string) *string { return &v }

func formatted(t *testing.T, tbl *table.Table, col string) []string {
	t.Helper()
	c, err := tbl.Column(col)
	require.NoError(t, err)
	out := make([]string, c.Len())
	for i := range out {
		if c.IsMissing(i) {
			out[i] = "<NA>"
			continue
		}
		out[i] = c.Format(i)
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nanValue() float64 { return math.NaN() }
