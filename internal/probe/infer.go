package probe

import (
	"strings"

	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer/builtin"
)

const (
	// maxCategories caps the distinct values a text column may have to be
	// suggested as categorical.
	maxCategories = 50
	// minCategoricalRows is the sample size below which text stays text.
	minCategoricalRows = 10
	sampleValues       = 3
)

// Column is the inspection of one source column.
type Column struct {
	Name string `json:"name"`
	// Normalized is the name the normalize stage will give the column.
	Normalized string `json:"normalized"`
	Type       string `json:"type"`
	// Layout is the best-scoring date layout for date columns.
	Layout    string   `json:"layout,omitempty"`
	Missing   int      `json:"missing"`
	Sentinels int      `json:"sentinels"`
	Distinct  int      `json:"distinct"`
	Sample    []string `json:"sample,omitempty"`
}

// inferColumn inspects c. Typed columns (from parquet snapshots) keep their
// type; raw text is classified from its values.
func inferColumn(c *table.Column, sentinel string) Column {
	col := Column{
		Name:       c.Name(),
		Normalized: builtin.Normalize{Separator: "_"}.Name(c.Name()),
		Type:       c.Type().String(),
		Missing:    c.MissingCount(),
	}
	distinct := c.Distinct()
	col.Distinct = len(distinct)
	for i := 0; i < len(distinct) && i < sampleValues; i++ {
		col.Sample = append(col.Sample, distinct[i])
	}
	if !c.Type().IsText() {
		return col
	}

	raw, _ := c.Strings()
	values := make([]string, 0, len(raw))
	for i, v := range raw {
		if c.IsMissing(i) {
			continue
		}
		if sentinel != "" && strings.TrimSpace(v) == sentinel {
			col.Sentinels++
			continue
		}
		values = append(values, v)
	}
	typ, layout := inferTypeForColumn(values)
	col.Type, col.Layout = typ.String(), layout
	return col
}

// inferTypeForColumn picks the narrowest semantic type every non-empty value
// satisfies: integer, decimal, date, then categorical or text.
func inferTypeForColumn(values []string) (table.Type, string) {
	nonEmpty := nonEmptyTrimmed(values)
	if len(nonEmpty) == 0 {
		return table.Text, ""
	}
	if allMatch(nonEmpty, isInt) {
		return table.Integer, ""
	}
	if allMatch(nonEmpty, isNumber) {
		return table.Decimal, ""
	}
	if layout := builtin.BestLayout(nonEmpty); layout != "" {
		ok := allMatch(nonEmpty, func(s string) bool {
			_, ok := builtin.ParseDate(s, layout)
			return ok
		})
		if ok {
			return table.Date, layout
		}
	}
	if looksCategorical(nonEmpty) {
		return table.Categorical, ""
	}
	return table.Text, ""
}

func looksCategorical(vals []string) bool {
	if len(vals) < minCategoricalRows {
		return false
	}
	seen := make(map[string]struct{})
	for _, v := range vals {
		seen[v] = struct{}{}
		if len(seen) > maxCategories {
			return false
		}
	}
	return len(seen)*2 <= len(vals)
}

// nonEmptyTrimmed returns the non-empty, trimmed values.
func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// allMatch reports whether every value satisfies fn.
func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isInt accepts whole numbers, currency-formatted ones included, but not
// "12.0" so decimals stay decimal.
func isInt(s string) bool {
	if strings.ContainsAny(s, ".eE") {
		return false
	}
	_, ok := builtin.ParseInteger(s)
	return ok
}

func isNumber(s string) bool {
	_, ok := builtin.ParseNumber(s)
	return ok
}
