package builtin

import (
	"fmt"
	"math"
	"sort"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Period derives Output from the date Column: each date is truncated to the
// start of its enclosing period and the column is tagged with Granularity, so
// it prints as "2025-03" and groups by month.
type Period struct {
	Column      string
	Output      string
	Granularity table.Granularity
}

func newPeriod(o config.Options, _ Env) (transformer.Transformer, error) {
	col, err := requireString(o, "column")
	if err != nil {
		return nil, err
	}
	out, err := requireString(o, "output")
	if err != nil {
		return nil, err
	}
	g, err := table.ParseGranularity(o.String("granularity", ""))
	if err != nil {
		return nil, err
	}
	return Period{Column: col, Output: out, Granularity: g}, nil
}

func (p Period) Apply(in *table.Table) (*table.Table, error) {
	c, err := in.Column(p.Column)
	if err != nil {
		return nil, err
	}
	times, err := c.Times()
	if err != nil {
		return nil, &errs.ShapeError{Column: p.Column, Msg: "period needs a date column; coerce it first"}
	}
	b := table.NewBuilder(p.Output, table.Date, len(times)).Granularity(p.Granularity)
	for i, t := range times {
		if c.IsMissing(i) {
			b.AppendNull()
			continue
		}
		b.AppendTime(p.Granularity.Start(t))
	}
	return in.With(b.Build())
}

// Product derives Output as the row-wise product of numeric Columns, such as
// revenue = price * quantity. A missing factor makes the product missing. A
// product overflowing to infinity is missing too and is reported as a
// NumericConversionError on Output.
type Product struct {
	Columns []string
	Output  string
}

func newProduct(o config.Options, _ Env) (transformer.Transformer, error) {
	cols, err := requireStrings(o, "columns")
	if err != nil {
		return nil, err
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("product needs at least two columns, got %d", len(cols))
	}
	out, err := requireString(o, "output")
	if err != nil {
		return nil, err
	}
	return Product{Columns: cols, Output: out}, nil
}

func (p Product) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(p.Columns...); err != nil {
		return nil, err
	}
	res := make([]float64, in.NumRows())
	for i := range res {
		res[i] = 1
	}
	missing := make([]bool, len(res))
	overflow := make([]bool, len(res))
	for _, name := range p.Columns {
		c, _ := in.Column(name)
		nums, err := c.Numbers()
		if err != nil {
			return nil, &errs.ShapeError{Column: name, Msg: "product needs numeric columns; coerce it first"}
		}
		for i, v := range nums {
			if c.IsMissing(i) || math.IsNaN(v) {
				missing[i] = true
			}
			res[i] *= v
			if math.IsInf(res[i], 0) {
				overflow[i] = true
			}
		}
	}
	var bad failures
	for i := range res {
		if !overflow[i] {
			continue
		}
		if !missing[i] {
			bad.add(i, "overflow")
		}
		res[i] = math.NaN()
	}
	out, err := in.With(table.NewDecimals(p.Output, res...))
	if err != nil {
		return nil, err
	}
	return out, bad.numeric(p.Output)
}

// FillMissing replaces missing values per column with a literal parsed for the
// column's type.
type FillMissing struct {
	Values map[string]string
}

func newFillMissing(o config.Options, _ Env) (transformer.Transformer, error) {
	vals := make(map[string]string)
	if m, ok := o.Any("values").(map[string]any); ok {
		for k, v := range m {
			vals[k] = literal(v)
		}
	}
	if cols := o.StringSlice("columns"); len(cols) > 0 {
		if !o.Has("value") {
			return nil, fmt.Errorf("option %q is required with %q", "value", "columns")
		}
		for _, c := range cols {
			vals[c] = literal(o.Any("value"))
		}
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("fill_missing needs %q or %q with %q", "values", "columns", "value")
	}
	return FillMissing{Values: vals}, nil
}

func (f FillMissing) Apply(in *table.Table) (*table.Table, error) {
	names := make([]string, 0, len(f.Values))
	for name := range f.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := in.Require(names...); err != nil {
		return nil, err
	}
	out := in
	for _, name := range in.Names() {
		lit, ok := f.Values[name]
		if !ok {
			continue
		}
		c, _ := out.Column(name)
		if c.MissingCount() == 0 {
			continue
		}
		v, err := fillValue(c, lit)
		if err != nil {
			return nil, err
		}
		b := table.NewBuilder(name, c.Type(), c.Len()).Granularity(c.Granularity())
		for i := 0; i < c.Len(); i++ {
			if err := b.Append(orValue(c.Value(i), v)); err != nil {
				return nil, err
			}
		}
		if out, err = out.With(b.Build()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func orValue(v, def any) any {
	if v == nil {
		return def
	}
	return v
}

func fillValue(c *table.Column, lit string) (any, error) {
	bad := &errs.ShapeError{Column: c.Name(), Msg: fmt.Sprintf("fill value %q does not fit a %s column", lit, c.Type())}
	switch c.Type() {
	case table.Text, table.Categorical:
		return lit, nil
	case table.Integer:
		n, ok := ParseInteger(lit)
		if !ok {
			return nil, bad
		}
		return n, nil
	case table.Decimal:
		f, ok := ParseNumber(lit)
		if !ok {
			return nil, bad
		}
		return f, nil
	case table.Date:
		t, ok := ParseDate(lit, "")
		if !ok {
			return nil, bad
		}
		if c.IsPeriod() {
			t = c.Granularity().Start(t)
		}
		return t, nil
	}
	return nil, bad
}
