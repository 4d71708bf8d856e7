package builtin

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Coerce converts columns to their declared semantic types. Values equal to
// Sentinel become missing under every target type and are never counted as
// failures. Other unparseable values also become missing; they are reported
// through one NumericConversionError or DateConversionError per column,
// returned alongside the converted table.
type Coerce struct {
	Columns  map[string]table.Type
	Layouts  map[string]string
	Sentinel string
}

func newCoerce(o config.Options, env Env) (transformer.Transformer, error) {
	raw := o.StringMap("columns")
	if len(raw) == 0 {
		return nil, fmt.Errorf("option %q must map at least one column to a type", "columns")
	}
	c := Coerce{
		Columns:  make(map[string]table.Type, len(raw)),
		Layouts:  o.StringMap("layouts"),
		Sentinel: o.String("sentinel", env.sentinel()),
	}
	for name, typ := range raw {
		t, err := table.ParseType(typ)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		c.Columns[name] = t
	}
	if lay := o.String("layout", ""); lay != "" {
		for name, t := range c.Columns {
			if _, ok := c.Layouts[name]; !ok && t == table.Date {
				c.Layouts[name] = lay
			}
		}
	}
	return c, nil
}

func (c Coerce) Apply(in *table.Table) (*table.Table, error) {
	names := make([]string, 0, len(c.Columns))
	for n := range c.Columns {
		names = append(names, n)
	}
	sort.Strings(names)
	if err := in.Require(names...); err != nil {
		return nil, err
	}

	out := in
	var soft []error
	for _, name := range in.Names() {
		typ, ok := c.Columns[name]
		if !ok {
			continue
		}
		col, _ := out.Column(name)
		conv, err := Convert(col, typ, c.Layouts[name], c.Sentinel)
		if conv == nil {
			return nil, err
		}
		if err != nil {
			soft = append(soft, err)
		}
		if out, err = out.With(conv); err != nil {
			return nil, err
		}
	}
	return out, errors.Join(soft...)
}

// Convert coerces one column. A nil column comes back only with a structural
// error; otherwise err, when set, is a coercion error describing the values
// that became missing.
func Convert(c *table.Column, to table.Type, layout, sentinel string) (*table.Column, error) {
	switch to {
	case table.Decimal:
		return ToDecimal(c, sentinel)
	case table.Integer:
		return ToInteger(c, sentinel)
	case table.Date:
		return ToDate(c, layout, sentinel)
	case table.Categorical:
		return ToCategorical(c, sentinel)
	case table.Text:
		return ToText(c, sentinel)
	}
	return nil, &errs.ShapeError{Column: c.Name(), Msg: fmt.Sprintf("unknown target type %s", to)}
}

// failures accumulates the values of one column that did not convert.
type failures struct {
	row    int
	first  string
	count  int
	sample []string
}

func (f *failures) add(i int, v string) {
	if f.count == 0 {
		f.row, f.first = i, v
	}
	f.count++
	f.sample = errs.Sample(f.sample, v)
}

func (f *failures) numeric(col string) error {
	if f.count == 0 {
		return nil
	}
	return &errs.NumericConversionError{Column: col, Row: f.row, Value: f.first, Count: f.count, Sample: f.sample}
}

func (f *failures) date(col string) error {
	if f.count == 0 {
		return nil
	}
	return &errs.DateConversionError{Column: col, Row: f.row, Value: f.first, Count: f.count, Sample: f.sample}
}

// isSentinel reports whether v is empty or the not-applicable placeholder.
func isSentinel(v, sentinel string) bool {
	v = strings.TrimSpace(v)
	return v == "" || (sentinel != "" && v == sentinel)
}

// ToDecimal parses a text column as currency-formatted decimals. Integer
// columns widen; Decimal columns are returned as is.
func ToDecimal(c *table.Column, sentinel string) (*table.Column, error) {
	switch c.Type() {
	case table.Decimal:
		return c, nil
	case table.Integer:
		nums, _ := c.Numbers()
		return table.NewDecimals(c.Name(), nums...), nil
	case table.Date:
		return nil, &errs.ShapeError{Column: c.Name(), Msg: "cannot convert date to decimal"}
	}
	vals, _ := c.Strings()
	b := table.NewBuilder(c.Name(), table.Decimal, len(vals))
	var bad failures
	for i, v := range vals {
		if c.IsMissing(i) || isSentinel(v, sentinel) {
			b.AppendNull()
			continue
		}
		f, ok := ParseNumber(v)
		if !ok {
			bad.add(i, v)
			b.AppendNull()
			continue
		}
		b.AppendFloat(f)
	}
	return b.Build(), bad.numeric(c.Name())
}

// ToInteger parses whole numbers. Decimals with a fractional part are
// conversion failures.
func ToInteger(c *table.Column, sentinel string) (*table.Column, error) {
	if c.Type() == table.Integer {
		return c, nil
	}
	if c.Type() == table.Date {
		return nil, &errs.ShapeError{Column: c.Name(), Msg: "cannot convert date to integer"}
	}
	b := table.NewBuilder(c.Name(), table.Integer, c.Len())
	var bad failures
	if c.Type() == table.Decimal {
		nums, _ := c.Floats()
		for i, f := range nums {
			switch {
			case c.IsMissing(i):
				b.AppendNull()
			case f != float64(int64(f)):
				bad.add(i, c.Format(i))
				b.AppendNull()
			default:
				b.AppendInt(int64(f))
			}
		}
		return b.Build(), bad.numeric(c.Name())
	}
	vals, _ := c.Strings()
	for i, v := range vals {
		if c.IsMissing(i) || isSentinel(v, sentinel) {
			b.AppendNull()
			continue
		}
		n, ok := ParseInteger(v)
		if !ok {
			bad.add(i, v)
			b.AppendNull()
			continue
		}
		b.AppendInt(n)
	}
	return b.Build(), bad.numeric(c.Name())
}

// ToDate parses dates with one layout per column: the explicit one, or the
// layout matching most of the column's values. Values that fit neither it nor
// an Excel serial day number become missing and are reported. Numeric columns
// are read as serial day numbers.
func ToDate(c *table.Column, layout, sentinel string) (*table.Column, error) {
	b := table.NewBuilder(c.Name(), table.Date, c.Len())
	var bad failures
	switch c.Type() {
	case table.Date:
		return c, nil
	case table.Integer, table.Decimal:
		nums, _ := c.Numbers()
		for i, f := range nums {
			if c.IsMissing(i) {
				b.AppendNull()
				continue
			}
			t, ok := serialDate(f)
			if !ok {
				bad.add(i, c.Format(i))
				b.AppendNull()
				continue
			}
			b.AppendTime(t)
		}
		return b.Build(), bad.date(c.Name())
	}
	vals, _ := c.Strings()
	if layout == "" {
		samples := make([]string, 0, len(vals))
		for i, v := range vals {
			if !c.IsMissing(i) && !isSentinel(v, sentinel) {
				samples = append(samples, v)
			}
		}
		layout = BestLayout(samples)
	}
	for i, v := range vals {
		if c.IsMissing(i) || isSentinel(v, sentinel) {
			b.AppendNull()
			continue
		}
		t, ok := ParseDate(v, layout)
		if !ok {
			bad.add(i, v)
			b.AppendNull()
			continue
		}
		b.AppendTime(t)
	}
	return b.Build(), bad.date(c.Name())
}

// ToText renders any column as text. Sentinel values become missing.
func ToText(c *table.Column, sentinel string) (*table.Column, error) {
	b := table.NewBuilder(c.Name(), table.Text, c.Len())
	for i := 0; i < c.Len(); i++ {
		v := c.Format(i)
		if c.IsMissing(i) || (c.Type().IsText() && sentinel != "" && strings.TrimSpace(v) == sentinel) {
			b.AppendNull()
			continue
		}
		b.AppendString(v)
	}
	return b.Build(), nil
}

// ToCategorical re-tags a column as categorical without altering values.
func ToCategorical(c *table.Column, sentinel string) (*table.Column, error) {
	t, err := ToText(c, sentinel)
	if err != nil {
		return nil, err
	}
	return t.AsCategorical()
}
