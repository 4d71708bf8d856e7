package table

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
)

// Column is an immutable, named, typed sequence of values. Only the storage
// slice matching the column's Type is populated. A value is missing when its
// valid bit is false; valid == nil means every value is present.
type Column struct {
	name  string
	typ   Type
	gran  Granularity
	n     int
	valid []bool

	strs  []string
	ints  []int64
	nums  []float64
	times []time.Time
}

func (c *Column) Name() string { return c.name }
func (c *Column) Type() Type   { return c.typ }
func (c *Column) Len() int     { return c.n }

// Granularity is non-empty for Date columns holding period starts.
func (c *Column) Granularity() Granularity { return c.gran }

// IsPeriod reports whether c is a period column.
func (c *Column) IsPeriod() bool { return c.typ == Date && c.gran != "" }

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool { return c.valid != nil && !c.valid[i] }

// MissingCount returns the number of missing values.
func (c *Column) MissingCount() int {
	if c.valid == nil {
		return 0
	}
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

func (c *Column) wrongType(want string) error {
	return &errs.ShapeError{Column: c.name, Msg: fmt.Sprintf("is %s, not %s", c.typ, want)}
}

// Strings returns the backing values of a Text or Categorical column.
// Entries at missing positions are "". The slice must not be modified.
func (c *Column) Strings() ([]string, error) {
	if !c.typ.IsText() {
		return nil, c.wrongType("text")
	}
	return c.strs, nil
}

// Ints returns the backing values of an Integer column.
func (c *Column) Ints() ([]int64, error) {
	if c.typ != Integer {
		return nil, c.wrongType("integer")
	}
	return c.ints, nil
}

// Floats returns the backing values of a Decimal column.
func (c *Column) Floats() ([]float64, error) {
	if c.typ != Decimal {
		return nil, c.wrongType("decimal")
	}
	return c.nums, nil
}

// Times returns the backing values of a Date column.
func (c *Column) Times() ([]time.Time, error) {
	if c.typ != Date {
		return nil, c.wrongType("date")
	}
	return c.times, nil
}

// Numbers returns the values of an Integer or Decimal column as float64.
// Missing positions hold NaN.
func (c *Column) Numbers() ([]float64, error) {
	switch c.typ {
	case Decimal:
		out := make([]float64, c.n)
		for i, v := range c.nums {
			if c.IsMissing(i) {
				out[i] = math.NaN()
				continue
			}
			out[i] = v
		}
		return out, nil
	case Integer:
		out := make([]float64, c.n)
		for i, v := range c.ints {
			if c.IsMissing(i) {
				out[i] = math.NaN()
				continue
			}
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, c.wrongType("numeric")
	}
}

// Value returns row i as a Go value (string, int64, float64 or time.Time),
// or nil when missing.
func (c *Column) Value(i int) any {
	if c.IsMissing(i) {
		return nil
	}
	switch c.typ {
	case Text, Categorical:
		return c.strs[i]
	case Integer:
		return c.ints[i]
	case Decimal:
		return c.nums[i]
	case Date:
		return c.times[i]
	}
	return nil
}

// Format renders row i for display and text export. Missing values render as "".
func (c *Column) Format(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch c.typ {
	case Text, Categorical:
		return c.strs[i]
	case Integer:
		return strconv.FormatInt(c.ints[i], 10)
	case Decimal:
		return strconv.FormatFloat(c.nums[i], 'f', -1, 64)
	case Date:
		t := c.times[i]
		if c.gran != "" {
			return c.gran.Label(t)
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	}
	return ""
}

// Key returns a comparable grouping key for row i. Values of different
// types never share a key, and all missing values share one key.
func (c *Column) Key(i int) string {
	if c.IsMissing(i) {
		return "\x00"
	}
	switch c.typ {
	case Text, Categorical:
		return "s" + c.strs[i]
	case Integer:
		return "i" + strconv.FormatInt(c.ints[i], 10)
	case Decimal:
		return "f" + strconv.FormatFloat(c.nums[i], 'g', -1, 64)
	case Date:
		return "t" + strconv.FormatInt(c.times[i].UnixNano(), 10)
	}
	return ""
}

// Rename returns c under a new name. Storage is shared.
func (c *Column) Rename(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// WithGranularity tags a Date column as a period column.
func (c *Column) WithGranularity(g Granularity) (*Column, error) {
	if c.typ != Date {
		return nil, c.wrongType("date")
	}
	cp := *c
	cp.gran = g
	return &cp, nil
}

// AsCategorical retags a Text column as Categorical. Categorical columns are
// returned unchanged.
func (c *Column) AsCategorical() (*Column, error) {
	if !c.typ.IsText() {
		return nil, c.wrongType("text")
	}
	cp := *c
	cp.typ = Categorical
	return &cp, nil
}

// AsText retags a Categorical column as Text.
func (c *Column) AsText() (*Column, error) {
	if !c.typ.IsText() {
		return nil, c.wrongType("text")
	}
	cp := *c
	cp.typ = Text
	return &cp, nil
}

// Take builds a new column from the rows at idx, in order. An index of -1
// yields a missing value.
func (c *Column) Take(idx []int) *Column {
	b := NewBuilder(c.name, c.typ, len(idx))
	b.gran = c.gran
	for _, i := range idx {
		if i < 0 || c.IsMissing(i) {
			b.AppendNull()
			continue
		}
		b.appendFrom(c, i)
	}
	return b.Build()
}

// Distinct returns the distinct non-missing display values in first-seen order.
func (c *Column) Distinct() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < c.n; i++ {
		if c.IsMissing(i) {
			continue
		}
		k := c.Key(i)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c.Format(i))
	}
	return out
}
