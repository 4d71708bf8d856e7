package table

import (
	"fmt"
	"math"
	"time"
)

// Builder accumulates values for one Column. Typed Append methods panic when
// called on a builder of another type; use Append for untrusted input.
type Builder struct {
	name    string
	typ     Type
	gran    Granularity
	n       int
	valid   []bool
	missing bool

	strs  []string
	ints  []int64
	nums  []float64
	times []time.Time
}

// NewBuilder returns a builder for a column of the given type. capacity is a
// size hint.
func NewBuilder(name string, typ Type, capacity int) *Builder {
	b := &Builder{name: name, typ: typ, valid: make([]bool, 0, capacity)}
	switch typ {
	case Text, Categorical:
		b.strs = make([]string, 0, capacity)
	case Integer:
		b.ints = make([]int64, 0, capacity)
	case Decimal:
		b.nums = make([]float64, 0, capacity)
	case Date:
		b.times = make([]time.Time, 0, capacity)
	default:
		panic(fmt.Sprintf("table: invalid column type %d", int(typ)))
	}
	return b
}

// Granularity tags the column being built as a period column.
func (b *Builder) Granularity(g Granularity) *Builder {
	b.gran = g
	return b
}

func (b *Builder) Len() int { return b.n }

func (b *Builder) must(ok bool, what string) {
	if !ok {
		panic(fmt.Sprintf("table: append %s to %s column %q", what, b.typ, b.name))
	}
}

func (b *Builder) AppendString(s string) {
	b.must(b.typ.IsText(), "string")
	b.strs = append(b.strs, s)
	b.push(true)
}

func (b *Builder) AppendInt(v int64) {
	b.must(b.typ == Integer, "int")
	b.ints = append(b.ints, v)
	b.push(true)
}

// AppendFloat appends v; NaN is stored as missing.
func (b *Builder) AppendFloat(v float64) {
	b.must(b.typ == Decimal, "float")
	if math.IsNaN(v) {
		b.AppendNull()
		return
	}
	b.nums = append(b.nums, v)
	b.push(true)
}

func (b *Builder) AppendTime(v time.Time) {
	b.must(b.typ == Date, "time")
	b.times = append(b.times, v)
	b.push(true)
}

// AppendNull appends a missing value.
func (b *Builder) AppendNull() {
	switch b.typ {
	case Text, Categorical:
		b.strs = append(b.strs, "")
	case Integer:
		b.ints = append(b.ints, 0)
	case Decimal:
		b.nums = append(b.nums, 0)
	case Date:
		b.times = append(b.times, time.Time{})
	}
	b.push(false)
}

// Append appends a Go value, converting between numeric kinds where lossless.
// nil appends a missing value.
func (b *Builder) Append(v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch b.typ {
	case Text, Categorical:
		if s, ok := v.(string); ok {
			b.AppendString(s)
			return nil
		}
	case Integer:
		switch x := v.(type) {
		case int64:
			b.AppendInt(x)
			return nil
		case int:
			b.AppendInt(int64(x))
			return nil
		case int32:
			b.AppendInt(int64(x))
			return nil
		case float64:
			if x == math.Trunc(x) && !math.IsInf(x, 0) {
				b.AppendInt(int64(x))
				return nil
			}
		}
	case Decimal:
		switch x := v.(type) {
		case float64:
			b.AppendFloat(x)
			return nil
		case float32:
			b.AppendFloat(float64(x))
			return nil
		case int64:
			b.AppendFloat(float64(x))
			return nil
		case int:
			b.AppendFloat(float64(x))
			return nil
		}
	case Date:
		if t, ok := v.(time.Time); ok {
			b.AppendTime(t)
			return nil
		}
	}
	return fmt.Errorf("column %q: cannot append %T to %s column", b.name, v, b.typ)
}

func (b *Builder) appendFrom(c *Column, i int) {
	switch b.typ {
	case Text, Categorical:
		b.AppendString(c.strs[i])
	case Integer:
		b.AppendInt(c.ints[i])
	case Decimal:
		b.AppendFloat(c.nums[i])
	case Date:
		b.AppendTime(c.times[i])
	}
}

func (b *Builder) push(ok bool) {
	b.valid = append(b.valid, ok)
	if !ok {
		b.missing = true
	}
	b.n++
}

// Build returns the finished column. The builder must not be reused.
func (b *Builder) Build() *Column {
	c := &Column{
		name:  b.name,
		typ:   b.typ,
		gran:  b.gran,
		n:     b.n,
		strs:  b.strs,
		ints:  b.ints,
		nums:  b.nums,
		times: b.times,
	}
	if b.missing {
		c.valid = b.valid
	}
	if b.typ != Date {
		c.gran = ""
	}
	return c
}

// FromValues builds a column from Go values; nil marks a missing value.
func FromValues(name string, typ Type, vals []any) (*Column, error) {
	b := NewBuilder(name, typ, len(vals))
	for _, v := range vals {
		if err := b.Append(v); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// NewText builds a Text column with no missing values.
func NewText(name string, vals ...string) *Column {
	b := NewBuilder(name, Text, len(vals))
	for _, v := range vals {
		b.AppendString(v)
	}
	return b.Build()
}

// NewCategorical builds a Categorical column with no missing values.
func NewCategorical(name string, vals ...string) *Column {
	b := NewBuilder(name, Categorical, len(vals))
	for _, v := range vals {
		b.AppendString(v)
	}
	return b.Build()
}

// NewInts builds an Integer column with no missing values.
func NewInts(name string, vals ...int64) *Column {
	b := NewBuilder(name, Integer, len(vals))
	for _, v := range vals {
		b.AppendInt(v)
	}
	return b.Build()
}

// NewDecimals builds a Decimal column; NaN entries become missing.
func NewDecimals(name string, vals ...float64) *Column {
	b := NewBuilder(name, Decimal, len(vals))
	for _, v := range vals {
		b.AppendFloat(v)
	}
	return b.Build()
}

// NewDates builds a Date column with no missing values.
func NewDates(name string, vals ...time.Time) *Column {
	b := NewBuilder(name, Date, len(vals))
	for _, v := range vals {
		b.AppendTime(v)
	}
	return b.Build()
}
