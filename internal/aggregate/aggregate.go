// Package aggregate reduces cleaned tables into summary tables: group-by
// reductions, period-over-period percent change and key merges.
//
// Every function returns a new table and leaves its inputs untouched.
package aggregate

import (
	"fmt"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Op is a reduction applied to each group.
type Op string

const (
	Sum    Op = "sum"
	Count  Op = "count"
	Mean   Op = "mean"
	Min    Op = "min"
	Max    Op = "max"
	Median Op = "median"
)

// ParseOp validates a config spelling. Empty means Sum.
func ParseOp(s string) (Op, error) {
	switch op := Op(s); op {
	case "":
		return Sum, nil
	case Sum, Count, Mean, Min, Max, Median:
		return op, nil
	}
	return "", fmt.Errorf("unknown aggregation %q", s)
}

// Reduction reduces Column with Op into a column named As (Column when empty).
type Reduction struct {
	Column string
	Op     Op
	As     string
}

func (r Reduction) output() string {
	if r.As != "" {
		return r.As
	}
	return r.Column
}

// Spec is a complete group-by request: one reduction, renamed, followed by an
// optional sort. Sorting is a separate step applied after the reduction.
type Spec struct {
	Value      string
	GroupBy    string
	Op         Op
	As         string
	SortBy     string
	Descending bool
}

// Run executes s against t.
func Run(t *table.Table, s Spec) (*table.Table, error) {
	out, err := GroupBy(t, s.GroupBy, Reduction{Column: s.Value, Op: s.Op, As: s.As})
	if err != nil {
		return nil, err
	}
	if s.SortBy == "" {
		return out, nil
	}
	return out.SortBy(table.SortKey{Column: s.SortBy, Descending: s.Descending})
}

// GroupSum sums value per distinct group value. The output has one row per
// group, in order of first appearance, and the sum of the output equals the
// sum of the input.
func GroupSum(t *table.Table, value, group string) (*table.Table, error) {
	return GroupBy(t, group, Reduction{Column: value, Op: Sum})
}

// GroupBy partitions t by the group column and applies each reduction. Groups
// appear in order of first appearance. Rows with a missing group value form a
// single group whose key is missing.
func GroupBy(t *table.Table, group string, rs ...Reduction) (*table.Table, error) {
	g, err := t.Column(group)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, &errs.ShapeError{Column: group, Msg: "group by needs at least one reduction"}
	}

	var first []int
	members := make(map[string][]int)
	for i := 0; i < g.Len(); i++ {
		k := g.Key(i)
		if _, ok := members[k]; !ok {
			first = append(first, i)
		}
		members[k] = append(members[k], i)
	}

	cols := []*table.Column{g.Take(first)}
	for _, r := range rs {
		c, err := t.Column(r.Column)
		if err != nil {
			return nil, err
		}
		if r.Op == "" {
			r.Op = Sum
		}
		out, err := reduce(c, r, first, func(i int) []int { return members[g.Key(i)] })
		if err != nil {
			return nil, err
		}
		cols = append(cols, out)
	}
	return table.New(cols...)
}

func reduce(c *table.Column, r Reduction, first []int, rows func(int) []int) (*table.Column, error) {
	name := r.output()
	if r.Op == Count {
		b := table.NewBuilder(name, table.Integer, len(first))
		for _, f := range first {
			n := 0
			for _, i := range rows(f) {
				if !c.IsMissing(i) {
					n++
				}
			}
			b.AppendInt(int64(n))
		}
		return b.Build(), nil
	}

	nums, err := c.Numbers()
	if err != nil {
		return nil, &errs.ShapeError{Column: c.Name(), Msg: fmt.Sprintf("%s needs a numeric column, got %s", r.Op, c.Type())}
	}
	if r.Op == Sum && c.Type() == table.Integer {
		ints, _ := c.Ints()
		b := table.NewBuilder(name, table.Integer, len(first))
		for _, f := range first {
			var total int64
			for _, i := range rows(f) {
				if !c.IsMissing(i) {
					total += ints[i]
				}
			}
			b.AppendInt(total)
		}
		return b.Build(), nil
	}

	b := table.NewBuilder(name, table.Decimal, len(first))
	vals := make([]float64, 0)
	for _, f := range first {
		vals = vals[:0]
		for _, i := range rows(f) {
			if !c.IsMissing(i) {
				vals = append(vals, nums[i])
			}
		}
		b.AppendFloat(apply(r.Op, vals))
	}
	return b.Build(), nil
}

// apply reduces present values. Sum of nothing is 0; the other reductions of
// nothing are NaN, which the builder stores as missing.
func apply(op Op, vals []float64) float64 {
	switch op {
	case Sum:
		return Stats(vals).Sum
	case Mean:
		return Stats(vals).Mean
	case Min:
		return Stats(vals).Min
	case Max:
		return Stats(vals).Max
	case Median:
		return Stats(vals).Median
	}
	return 0
}
