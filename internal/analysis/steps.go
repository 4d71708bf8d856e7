package analysis

import (
	"fmt"
	"math"

	"github.com/Haashiraaa/data-analysis-projects/internal/aggregate"
	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer/builtin"
)

// newAggregate groups by group_by and reduces either one value column
// (value, op, output) or a list of reductions ([{column, op, as}]). sort_by
// and descending order the result afterwards.
//
//	{ kind: aggregate, options: { group_by: month, value: amount, output: total } }
func newAggregate(s config.Step, _ builtin.Env) (Op, error) {
	o := s.Options
	group := o.String("group_by", "")
	if group == "" {
		return nil, fmt.Errorf("aggregate requires group_by")
	}

	var rs []aggregate.Reduction
	if o.Has("reductions") {
		var raw []struct {
			Column string `json:"column"`
			Op     string `json:"op"`
			As     string `json:"as"`
		}
		if err := o.Decode("reductions", &raw); err != nil {
			return nil, err
		}
		for _, r := range raw {
			op, err := aggregate.ParseOp(r.Op)
			if err != nil {
				return nil, err
			}
			rs = append(rs, aggregate.Reduction{Column: r.Column, Op: op, As: r.As})
		}
	} else {
		value := o.String("value", "")
		if value == "" {
			return nil, fmt.Errorf("aggregate requires value or reductions")
		}
		op, err := aggregate.ParseOp(o.String("op", ""))
		if err != nil {
			return nil, err
		}
		rs = []aggregate.Reduction{{Column: value, Op: op, As: o.String("output", "")}}
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("aggregate needs at least one reduction")
	}

	sortBy := o.String("sort_by", "")
	desc := o.Bool("descending", false)
	return input(s, func(in *table.Table) (*table.Table, error) {
		out, err := aggregate.GroupBy(in, group, rs...)
		if err != nil || sortBy == "" {
			return out, err
		}
		return out.SortBy(table.SortKey{Column: sortBy, Descending: desc})
	}), nil
}

// newPctChange appends the period-over-period change of value.
//
//	{ kind: pct_change, input: monthly, options: { period: month, value: total, zero_periods: zero } }
func newPctChange(s config.Step, _ builtin.Env) (Op, error) {
	o := s.Options
	period, value := o.String("period", ""), o.String("value", "")
	if period == "" || value == "" {
		return nil, fmt.Errorf("pct_change requires period and value")
	}
	zp, err := aggregate.ParseZeroPeriods(o.String("zero_periods", ""))
	if err != nil {
		return nil, err
	}
	opt := aggregate.PctOptions{Output: o.String("output", ""), ZeroPeriods: zp}
	return input(s, func(in *table.Table) (*table.Table, error) {
		return aggregate.PercentChange(in, period, value, opt)
	}), nil
}

// newMerge joins the step named by right onto the input by key.
//
//	{ kind: merge, input: monthly, options: { right: change, key: month, how: left, suffixes: [_x, _y] } }
func newMerge(s config.Step, _ builtin.Env) (Op, error) {
	o := s.Options
	right, key := o.String("right", ""), o.String("key", "")
	if right == "" || key == "" {
		return nil, fmt.Errorf("merge requires right and key")
	}
	opt := aggregate.MergeOptions{How: aggregate.JoinType(o.String("how", ""))}
	if sfx := o.StringSlice("suffixes"); len(sfx) > 0 {
		if len(sfx) != 2 {
			return nil, fmt.Errorf("merge suffixes must have two entries, got %d", len(sfx))
		}
		opt.Suffixes = [2]string{sfx[0], sfx[1]}
	}
	leftName := s.Input
	if leftName == "" {
		leftName = Clean
	}
	return func(ts Tables) (*table.Table, error) {
		left, err := ts.Get(leftName)
		if err != nil {
			return nil, err
		}
		r, err := ts.Get(right)
		if err != nil {
			return nil, err
		}
		return aggregate.Merge(left, r, key, opt)
	}, nil
}

// Scale multiplies a numeric column by Factor, writing a decimal column to
// Output (Column when empty). Missing stays missing.
type Scale struct {
	Column string
	Factor float64
	Output string
}

func newScale(s config.Step, _ builtin.Env) (Op, error) {
	o := s.Options
	sc := Scale{
		Column: o.String("column", ""),
		Factor: o.Float("factor", math.NaN()),
		Output: o.String("output", ""),
	}
	if sc.Column == "" {
		return nil, fmt.Errorf("scale requires column")
	}
	if math.IsNaN(sc.Factor) {
		return nil, fmt.Errorf("scale requires a numeric factor")
	}
	return input(s, sc.Apply), nil
}

func (sc Scale) Apply(in *table.Table) (*table.Table, error) {
	c, err := in.Column(sc.Column)
	if err != nil {
		return nil, err
	}
	if !c.Type().IsNumeric() {
		return nil, &errs.ShapeError{Column: sc.Column, Msg: fmt.Sprintf("cannot scale a %s column", c.Type())}
	}
	nums, _ := c.Numbers()
	out := sc.Output
	if out == "" {
		out = sc.Column
	}
	b := table.NewBuilder(out, table.Decimal, len(nums))
	for _, v := range nums {
		if math.IsNaN(v) {
			b.AppendNull()
			continue
		}
		b.AppendFloat(v * sc.Factor)
	}
	return in.With(b.Build())
}
