package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// ZeroPeriods decides what happens to periods with no rows.
type ZeroPeriods string

const (
	// ZeroFill resamples the period column to a contiguous range; absent
	// periods get a value of 0 and take part in the change chain.
	ZeroFill ZeroPeriods = "zero"
	// OmitZero computes the change over observed periods only.
	OmitZero ZeroPeriods = "omit"
)

// ParseZeroPeriods validates a config spelling. Empty means ZeroFill.
func ParseZeroPeriods(s string) (ZeroPeriods, error) {
	switch z := ZeroPeriods(s); z {
	case "":
		return ZeroFill, nil
	case ZeroFill, OmitZero:
		return z, nil
	}
	return "", fmt.Errorf("unknown zero_periods policy %q", s)
}

// PctOptions configures PercentChange.
type PctOptions struct {
	// Output names the change column; defaults to "<value>_pct_change".
	Output      string
	ZeroPeriods ZeroPeriods
}

// PercentChange appends (v[i]-v[i-1])/v[i-1] for a period-ordered aggregate.
// The first row has no prior period and gets 0, as does any row whose change
// is undefined because a value is missing. A zero prior value yields 0 when
// the current value is also 0, and a signed infinity otherwise.
//
// Resampling applies when the period column is a period-tagged date column
// and the policy is ZeroFill: the table is reordered chronologically, gaps are
// filled with synthesized rows whose value is 0 and whose other columns are
// missing, and rows with a missing period are dropped. Otherwise rows are
// used in their given order.
func PercentChange(t *table.Table, period, value string, opt PctOptions) (*table.Table, error) {
	if err := t.Require(period, value); err != nil {
		return nil, err
	}
	if opt.Output == "" {
		opt.Output = value + "_pct_change"
	}
	if opt.ZeroPeriods == "" {
		opt.ZeroPeriods = ZeroFill
	}
	p, _ := t.Column(period)
	if v, _ := t.Column(value); !v.Type().IsNumeric() {
		return nil, &errs.ShapeError{Column: value, Msg: "percent change needs a numeric column"}
	}
	if opt.ZeroPeriods == ZeroFill && p.IsPeriod() {
		var err error
		if t, err = resample(t, p, value); err != nil {
			return nil, err
		}
	}

	v, _ := t.Column(value)
	nums, _ := v.Numbers()
	out := make([]float64, len(nums))
	for i := 1; i < len(nums); i++ {
		out[i] = change(nums[i-1], nums[i])
	}
	return t.With(table.NewDecimals(opt.Output, out...))
}

func change(prev, cur float64) float64 {
	switch {
	case math.IsNaN(prev) || math.IsNaN(cur):
		return 0
	case prev == 0 && cur == 0:
		return 0
	case prev == 0:
		return math.Inf(sign(cur))
	}
	return (cur - prev) / prev
}

func sign(f float64) int {
	if f < 0 {
		return -1
	}
	return 1
}

// resample returns t reindexed over every period from the first to the last
// observed one. Synthesized rows carry 0 in the value column.
func resample(t *table.Table, p *table.Column, value string) (*table.Table, error) {
	times, _ := p.Times()
	g := p.Granularity()
	at := make(map[int64]int, len(times))
	var lo, hi time.Time
	seen := false
	for i, ts := range times {
		if p.IsMissing(i) {
			continue
		}
		st := g.Start(ts)
		if _, dup := at[st.UnixNano()]; dup {
			return nil, &errs.ShapeError{Column: p.Name(), Msg: fmt.Sprintf("period %s appears more than once", g.Label(st))}
		}
		at[st.UnixNano()] = i
		if !seen || st.Before(lo) {
			lo = st
		}
		if !seen || st.After(hi) {
			hi = st
		}
		seen = true
	}
	if !seen {
		return t, nil
	}

	var idx []int
	pb := table.NewBuilder(p.Name(), table.Date, len(at)).Granularity(g)
	for cur := lo; !cur.After(hi); cur = g.Next(cur) {
		pb.AppendTime(cur)
		if i, ok := at[cur.UnixNano()]; ok {
			idx = append(idx, i)
		} else {
			idx = append(idx, -1)
		}
	}
	out, err := t.Take(idx).With(pb.Build())
	if err != nil {
		return nil, err
	}

	v, _ := out.Column(value)
	vb := table.NewBuilder(value, v.Type(), len(idx))
	for i, src := range idx {
		switch {
		case src >= 0:
			if err := vb.Append(v.Value(i)); err != nil {
				return nil, err
			}
		case v.Type() == table.Integer:
			vb.AppendInt(0)
		default:
			vb.AppendFloat(0)
		}
	}
	return out.With(vb.Build())
}
