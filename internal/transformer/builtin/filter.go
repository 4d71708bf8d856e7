package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Filter keeps the rows where Column compares to Value under Op (or drops
// them when Keep is false). Row order is preserved.
//
// A missing value never compares equal, greater or less than anything, so it
// only satisfies "ne".
type Filter struct {
	Column string
	Op     string
	Value  string
	Keep   bool
}

var filterOps = map[string]bool{"eq": true, "ne": true, "gt": true, "ge": true, "lt": true, "le": true}

func newFilter(o config.Options, _ Env) (transformer.Transformer, error) {
	col, err := requireString(o, "column")
	if err != nil {
		return nil, err
	}
	op := strings.ToLower(o.String("op", "eq"))
	if !filterOps[op] {
		return nil, fmt.Errorf("unknown filter op %q", op)
	}
	return Filter{Column: col, Op: op, Value: literal(o.Any("value")), Keep: o.Bool("keep", true)}, nil
}

// literal renders a scalar option value the way a user would type it.
func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func (f Filter) Apply(in *table.Table) (*table.Table, error) {
	c, err := in.Column(f.Column)
	if err != nil {
		return nil, err
	}
	cmp, err := f.comparator(c)
	if err != nil {
		return nil, err
	}
	keep := make([]bool, c.Len())
	for i := range keep {
		var hit bool
		if c.IsMissing(i) {
			hit = f.Op == "ne"
		} else {
			hit = f.holds(cmp(i))
		}
		keep[i] = hit == f.Keep
	}
	return in.Filter(keep)
}

func (f Filter) holds(r int) bool {
	switch f.Op {
	case "eq":
		return r == 0
	case "ne":
		return r != 0
	case "gt":
		return r > 0
	case "ge":
		return r >= 0
	case "lt":
		return r < 0
	case "le":
		return r <= 0
	}
	return false
}

// comparator returns a function comparing row i against the literal.
func (f Filter) comparator(c *table.Column) (func(i int) int, error) {
	bad := func(what string) error {
		return &errs.ShapeError{Column: c.Name(), Msg: fmt.Sprintf("filter value %q is not %s", f.Value, what)}
	}
	switch {
	case c.Type().IsText():
		vals, _ := c.Strings()
		return func(i int) int { return strings.Compare(vals[i], f.Value) }, nil
	case c.Type().IsNumeric():
		want, ok := ParseNumber(f.Value)
		if !ok {
			return nil, bad("a number")
		}
		vals, _ := c.Numbers()
		return func(i int) int { return compareFloat(vals[i], want) }, nil
	case c.Type() == table.Date:
		want, ok := ParseDate(f.Value, "")
		if !ok {
			return nil, bad("a date")
		}
		if c.IsPeriod() {
			want = c.Granularity().Start(want)
		}
		vals, _ := c.Times()
		return func(i int) int { return vals[i].Compare(want) }, nil
	}
	return nil, bad("comparable")
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
