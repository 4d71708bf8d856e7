package builtin

import (
	"errors"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Require fails with a MissingColumnError naming every absent column.
type Require struct {
	Columns []string
}

func newRequire(o config.Options, _ Env) (transformer.Transformer, error) {
	cols, err := requireStrings(o, "columns")
	if err != nil {
		return nil, err
	}
	return Require{Columns: cols}, nil
}

func (r Require) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(r.Columns...); err != nil {
		return nil, err
	}
	return in, nil
}

// NonNegative checks that numeric Columns hold only positive values (or
// non-negative ones with AllowZero). Violations are returned as one
// DataValidationError per column together with the unchanged table. Missing
// values are not violations.
type NonNegative struct {
	Columns   []string
	AllowZero bool
}

func newNonNegative(o config.Options, _ Env) (transformer.Transformer, error) {
	cols, err := requireStrings(o, "columns")
	if err != nil {
		return nil, err
	}
	return NonNegative{Columns: cols, AllowZero: o.Bool("allow_zero", false)}, nil
}

func (v NonNegative) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(v.Columns...); err != nil {
		return nil, err
	}
	var found []error
	for _, name := range v.Columns {
		c, _ := in.Column(name)
		nums, err := c.Numbers()
		if err != nil {
			return nil, &errs.ShapeError{Column: name, Msg: "non_negative needs a numeric column; coerce it first"}
		}
		dv := &errs.DataValidationError{Column: name, Rule: "non_negative"}
		for i, x := range nums {
			if c.IsMissing(i) {
				continue
			}
			if x < 0 || (x == 0 && !v.AllowZero) {
				dv.Count++
				dv.Sample = errs.Sample(dv.Sample, c.Format(i))
			}
		}
		if dv.Count > 0 {
			found = append(found, dv)
		}
	}
	return in, errors.Join(found...)
}

// CountMissing reports the number of missing values per column as info
// findings. It never changes the table or fails.
type CountMissing struct {
	// Columns limits the report; empty means every column.
	Columns []string
}

func newCountMissing(o config.Options, _ Env) (transformer.Transformer, error) {
	return CountMissing{Columns: o.StringSlice("columns")}, nil
}

func (c CountMissing) Apply(in *table.Table) (*table.Table, error) { return in, nil }

// Counts returns the missing count of each selected column, in table order.
// Unknown column names are ignored.
func (c CountMissing) Counts(in *table.Table) []table.Field {
	want := make(map[string]bool, len(c.Columns))
	for _, n := range c.Columns {
		want[n] = true
	}
	var out []table.Field
	for _, f := range in.Schema() {
		if len(want) > 0 && !want[f.Name] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (c CountMissing) Inspect(in *table.Table) []errs.ValidationError {
	var out []errs.ValidationError
	for _, f := range c.Counts(in) {
		out = append(out, errs.ValidationError{
			Column:   f.Name,
			Rule:     "missing",
			Count:    f.Missing,
			Severity: errs.SeverityInfo,
		})
	}
	return out
}
