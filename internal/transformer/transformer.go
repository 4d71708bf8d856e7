// Package transformer defines the stage contract of the cleaning pipeline.
//
// A stage is a pure function from table to table. It reports recoverable
// problems (coercion failures, validation violations) by returning a usable
// table together with an error of kind coercion or validation; the caller's
// strict setting decides whether that error aborts the run. Structural and io
// errors come back with a nil table.
package transformer

import (
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

type Transformer interface {
	Apply(in *table.Table) (*table.Table, error)
}

// Func adapts a plain function to Transformer.
type Func func(in *table.Table) (*table.Table, error)

func (f Func) Apply(in *table.Table) (*table.Table, error) { return f(in) }

// Inspector is implemented by stages that also produce informational
// findings, such as per-column missing counts.
type Inspector interface {
	Inspect(in *table.Table) []errs.ValidationError
}

// Step runs one stage under the propagation policy. It returns the table to
// hand to the next stage, the non-fatal findings, and a fatal error if the run
// must stop.
func Step(s Transformer, in *table.Table, strict bool) (*table.Table, []errs.ValidationError, error) {
	var findings []errs.ValidationError
	if insp, ok := s.(Inspector); ok {
		findings = append(findings, insp.Inspect(in)...)
	}
	out, err := s.Apply(in)
	if err != nil {
		if errs.IsFatal(err, strict) || out == nil {
			return nil, findings, err
		}
		findings = append(findings, errs.Findings(err)...)
	}
	return out, findings, nil
}

// Chain is an ordered list of stages.
type Chain []Transformer

// Run applies every stage in order, collecting findings, and stops at the
// first fatal error.
func (c Chain) Run(in *table.Table, strict bool) (*table.Table, []errs.ValidationError, error) {
	var all []errs.ValidationError
	cur := in
	for _, s := range c {
		out, findings, err := Step(s, cur, strict)
		all = append(all, findings...)
		if err != nil {
			return nil, all, err
		}
		cur = out
	}
	return cur, all, nil
}

// Apply runs the chain strictly, so Chain itself is a Transformer.
func (c Chain) Apply(in *table.Table) (*table.Table, error) {
	out, _, err := c.Run(in, true)
	return out, err
}
