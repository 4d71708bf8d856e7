// Package analysis runs the named steps that turn a cleaned table into the
// summary tables a pipeline publishes: group-by aggregates, percent change,
// merges, and small reshaping steps.
//
// Each step reads one input table (the cleaned table, "clean", unless Input
// names an earlier step) and produces a new table under its own name.
package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer/builtin"
)

// Clean names the cleaned table in step inputs.
const Clean = "clean"

// Tables holds every table produced so far, by name.
type Tables map[string]*table.Table

// Get returns the named table.
func (ts Tables) Get(name string) (*table.Table, error) {
	t, ok := ts[name]
	if !ok {
		return nil, fmt.Errorf("no table named %q", name)
	}
	return t, nil
}

// Op computes one step's output from the tables produced so far.
type Op func(ts Tables) (*table.Table, error)

// Compiled is a step ready to run.
type Compiled struct {
	Step config.Step
	Op   Op
}

// Input returns the step's input table name.
func (c Compiled) Input() string {
	if c.Step.Input == "" {
		return Clean
	}
	return c.Step.Input
}

// Result is one named analysis output.
type Result struct {
	Name  string
	Table *table.Table
	// Save is the step's own sink, if any.
	Save *config.Storage
}

type factory func(s config.Step, env builtin.Env) (Op, error)

var registry = map[string]factory{
	"aggregate":  newAggregate,
	"pct_change": newPctChange,
	"merge":      newMerge,
	"scale":      newScale,
	"fill":       viaTransform("fill_missing"),
	"sort":       viaTransform("sort"),
	"rename":     viaTransform("rename"),
	"select":     viaTransform("select"),
}

// Kinds lists the registered step kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Compile builds every step, failing on the first unknown kind or bad option.
func Compile(steps []config.Step, env builtin.Env) ([]Compiled, error) {
	out := make([]Compiled, 0, len(steps))
	for _, s := range steps {
		f, ok := registry[s.Kind]
		if !ok {
			return nil, fmt.Errorf("analysis %s: unknown kind %q", s.Name, s.Kind)
		}
		op, err := f(s, env)
		if err != nil {
			return nil, fmt.Errorf("analysis %s: %w", s.Name, err)
		}
		out = append(out, Compiled{Step: s, Op: op})
	}
	return out, nil
}

// Run compiles and executes steps over clean, checking ctx between steps.
func Run(ctx context.Context, clean *table.Table, steps []config.Step, env builtin.Env) ([]Result, error) {
	compiled, err := Compile(steps, env)
	if err != nil {
		return nil, err
	}
	ts := Tables{Clean: clean}
	results := make([]Result, 0, len(compiled))
	for _, c := range compiled {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		out, err := c.Op(ts)
		if err != nil {
			return results, errs.InStage("analysis "+c.Step.Name, err)
		}
		ts[c.Step.Name] = out
		results = append(results, Result{Name: c.Step.Name, Table: out, Save: c.Step.Save})
	}
	return results, nil
}

// input wraps a single-table computation with the step's input lookup.
func input(s config.Step, f func(*table.Table) (*table.Table, error)) Op {
	name := s.Input
	if name == "" {
		name = Clean
	}
	return func(ts Tables) (*table.Table, error) {
		in, err := ts.Get(name)
		if err != nil {
			return nil, err
		}
		return f(in)
	}
}

// viaTransform reuses a cleaning stage as an analysis step. Soft findings
// are not tolerated here: analysis runs on an already cleaned table.
func viaTransform(kind string) factory {
	return func(s config.Step, env builtin.Env) (Op, error) {
		tr, err := builtin.Build(config.Transform{Kind: kind, Name: s.Name, Options: s.Options}, env)
		if err != nil {
			return nil, err
		}
		return input(s, tr.Apply), nil
	}
}
