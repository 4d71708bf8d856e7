package builtin

import (
	"fmt"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// Rename applies an old->new column name mapping.
type Rename struct {
	Columns map[string]string
}

func newRename(o config.Options, _ Env) (transformer.Transformer, error) {
	m := o.StringMap("columns")
	if len(m) == 0 {
		return nil, fmt.Errorf("option %q must map at least one column", "columns")
	}
	return Rename{Columns: m}, nil
}

func (r Rename) Apply(in *table.Table) (*table.Table, error) { return in.Rename(r.Columns) }

// Select keeps Columns, in that order.
type Select struct {
	Columns []string
}

func newSelect(o config.Options, _ Env) (transformer.Transformer, error) {
	cols, err := requireStrings(o, "columns")
	if err != nil {
		return nil, err
	}
	return Select{Columns: cols}, nil
}

func (s Select) Apply(in *table.Table) (*table.Table, error) { return in.Select(s.Columns...) }

// Drop removes Columns. With IgnoreMissing set, absent names are skipped
// instead of failing the stage.
type Drop struct {
	Columns       []string
	IgnoreMissing bool
}

func newDrop(o config.Options, _ Env) (transformer.Transformer, error) {
	cols, err := requireStrings(o, "columns")
	if err != nil {
		return nil, err
	}
	return Drop{Columns: cols, IgnoreMissing: o.Bool("ignore_missing", false)}, nil
}

func (d Drop) Apply(in *table.Table) (*table.Table, error) {
	cols := d.Columns
	if d.IgnoreMissing {
		cols = cols[:0:0]
		for _, c := range d.Columns {
			if in.Has(c) {
				cols = append(cols, c)
			}
		}
	}
	return in.Drop(cols...)
}

// Sort orders rows stably by the By columns. Missing values sort last.
type Sort struct {
	By         []string
	Descending bool
}

func newSort(o config.Options, _ Env) (transformer.Transformer, error) {
	by, err := requireStrings(o, "by")
	if err != nil {
		return nil, err
	}
	return Sort{By: by, Descending: o.Bool("descending", false)}, nil
}

func (s Sort) Apply(in *table.Table) (*table.Table, error) {
	keys := make([]table.SortKey, len(s.By))
	for i, c := range s.By {
		keys[i] = table.SortKey{Column: c, Descending: s.Descending}
	}
	return in.SortBy(keys...)
}
