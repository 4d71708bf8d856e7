// Package table holds the in-memory tabular model every stage operates on.
//
// A Table is an ordered set of uniquely named, equal-length Columns. Tables and
// Columns are immutable: every operation returns a new value and shares
// untouched column storage with its input.
package table

import (
	"fmt"
	"sort"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
)

type Table struct {
	cols []*Column
	pos  map[string]int
	rows int
}

// New assembles a table, checking that names are unique and lengths agree.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: cols, pos: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, &errs.ShapeError{Msg: fmt.Sprintf("column %d is nil", i)}
		}
		if _, dup := t.pos[c.name]; dup {
			return nil, &errs.DuplicateColumnError{Name: c.name}
		}
		t.pos[c.name] = i
		if i == 0 {
			t.rows = c.n
			continue
		}
		if c.n != t.rows {
			return nil, &errs.ShapeError{
				Column: c.name,
				Msg:    fmt.Sprintf("has %d rows, want %d", c.n, t.rows),
			}
		}
	}
	return t, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Columns returns the columns in order. The slice is a copy.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Schema describes each column's name, type and missing count.
func (t *Table) Schema() []Field {
	out := make([]Field, len(t.cols))
	for i, c := range t.cols {
		out[i] = Field{
			Name:        c.name,
			Type:        c.typ,
			TypeName:    c.typ.String(),
			Granularity: c.gran,
			Missing:     c.MissingCount(),
		}
	}
	return out
}

func (t *Table) Has(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.pos[name]
	if !ok {
		return nil, &errs.MissingColumnError{Names: []string{name}}
	}
	return t.cols[i], nil
}

// Require fails with a MissingColumnError naming every absent column.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &errs.MissingColumnError{Names: missing}
	}
	return nil
}

// Take returns a table of the rows at idx, in that order.
func (t *Table) Take(idx []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(idx)
	}
	out := &Table{cols: cols, pos: t.pos, rows: len(idx)}
	return out
}

// Filter keeps the rows where keep is true, preserving order.
func (t *Table) Filter(keep []bool) (*Table, error) {
	if len(keep) != t.rows {
		return nil, &errs.ShapeError{Msg: fmt.Sprintf("filter mask has %d entries, table has %d rows", len(keep), t.rows)}
	}
	idx := make([]int, 0, t.rows)
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	if len(idx) == t.rows {
		return t, nil
	}
	return t.Take(idx), nil
}

// With returns a table where c replaces the column of the same name, or is
// appended when no such column exists.
func (t *Table) With(c *Column) (*Table, error) {
	cols := append([]*Column(nil), t.cols...)
	if i, ok := t.pos[c.name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	if len(t.cols) == 0 {
		return New(cols...)
	}
	if c.n != t.rows {
		return nil, &errs.ShapeError{Column: c.name, Msg: fmt.Sprintf("has %d rows, want %d", c.n, t.rows)}
	}
	return New(cols...)
}

// Drop removes the named columns. Every name must exist.
func (t *Table) Drop(names ...string) (*Table, error) {
	if err := t.Require(names...); err != nil {
		return nil, err
	}
	gone := make(map[string]bool, len(names))
	for _, n := range names {
		gone[n] = true
	}
	cols := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !gone[c.name] {
			cols = append(cols, c)
		}
	}
	return t.reshape(cols), nil
}

// Select keeps only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if err := t.Require(names...); err != nil {
		return nil, err
	}
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		cols = append(cols, t.cols[t.pos[n]])
	}
	return New(cols...)
}

// Rename applies old->new name mappings. Every old name must exist and the
// result must not contain duplicate names.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	olds := make([]string, 0, len(mapping))
	for old := range mapping {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	if err := t.Require(olds...); err != nil {
		return nil, err
	}
	cols := make([]*Column, len(t.cols))
	sources := make(map[string][]string, len(t.cols))
	for i, c := range t.cols {
		name := c.name
		if nn, ok := mapping[name]; ok {
			name = nn
		}
		sources[name] = append(sources[name], c.name)
		cols[i] = c.Rename(name)
	}
	for i, c := range cols {
		if src := sources[c.name]; len(src) > 1 {
			return nil, &errs.DuplicateColumnError{Name: cols[i].name, Sources: src}
		}
	}
	return New(cols...)
}

func (t *Table) reshape(cols []*Column) *Table {
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c.name] = i
	}
	rows := t.rows
	return &Table{cols: cols, pos: pos, rows: rows}
}

// Row returns the values of row i as Go values; missing values are nil.
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Value(i)
	}
	return out
}
