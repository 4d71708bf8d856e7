package builtin

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource/file"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer"
)

// DropPattern removes every row whose Column value matches any of Patterns.
// Matching is a regex search, not equality. Missing values never match.
type DropPattern struct {
	Column   string
	Patterns []*regexp.Regexp
}

func newDropPattern(o config.Options, env Env) (transformer.Transformer, error) {
	col, err := requireString(o, "column")
	if err != nil {
		return nil, err
	}
	raw := o.StringSlice("patterns")
	if p := o.String("patterns_file", ""); p != "" {
		lines, err := file.NewLocal(env.path(p)).ReadList(context.Background())
		if err != nil {
			return nil, err
		}
		env.logger().Debug("loaded drop patterns", zap.String("path", p), zap.Int("patterns", len(lines)))
		raw = append(raw, lines...)
	}
	res, err := compileAll(raw, o.Bool("case_insensitive", false))
	if err != nil {
		return nil, err
	}
	return DropPattern{Column: col, Patterns: res}, nil
}

func compileAll(patterns []string, fold bool) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if fold {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (d DropPattern) Apply(in *table.Table) (*table.Table, error) {
	c, err := in.Column(d.Column)
	if err != nil {
		return nil, err
	}
	keep := make([]bool, c.Len())
	for i := range keep {
		keep[i] = true
		if c.IsMissing(i) {
			continue
		}
		v := c.Format(i)
		for _, re := range d.Patterns {
			if re.MatchString(v) {
				keep[i] = false
				break
			}
		}
	}
	return in.Filter(keep)
}

// DropMissing removes rows with a missing value in any of Columns, or in any
// column at all when Columns is empty.
type DropMissing struct {
	Columns []string
}

func newDropMissing(o config.Options, _ Env) (transformer.Transformer, error) {
	return DropMissing{Columns: o.StringSlice("columns")}, nil
}

func (d DropMissing) Apply(in *table.Table) (*table.Table, error) {
	cols := in.Columns()
	if len(d.Columns) > 0 {
		sel, err := in.Select(d.Columns...)
		if err != nil {
			return nil, err
		}
		cols = sel.Columns()
	}
	keep := make([]bool, in.NumRows())
	for i := range keep {
		keep[i] = true
		for _, c := range cols {
			if c.IsMissing(i) {
				keep[i] = false
				break
			}
		}
	}
	return in.Filter(keep)
}
