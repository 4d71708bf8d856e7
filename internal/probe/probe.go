// Package probe inspects a source before any pipeline exists for it: per
// column it reports missing and sentinel counts, the inferred semantic type
// and the best date layout, and it can turn that into a starter pipeline.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource/file"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource/httpds"
	"github.com/Haashiraaa/data-analysis-projects/internal/parser"
)

// Options control an inspection.
type Options struct {
	Parser parser.Options

	// Sentinel is counted separately from missing; empty means "--".
	Sentinel string

	Logger *zap.Logger
}

// Result describes one source.
type Result struct {
	Path    string   `json:"path"`
	Kind    string   `json:"kind"`
	Rows    int      `json:"rows"`
	Skipped int      `json:"skipped"`
	Columns []Column `json:"columns"`
}

// loadFn is a seam so tests can feed tables without files.
var loadFn = parser.LoadFrom

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

func sourceFor(loc string) datasource.Source {
	if isURL(loc) {
		return httpds.NewSource(loc, httpds.Config{MaxRetries: 2})
	}
	return file.NewLocal(loc)
}

// stem is the source's base name without extension; for URLs the query is
// ignored.
func stem(loc string) string {
	if isURL(loc) {
		if u, err := url.Parse(loc); err == nil {
			loc = u.Path
		}
	}
	base := filepath.Base(loc)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Inspect loads path, a file or an http(s) URL, and classifies every column.
func Inspect(ctx context.Context, path string, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sentinel := opt.Sentinel
	if sentinel == "" {
		sentinel = config.DefaultSentinel
	}
	src := sourceFor(path)
	kind := opt.Parser.Kind
	if kind == "" {
		k, err := parser.KindFor(src.Name())
		if err != nil {
			return nil, err
		}
		kind = k
	}
	popt := opt.Parser
	popt.Kind = kind

	t, skipped, err := loadFn(ctx, src, popt)
	if err != nil {
		return nil, err
	}
	res := &Result{Path: path, Kind: kind, Rows: t.NumRows(), Skipped: skipped}
	for _, c := range t.Columns() {
		res.Columns = append(res.Columns, inferColumn(c, sentinel))
	}
	log.Debug("inspected source",
		zap.String("path", path),
		zap.Int("rows", res.Rows),
		zap.Int("columns", len(res.Columns)),
	)
	return res, nil
}

// Starter builds a pipeline that normalizes names, counts missing values
// and coerces every column whose type is not text. Date layouts found during
// inspection are pinned. The output is a parquet snapshot next to a file
// source, or in the working directory for a URL.
func (r *Result) Starter(job string) config.Pipeline {
	if job == "" {
		job = jobName(r.Path)
	}
	cols := map[string]any{}
	layouts := map[string]any{}
	for _, c := range r.Columns {
		switch c.Type {
		case "text":
			continue
		case "date":
			if c.Layout != "" {
				layouts[c.Normalized] = c.Layout
			}
		}
		cols[c.Normalized] = c.Type
	}

	out := stem(r.Path) + ".clean.parquet"
	if !isURL(r.Path) {
		out = filepath.Join(filepath.Dir(r.Path), out)
	}
	p := config.Pipeline{
		Job:         job,
		Description: "Generated from " + stem(r.Path),
		Parser:      config.Parser{Kind: r.Kind},
		Transform: []config.Transform{
			{Kind: "count_missing"},
			{Kind: "normalize"},
		},
		Storage: config.Storage{
			Kind: "parquet",
			File: config.FileConfig{Path: out},
		},
	}
	p.Source.Override(r.Path)
	if len(cols) > 0 {
		opts := config.Options{"columns": cols}
		if len(layouts) > 0 {
			opts["layouts"] = layouts
		}
		p.Transform = append(p.Transform, config.Transform{Kind: "coerce", Options: opts})
	}
	return p
}

func jobName(loc string) string {
	base := stem(loc)
	return strings.ToLower(strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}), "_"))
}

// Fprint writes the inspection as an aligned table.
func (r *Result) Fprint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s (%s): %d row(s), %d skipped\n", r.Path, r.Kind, r.Rows, r.Skipped); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tnormalized\ttype\tlayout\tmissing\tsentinel\tdistinct\tsample")
	for _, c := range r.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			c.Name, c.Normalized, c.Type, c.Layout, c.Missing, c.Sentinels, c.Distinct, strings.Join(c.Sample, " | "))
	}
	return tw.Flush()
}
