// Package parser turns a source file into a raw table, dispatching on the
// file kind. Loaders never coerce: every spreadsheet or CSV column arrives as
// Text, while parquet snapshots keep the types they were saved with.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource"
	"github.com/Haashiraaa/data-analysis-projects/internal/datasource/file"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	pcsv "github.com/Haashiraaa/data-analysis-projects/internal/parser/csv"
	pjson "github.com/Haashiraaa/data-analysis-projects/internal/parser/json"
	"github.com/Haashiraaa/data-analysis-projects/internal/parser/parquet"
	"github.com/Haashiraaa/data-analysis-projects/internal/parser/xlsx"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Supported source kinds.
const (
	KindCSV     = "csv"
	KindXLSX    = "xlsx"
	KindParquet = "parquet"
	KindJSON    = "json"
)

// Options carries loader settings for every kind; each loader reads the
// fields that apply to it.
type Options struct {
	// Kind overrides detection by extension.
	Kind string

	Sheet     string
	SkipRows  int
	Delimiter rune
	NoHeader  bool
	TrimSpace bool
	HeaderMap map[string]string
	Replace   []pcsv.Replacement
	Records   string

	Logger *zap.Logger
}

// FromConfig maps a pipeline parser block onto Options.
func FromConfig(p config.Parser, logger *zap.Logger) (Options, error) {
	o := p.Options
	opt := Options{
		Kind:      p.Kind,
		Sheet:     o.String("sheet", ""),
		SkipRows:  o.Int("skip_rows", 0),
		Delimiter: o.Rune("delimiter", 0),
		NoHeader:  o.Bool("no_header", false),
		TrimSpace: o.Bool("trim_space", false),
		Records:   o.String("records", ""),
		Logger:    logger,
	}
	if opt.SkipRows < 0 {
		return Options{}, fmt.Errorf("parser: skip_rows must be >= 0, got %d", opt.SkipRows)
	}
	if o.Has("header_map") {
		opt.HeaderMap = o.StringMap("header_map")
	}
	if err := o.Decode("replace", &opt.Replace); err != nil {
		return Options{}, fmt.Errorf("parser: %w", err)
	}
	return opt, nil
}

// KindFor infers the source kind from a path's extension.
func KindFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return KindCSV, nil
	case ".xlsx", ".xlsm":
		return KindXLSX, nil
	case ".parquet", ".pq":
		return KindParquet, nil
	case ".json", ".jsonl", ".ndjson":
		return KindJSON, nil
	default:
		return "", fmt.Errorf("cannot infer source kind from %q; set kind explicitly", path)
	}
}

// Load opens path and reads it into a table, returning the number of rows the
// loader had to skip. Read failures are reported as *errs.IOError; header
// problems keep their structural error type.
func Load(ctx context.Context, path string, opt Options) (*table.Table, int, error) {
	return LoadFrom(ctx, file.NewLocal(path), opt)
}

// LoadFrom reads src into a table. The kind is inferred from src.Name() when
// opt.Kind is empty.
func LoadFrom(ctx context.Context, src datasource.Source, opt Options) (*table.Table, int, error) {
	path := src.Name()
	kind := opt.Kind
	if kind == "" {
		k, err := KindFor(path)
		if err != nil {
			return nil, 0, err
		}
		kind = k
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	var (
		t       *table.Table
		skipped int
	)
	switch kind {
	case KindCSV:
		comma := opt.Delimiter
		if comma == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
			comma = '\t'
		}
		t, skipped, err = pcsv.Load(ctx, rc, pcsv.Options{
			Comma:     comma,
			SkipRows:  opt.SkipRows,
			NoHeader:  opt.NoHeader,
			TrimSpace: opt.TrimSpace,
			HeaderMap: opt.HeaderMap,
			Replace:   opt.Replace,
			Logger:    opt.Logger,
		})
	case KindXLSX:
		t, skipped, err = xlsx.Load(ctx, rc, xlsx.Options{
			Sheet:     opt.Sheet,
			SkipRows:  opt.SkipRows,
			TrimSpace: opt.TrimSpace,
			HeaderMap: opt.HeaderMap,
			Logger:    opt.Logger,
		})
	case KindParquet:
		t, err = parquet.Load(ctx, rc)
	case KindJSON:
		t, skipped, err = pjson.Load(ctx, rc, pjson.Options{
			Records:   opt.Records,
			TrimSpace: opt.TrimSpace,
			HeaderMap: opt.HeaderMap,
			Logger:    opt.Logger,
		})
	default:
		return nil, 0, fmt.Errorf("unsupported source kind %q", kind)
	}
	if err != nil {
		if errs.KindOf(err) != "" || ctx.Err() != nil {
			return nil, skipped, err
		}
		return nil, skipped, &errs.IOError{Op: "load", Path: path, Err: err}
	}
	return t, skipped, nil
}
