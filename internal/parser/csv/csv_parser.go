// Package csv loads delimited text into a raw table. Every column comes back
// as Text with empty cells marked missing; typing is left to later stages.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Options configures the loader. The zero value reads comma-separated input
// with a header row.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune

	// SkipRows drops this many records before the header (report preambles).
	SkipRows int

	// NoHeader names columns positionally (col_0, col_1, ...).
	NoHeader bool

	// TrimSpace trims surrounding whitespace from every cell.
	TrimSpace bool

	// HeaderMap renames source headers verbatim before any normalization.
	HeaderMap map[string]string

	// Replace rewrites known-bad byte sequences before the CSV reader sees
	// them, e.g. unescaped quotes in a vendor export.
	Replace []Replacement

	Logger *zap.Logger
}

// utf8BOM is stripped from the first header cell.
const utf8BOM = "\uFEFF"

// logLimit caps per-row skip messages.
const logLimit = 100

// Load reads r into a table of Text columns and returns it with the number of
// skipped rows. Rows whose width differs from the header are skipped; a
// missing header is an error.
func Load(ctx context.Context, r io.Reader, opt Options) (*table.Table, int, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	for _, rep := range opt.Replace {
		r = newRewriter(r, []byte(rep.Old), []byte(rep.New))
	}

	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1
	if len(opt.Replace) > 0 {
		cr.LazyQuotes = true
	}

	skipped := 0
	for i := 0; i < opt.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, skipped, &errs.ShapeError{Msg: fmt.Sprintf("input ends within the %d skipped row(s)", opt.SkipRows)}
			}
			return nil, skipped, fmt.Errorf("skip preamble: %w", err)
		}
	}

	var headers []string
	first, err := cr.Read()
	switch {
	case errors.Is(err, io.EOF):
		return nil, skipped, &errs.ShapeError{Msg: "input has no header row"}
	case err != nil:
		return nil, skipped, fmt.Errorf("read csv header: %w", err)
	}
	var pending []string
	if opt.NoHeader {
		headers = positional(len(first))
		pending = first
	} else {
		headers = headerNames(first, opt)
	}

	cols := make([]*table.Builder, len(headers))
	for i, h := range headers {
		cols[i] = table.NewBuilder(h, table.Text, 256)
	}
	add := func(row []string) {
		for i, v := range row {
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				cols[i].AppendNull()
				continue
			}
			cols[i].AppendString(v)
		}
	}
	if pending != nil {
		add(pending)
	}

	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, skipped, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if skipped < logLimit {
				log.Warn("csv: skipping row", zap.Int("line", line), zap.Error(err))
			}
			skipped++
			continue
		}
		if len(row) != len(headers) {
			if skipped < logLimit {
				log.Warn("csv: skipping row with wrong width",
					zap.Int("line", line), zap.Int("want", len(headers)), zap.Int("got", len(row)))
			}
			skipped++
			continue
		}
		add(row)
	}

	built := make([]*table.Column, len(cols))
	for i, b := range cols {
		built[i] = b.Build()
	}
	t, err := table.New(built...)
	if err != nil {
		return nil, skipped, err
	}
	return t, skipped, nil
}

// headerNames applies BOM stripping, HeaderMap and blank-name synthesis.
// Header text is otherwise kept verbatim for the normalize stage.
func headerNames(h []string, opt Options) []string {
	out := make([]string, len(h))
	for i, c := range h {
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if m, ok := opt.HeaderMap[c]; ok {
			c = m
		}
		if strings.TrimSpace(c) == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		out[i] = c
	}
	return out
}

func positional(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("col_%d", i)
	}
	return out
}
