// Package xlsx loads one worksheet of a spreadsheet into a raw table.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Options configures the loader.
type Options struct {
	// Sheet names the worksheet; empty means the first one.
	Sheet string

	// SkipRows drops this many physical rows before the header. Bank exports
	// carry a six-row preamble above the real header.
	SkipRows int

	TrimSpace bool
	HeaderMap map[string]string
	Logger    *zap.Logger
}

// Load reads the selected sheet into a table of Text columns and returns it
// with the number of skipped rows. Cells are read as raw values, so dates
// stored as numbers arrive as Excel serials and amounts arrive unformatted.
// Short rows are padded with missing values; fully blank rows are dropped;
// rows wider than the header are skipped.
func Load(ctx context.Context, r io.Reader, opt Options) (*table.Table, int, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, 0, &errs.ShapeError{Msg: "workbook has no sheets"}
		}
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, 0, &errs.ShapeError{Msg: fmt.Sprintf("sheet %q not found (have %s)", sheet, strings.Join(f.GetSheetList(), ", "))}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if len(rows) <= opt.SkipRows {
		return nil, 0, &errs.ShapeError{Msg: fmt.Sprintf("sheet %q has %d row(s), none left after skipping %d", sheet, len(rows), opt.SkipRows)}
	}
	rows = rows[opt.SkipRows:]

	headers := headerNames(rows[0], opt)
	cols := make([]*table.Builder, len(headers))
	for i, h := range headers {
		cols[i] = table.NewBuilder(h, table.Text, len(rows))
	}

	skipped := 0
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if len(row) > len(headers) {
			log.Warn("xlsx: skipping row wider than header",
				zap.String("sheet", sheet),
				zap.Int("row", opt.SkipRows+n+2),
				zap.Int("want", len(headers)),
				zap.Int("got", len(row)))
			skipped++
			continue
		}
		for i := range headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
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

func headerNames(h []string, opt Options) []string {
	out := make([]string, len(h))
	for i, c := range h {
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

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
