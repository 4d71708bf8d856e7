// Package report summarises a finished run for people: row counts, the date
// range covered, the distinct labels present (station names, categories) and
// headline statistics of the value column.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Haashiraaa/data-analysis-projects/internal/aggregate"
	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// MonthLayout renders range endpoints, e.g. "Jan 2025".
const MonthLayout = "Jan 2006"

// Report is the summary of one run.
type Report struct {
	Job        string `json:"job"`
	RunID      string `json:"run_id"`
	RowsLoaded int    `json:"rows_loaded"`
	RowsClean  int    `json:"rows_clean"`

	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// Labels holds the distinct label values joined with ", ".
	Labels string `json:"labels,omitempty"`

	Value   *ValueSummary  `json:"value,omitempty"`
	Periods *PeriodSummary `json:"periods,omitempty"`

	Findings []errs.ValidationError `json:"findings,omitempty"`
}

// ValueSummary describes the value column over all clean rows.
type ValueSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// PeriodSummary describes the per-period totals of the value column.
type PeriodSummary struct {
	Column      string  `json:"column"`
	Periods     int     `json:"periods"`
	MedianTotal float64 `json:"median_total"`
	MaxTotal    float64 `json:"max_total"`
	MaxPeriod   string  `json:"max_period"`
}

// Range returns "Jan 2025 - Mar 2025", a single month when both ends fall in
// it, or "" when no date column was summarised.
func (r *Report) Range() string {
	switch {
	case r.Start == "":
		return ""
	case r.Start == r.End:
		return r.Start
	}
	return r.Start + " - " + r.End
}

// Build summarises clean according to cfg. Columns named in cfg must exist.
func Build(clean *table.Table, cfg config.Report) (*Report, error) {
	r := &Report{RowsClean: clean.NumRows()}

	if cfg.DateColumn != "" {
		start, end, ok, err := DateRange(clean, cfg.DateColumn)
		if err != nil {
			return nil, err
		}
		if ok {
			r.Start, r.End = start.Format(MonthLayout), end.Format(MonthLayout)
		}
	}

	if cfg.LabelColumn != "" {
		c, err := clean.Column(cfg.LabelColumn)
		if err != nil {
			return nil, err
		}
		r.Labels = strings.Join(c.Distinct(), ", ")
	}

	if cfg.ValueColumn != "" {
		c, err := clean.Column(cfg.ValueColumn)
		if err != nil {
			return nil, err
		}
		s, err := aggregate.Describe(c)
		if err != nil {
			return nil, err
		}
		r.Value = &ValueSummary{Column: cfg.ValueColumn, Count: s.Count, Total: s.Sum}
		if s.Count > 0 {
			r.Value.Mean, r.Value.Median = s.Mean, s.Median
			r.Value.Min, r.Value.Max = s.Min, s.Max
		}

		if cfg.PeriodColumn != "" {
			ps, err := periodSummary(clean, cfg.PeriodColumn, cfg.ValueColumn)
			if err != nil {
				return nil, err
			}
			r.Periods = ps
		}
	}
	return r, nil
}

// DateRange returns the earliest and latest non-missing value of a date
// column. ok is false when every value is missing.
func DateRange(t *table.Table, column string) (start, end time.Time, ok bool, err error) {
	c, err := t.Column(column)
	if err != nil {
		return start, end, false, err
	}
	times, err := c.Times()
	if err != nil {
		return start, end, false, err
	}
	for i, ts := range times {
		if c.IsMissing(i) {
			continue
		}
		if !ok || ts.Before(start) {
			start = ts
		}
		if !ok || ts.After(end) {
			end = ts
		}
		ok = true
	}
	return start, end, ok, nil
}

func periodSummary(t *table.Table, period, value string) (*PeriodSummary, error) {
	totals, err := aggregate.GroupSum(t, value, period)
	if err != nil {
		return nil, err
	}
	vc, err := totals.Column(value)
	if err != nil {
		return nil, err
	}
	s, err := aggregate.Describe(vc)
	if err != nil {
		return nil, err
	}
	ps := &PeriodSummary{Column: period, Periods: totals.NumRows()}
	if s.Count == 0 {
		return ps, nil
	}
	ps.MedianTotal, ps.MaxTotal = s.Median, s.Max
	if i, err := aggregate.ArgMax(vc); err == nil && i >= 0 {
		pc, _ := totals.Column(period)
		ps.MaxPeriod = pc.Format(i)
	}
	return ps, nil
}

// Fprint writes r as aligned text.
func (r *Report) Fprint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	line := func(k, v string) { fmt.Fprintf(tw, "%s\t%s\n", k, v) }

	line("job", r.Job)
	if r.RunID != "" {
		line("run", r.RunID)
	}
	line("rows", fmt.Sprintf("%d loaded, %d clean", r.RowsLoaded, r.RowsClean))
	if rg := r.Range(); rg != "" {
		line("range", rg)
	}
	if r.Labels != "" {
		line("labels", r.Labels)
	}
	if v := r.Value; v != nil && v.Count == 0 {
		line(v.Column, "no values")
	} else if v != nil {
		line(v.Column, fmt.Sprintf("total %s, mean %s, median %s, min %s, max %s (%d values)",
			num(v.Total), num(v.Mean), num(v.Median), num(v.Min), num(v.Max), v.Count))
	}
	if p := r.Periods; p != nil && p.MaxPeriod != "" {
		line("per "+p.Column, fmt.Sprintf("median %s, max %s in %s (%d periods)",
			num(p.MedianTotal), num(p.MaxTotal), p.MaxPeriod, p.Periods))
	}
	if n := len(r.Findings); n > 0 {
		line("findings", fmt.Sprintf("%d", n))
		for _, f := range r.Findings {
			line("", f.Error())
		}
	}
	return tw.Flush()
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
