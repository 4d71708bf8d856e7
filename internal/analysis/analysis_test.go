package analysis

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
	"github.com/Haashiraaa/data-analysis-projects/internal/transformer/builtin"
)

func month(m time.Month) time.Time { return time.Date(2025, m, 1, 0, 0, 0, 0, time.UTC) }

func ledger(t *testing.T) *table.Table {
	t.Helper()
	m, err := table.NewDates("month",
		month(time.January), month(time.January), month(time.February), month(time.April),
	).WithGranularity(table.Month)
	require.NoError(t, err)
	return table.MustNew(
		m,
		table.NewCategorical("category", "food", "rent", "food", "food"),
		table.NewDecimals("amount", 60, 40, 150, 120),
	)
}

func floats(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()
	c, err := tbl.Column(name)
	require.NoError(t, err)
	nums, err := c.Numbers()
	require.NoError(t, err)
	return nums
}

func TestKinds_MatchConfig(t *testing.T) {
	want := append([]string(nil), config.StepKinds...)
	sort.Strings(want)
	assert.Equal(t, want, Kinds())
}

/*
The monthly report chain: aggregate by month, percent change, merge the
change back onto the aggregate and scale it to a percentage.
*/
func TestRun_MonthlyChain(t *testing.T) {
	steps := []config.Step{
		{Name: "monthly", Kind: "aggregate", Options: config.Options{
			"group_by": "month", "value": "amount", "output": "total", "sort_by": "month",
		}},
		{Name: "change", Kind: "pct_change", Input: "monthly", Options: config.Options{
			"period": "month", "value": "total", "zero_periods": "omit",
		}},
		{Name: "pct", Kind: "select", Input: "change", Options: config.Options{
			"columns": []any{"month", "total_pct_change"},
		}},
		{Name: "joined", Kind: "merge", Input: "monthly", Options: config.Options{
			"right": "pct", "key": "month",
		}},
		{Name: "report", Kind: "scale", Input: "joined", Options: config.Options{
			"column": "total_pct_change", "factor": float64(100), "output": "total_pct",
		}},
	}
	results, err := Run(context.Background(), ledger(t), steps, builtin.Env{})
	require.NoError(t, err)
	require.Len(t, results, 5)

	monthly := results[0].Table
	assert.Equal(t, []float64{100, 150, 120}, floats(t, monthly, "total"))

	report := results[4].Table
	assert.Equal(t, []string{"month", "total", "total_pct_change", "total_pct"}, report.Names())
	pct := floats(t, report, "total_pct")
	require.Len(t, pct, 3)
	assert.InDelta(t, 0, pct[0], 1e-9)
	assert.InDelta(t, 50, pct[1], 1e-9)
	assert.InDelta(t, -20, pct[2], 1e-9)
}

func TestRun_ZeroFillResamples(t *testing.T) {
	steps := []config.Step{
		{Name: "monthly", Kind: "aggregate", Options: config.Options{"group_by": "month", "value": "amount", "output": "total"}},
		{Name: "change", Kind: "pct_change", Input: "monthly", Options: config.Options{"period": "month", "value": "total"}},
	}
	results, err := Run(context.Background(), ledger(t), steps, builtin.Env{})
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 150, 0, 120}, floats(t, results[1].Table, "total"), "March is synthesized as 0")
}

func TestRun_MultipleReductions(t *testing.T) {
	steps := []config.Step{
		{Name: "by_category", Kind: "aggregate", Options: config.Options{
			"group_by": "category",
			"reductions": []any{
				map[string]any{"column": "amount", "op": "sum", "as": "total"},
				map[string]any{"column": "amount", "op": "count", "as": "n"},
			},
			"sort_by": "total", "descending": true,
		}},
	}
	results, err := Run(context.Background(), ledger(t), steps, builtin.Env{})
	require.NoError(t, err)
	out := results[0].Table
	assert.Equal(t, []any{"food", 330.0, int64(3)}, out.Row(0))
	assert.Equal(t, []any{"rent", 40.0, int64(1)}, out.Row(1))
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, ledger(t), []config.Step{{Name: "x", Kind: "pivot"}}, builtin.Env{})
	assert.Error(t, err)

	_, err = Run(ctx, ledger(t), []config.Step{{Name: "x", Kind: "scale", Options: config.Options{"column": "amount"}}}, builtin.Env{})
	assert.Error(t, err, "factor is required")

	_, err = Run(ctx, ledger(t), []config.Step{{Name: "x", Kind: "scale", Options: config.Options{"column": "category", "factor": 2.0}}}, builtin.Env{})
	var shape *errs.ShapeError
	assert.ErrorAs(t, err, &shape)

	_, err = Run(ctx, ledger(t), []config.Step{{Name: "x", Kind: "sort", Input: "nope", Options: config.Options{"by": "amount"}}}, builtin.Env{})
	assert.ErrorContains(t, err, "nope")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Run(cancelled, ledger(t), []config.Step{{Name: "x", Kind: "sort", Options: config.Options{"by": "amount"}}}, builtin.Env{})
	assert.ErrorIs(t, err, context.Canceled)
}
