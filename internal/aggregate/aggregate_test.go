package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func expenses(t *testing.T) *table.Table {
	t.Helper()
	cat := table.NewBuilder("category", table.Categorical, 5)
	for _, v := range []string{"Transfer", "Airtime", "Transfer", "", "POS"} {
		if v == "" {
			cat.AppendNull()
			continue
		}
		cat.AppendString(v)
	}
	tbl, err := table.New(
		cat.Build(),
		table.NewDecimals("debit", 10, 20, 5, 7, math.NaN()),
		table.NewInts("count", 1, 1, 1, 1, 1),
	)
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	c, err := tbl.Column(name)
	require.NoError(t, err)
	out := make([]string, c.Len())
	for i := range out {
		if c.IsMissing(i) {
			out[i] = "<NA>"
			continue
		}
		out[i] = c.Format(i)
	}
	return out
}

/*
GroupSum yields one row per distinct key (missing keys form one group) and
conserves the total of the value column.
*/
func TestGroupSum_Conservation(t *testing.T) {
	in := expenses(t)
	out, err := GroupSum(in, "debit", "category")
	require.NoError(t, err)

	assert.Equal(t, []string{"Transfer", "Airtime", "<NA>", "POS"}, column(t, out, "category"))
	assert.Equal(t, []string{"15", "20", "7", "0"}, column(t, out, "debit"))

	inSum, _ := Describe(mustColumn(t, in, "debit"))
	outSum, _ := Describe(mustColumn(t, out, "debit"))
	assert.Equal(t, inSum.Sum, outSum.Sum)

	cat := mustColumn(t, out, "category")
	assert.Equal(t, table.Categorical, cat.Type())
}

func mustColumn(t *testing.T, tbl *table.Table, name string) *table.Column {
	t.Helper()
	c, err := tbl.Column(name)
	require.NoError(t, err)
	return c
}

func TestGroupBy_Reductions(t *testing.T) {
	out, err := GroupBy(expenses(t), "category",
		Reduction{Column: "count", Op: Sum, As: "transactions"},
		Reduction{Column: "debit", Op: Count, As: "n"},
		Reduction{Column: "debit", Op: Mean, As: "mean"},
		Reduction{Column: "debit", Op: Max, As: "max"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "transactions", "n", "mean", "max"}, out.Names())
	assert.Equal(t, table.Integer, mustColumn(t, out, "transactions").Type())
	assert.Equal(t, []string{"2", "1", "1", "1"}, column(t, out, "transactions"))
	assert.Equal(t, []string{"2", "1", "1", "0"}, column(t, out, "n"))
	assert.Equal(t, []string{"7.5", "20", "7", "<NA>"}, column(t, out, "mean"))

	_, err = GroupBy(expenses(t), "debit", Reduction{Column: "category", Op: Sum})
	var shape *errs.ShapeError
	assert.ErrorAs(t, err, &shape)

	_, err = GroupBy(expenses(t), "nope", Reduction{Column: "debit"})
	var miss *errs.MissingColumnError
	assert.ErrorAs(t, err, &miss)
}

func TestRun_SortsAfterReducing(t *testing.T) {
	out, err := Run(expenses(t), Spec{
		Value: "debit", GroupBy: "category", Op: Sum, As: "total_spent",
		SortBy: "total_spent", Descending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Airtime", "Transfer", "<NA>", "POS"}, column(t, out, "category"))
	assert.Equal(t, []string{"20", "15", "7", "0"}, column(t, out, "total_spent"))
}

func TestStats(t *testing.T) {
	s := Stats([]float64{4, math.NaN(), 1, 3, 2})
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 10.0, s.Sum)
	assert.Equal(t, 2.5, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)

	empty := Stats(nil)
	assert.Equal(t, 0.0, empty.Sum)
	assert.True(t, math.IsNaN(empty.Median))

	i, err := ArgMax(table.NewDecimals("x", 1, math.NaN(), 9, 9))
	require.NoError(t, err)
	assert.Equal(t, 2, i)
}

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func monthly(t *testing.T, months []time.Time, vals ...float64) *table.Table {
	t.Helper()
	p, err := table.NewDates("month", months...).WithGranularity(table.Month)
	require.NoError(t, err)
	return table.MustNew(p, table.NewDecimals("revenue", vals...))
}

func pct(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()
	f, err := mustColumn(t, tbl, name).Floats()
	require.NoError(t, err)
	return f
}

func TestPercentChange_ThreePeriods(t *testing.T) {
	in := monthly(t, []time.Time{month(2025, 1), month(2025, 2), month(2025, 3)}, 100, 150, 120)
	out, err := PercentChange(in, "month", "revenue", PctOptions{})
	require.NoError(t, err)
	got := pct(t, out, "revenue_pct_change")
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.5, got[1], 1e-12)
	assert.InDelta(t, -0.2, got[2], 1e-12)
	assert.Equal(t, 0, mustColumn(t, out, "revenue_pct_change").MissingCount())
}

/*
With zero filling, an absent month is synthesized with value 0 and takes part
in the chain; with omit, only observed months are compared.
*/
func TestPercentChange_ZeroPeriods(t *testing.T) {
	in := monthly(t, []time.Time{month(2025, 3), month(2025, 1)}, 50, 100)

	filled, err := PercentChange(in, "month", "revenue", PctOptions{Output: "pct", ZeroPeriods: ZeroFill})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03"}, column(t, filled, "month"))
	assert.Equal(t, []string{"100", "0", "50"}, column(t, filled, "revenue"))
	got := pct(t, filled, "pct")
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, -1.0, got[1])
	assert.True(t, math.IsInf(got[2], 1))

	omitted, err := PercentChange(in, "month", "revenue", PctOptions{Output: "pct", ZeroPeriods: OmitZero})
	require.NoError(t, err)
	assert.Equal(t, 2, omitted.NumRows())
	assert.Equal(t, []float64{0, 1}, pct(t, omitted, "pct"), "given order is kept: 50 then 100")
}

func TestPercentChange_Errors(t *testing.T) {
	dup := monthly(t, []time.Time{month(2025, 1), month(2025, 1)}, 1, 2)
	_, err := PercentChange(dup, "month", "revenue", PctOptions{})
	var shape *errs.ShapeError
	assert.ErrorAs(t, err, &shape)

	text := table.MustNew(table.NewText("month", "a"), table.NewText("revenue", "1"))
	_, err = PercentChange(text, "month", "revenue", PctOptions{})
	assert.ErrorAs(t, err, &shape)

	_, err = ParseZeroPeriods("sometimes")
	assert.Error(t, err)
}

func TestChange_ZeroPrior(t *testing.T) {
	assert.Equal(t, 0.0, change(0, 0))
	assert.True(t, math.IsInf(change(0, 5), 1))
	assert.True(t, math.IsInf(change(0, -5), -1))
	assert.Equal(t, 0.0, change(math.NaN(), 5))
}

/*
A left merge keeps the left row count when keys do not overlap; unmatched
right columns are missing and shared names get _x/_y suffixes.
*/
func TestMerge_Left(t *testing.T) {
	left := monthly(t, []time.Time{month(2025, 1), month(2025, 2), month(2025, 3)}, 1, 2, 3)
	rp, err := table.NewDates("month", month(2025, 4)).WithGranularity(table.Month)
	require.NoError(t, err)
	right := table.MustNew(rp, table.NewDecimals("revenue", 9), table.NewDecimals("pct", 0.5))

	out, err := Merge(left, right, "month", MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, left.NumRows(), out.NumRows())
	assert.Equal(t, []string{"month", "revenue_x", "revenue_y", "pct"}, out.Names())
	assert.Equal(t, 3, mustColumn(t, out, "pct").MissingCount())

	inner, err := Merge(left, right, "month", MergeOptions{How: InnerJoin})
	require.NoError(t, err)
	assert.Equal(t, 0, inner.NumRows())
}

func TestMerge_Matches(t *testing.T) {
	left := monthly(t, []time.Time{month(2025, 1), month(2025, 2)}, 1, 2)
	pctTbl, err := PercentChange(left, "month", "revenue", PctOptions{Output: "pct"})
	require.NoError(t, err)
	right, err := pctTbl.Select("month", "pct")
	require.NoError(t, err)

	out, err := Merge(left, right, "month", MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"month", "revenue", "pct"}, out.Names())
	assert.Equal(t, []string{"0", "1"}, column(t, out, "pct"))

	_, err = Merge(left, table.MustNew(table.NewText("month", "2025-01")), "month", MergeOptions{})
	var shape *errs.ShapeError
	assert.ErrorAs(t, err, &shape)
}
