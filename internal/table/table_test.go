package table

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sample(t *testing.T) *Table {
	t.Helper()
	amt := NewDecimals("amount", 10, math.NaN(), 30, 5)
	tbl, err := New(
		NewText("desc", "a", "b", "c", "d"),
		amt,
		NewInts("qty", 3, 1, 2, 1),
	)
	require.NoError(t, err)
	return tbl
}

/*
New rejects duplicate names and ragged columns with structural errors.
*/
func TestNew_Invariants(t *testing.T) {
	_, err := New(NewText("a", "x"), NewText("a", "y"))
	var dup *errs.DuplicateColumnError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)

	_, err = New(NewText("a", "x"), NewText("b", "y", "z"))
	var shape *errs.ShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, errs.KindStructural, errs.KindOf(err))
}

func TestColumn_MissingAndTypedAccess(t *testing.T) {
	tbl := sample(t)
	amt, err := tbl.Column("amount")
	require.NoError(t, err)

	assert.Equal(t, 1, amt.MissingCount())
	assert.True(t, amt.IsMissing(1))
	assert.Nil(t, amt.Value(1))
	assert.Equal(t, 30.0, amt.Value(2))

	_, err = amt.Strings()
	assert.Error(t, err, "typed accessor must reject the wrong type")

	nums, err := amt.Numbers()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(nums[1]))

	qty, _ := tbl.Column("qty")
	qn, err := qty.Numbers()
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2, 1}, qn)
}

func TestTable_DropSelectRename(t *testing.T) {
	tbl := sample(t)

	_, err := tbl.Drop("nope")
	var miss *errs.MissingColumnError
	require.ErrorAs(t, err, &miss)

	dropped, err := tbl.Drop("qty")
	require.NoError(t, err)
	assert.Equal(t, []string{"desc", "amount"}, dropped.Names())
	assert.Equal(t, []string{"desc", "amount", "qty"}, tbl.Names(), "input is not mutated")

	sel, err := tbl.Select("qty", "desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"qty", "desc"}, sel.Names())

	ren, err := tbl.Rename(map[string]string{"desc": "description"})
	require.NoError(t, err)
	assert.True(t, ren.Has("description"))
	assert.False(t, ren.Has("desc"))

	_, err = tbl.Rename(map[string]string{"desc": "qty"})
	var dup *errs.DuplicateColumnError
	require.ErrorAs(t, err, &dup)
	assert.ElementsMatch(t, []string{"desc", "qty"}, dup.Sources)
}

func TestTable_Filter(t *testing.T) {
	tbl := sample(t)
	out, err := tbl.Filter([]bool{true, false, true, false})
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
	desc, _ := out.Column("desc")
	s, _ := desc.Strings()
	assert.Equal(t, []string{"a", "c"}, s)

	_, err = tbl.Filter([]bool{true})
	assert.Error(t, err)
}

/*
SortBy is stable and keeps missing values last in both directions.
*/
func TestTable_SortBy(t *testing.T) {
	tbl := sample(t)

	asc, err := tbl.SortBy(SortKey{Column: "amount"})
	require.NoError(t, err)
	desc, _ := asc.Column("desc")
	s, _ := desc.Strings()
	assert.Equal(t, []string{"d", "a", "c", "b"}, s)

	dsc, err := tbl.SortBy(SortKey{Column: "amount", Descending: true})
	require.NoError(t, err)
	desc, _ = dsc.Column("desc")
	s, _ = desc.Strings()
	assert.Equal(t, []string{"c", "a", "d", "b"}, s)

	byQty, err := tbl.SortBy(SortKey{Column: "qty"})
	require.NoError(t, err)
	desc, _ = byQty.Column("desc")
	s, _ = desc.Strings()
	assert.Equal(t, []string{"b", "d", "c", "a"}, s, "ties keep input order")
}

func TestTable_WithReplacesInPlace(t *testing.T) {
	tbl := sample(t)
	out, err := tbl.With(NewText("qty", "1", "2", "3", "4"))
	require.NoError(t, err)
	assert.Equal(t, tbl.Names(), out.Names())
	c, _ := out.Column("qty")
	assert.Equal(t, Text, c.Type())

	_, err = tbl.With(NewText("short", "x"))
	assert.Error(t, err)
}

func TestGranularity_StartAndLabel(t *testing.T) {
	ts := time.Date(2025, time.August, 14, 13, 5, 0, 0, time.UTC)
	tests := []struct {
		g     Granularity
		start time.Time
		label string
	}{
		{Day, day("2025-08-14"), "2025-08-14"},
		{Week, day("2025-08-11"), "2025-W33"},
		{Month, day("2025-08-01"), "2025-08"},
		{Quarter, day("2025-07-01"), "2025Q3"},
		{Year, day("2025-01-01"), "2025"},
	}
	for _, tc := range tests {
		t.Run(string(tc.g), func(t *testing.T) {
			got := tc.g.Start(ts)
			assert.True(t, tc.start.Equal(got), "start %v", got)
			assert.Equal(t, tc.label, tc.g.Label(got))
		})
	}

	g, err := ParseGranularity("M")
	require.NoError(t, err)
	assert.Equal(t, Month, g)
	_, err = ParseGranularity("fortnight")
	assert.Error(t, err)
}

func TestColumn_FormatPeriod(t *testing.T) {
	c, err := NewDates("m", day("2025-03-01")).WithGranularity(Month)
	require.NoError(t, err)
	assert.True(t, c.IsPeriod())
	assert.Equal(t, "2025-03", c.Format(0))
}

func TestBuilder_Append(t *testing.T) {
	b := NewBuilder("n", Integer, 3)
	require.NoError(t, b.Append(int64(4)))
	require.NoError(t, b.Append(2.0))
	require.NoError(t, b.Append(nil))
	assert.Error(t, b.Append(2.5))
	c := b.Build()
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.MissingCount())
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, sample(t), 2))
	out := buf.String()
	assert.Contains(t, out, "desc")
	assert.Contains(t, out, "<NA>")
	assert.Contains(t, out, "2 more row(s)")
}
