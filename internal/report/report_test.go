package report

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

func weather(t *testing.T) *table.Table {
	t.Helper()
	dates := table.NewDates("date", d(2025, 1, 5), d(2025, 1, 20), d(2025, 2, 3), d(2025, 3, 30))
	month, err := table.NewDates("month", d(2025, 1, 1), d(2025, 1, 1), d(2025, 2, 1), d(2025, 3, 1)).WithGranularity(table.Month)
	require.NoError(t, err)
	return table.MustNew(
		dates,
		month,
		table.NewCategorical("station", "LAGOS IKEJA", "LAGOS IKEJA", "ABUJA", "LAGOS IKEJA"),
		table.NewDecimals("prcp", 10, 5, math.NaN(), 40),
	)
}

func TestBuild(t *testing.T) {
	r, err := Build(weather(t), config.Report{
		DateColumn:   "date",
		LabelColumn:  "station",
		ValueColumn:  "prcp",
		PeriodColumn: "month",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, r.RowsClean)
	assert.Equal(t, "Jan 2025 - Mar 2025", r.Range())
	assert.Equal(t, "LAGOS IKEJA, ABUJA", r.Labels)

	require.NotNil(t, r.Value)
	assert.Equal(t, 3, r.Value.Count)
	assert.Equal(t, 55.0, r.Value.Total)
	assert.Equal(t, 10.0, r.Value.Median)
	assert.Equal(t, 40.0, r.Value.Max)

	require.NotNil(t, r.Periods)
	assert.Equal(t, 3, r.Periods.Periods)
	assert.Equal(t, 40.0, r.Periods.MaxTotal)
	assert.Equal(t, "2025-03", r.Periods.MaxPeriod)

	_, err = json.Marshal(r)
	assert.NoError(t, err)
}

func TestRange_SingleMonth(t *testing.T) {
	r := &Report{Start: "Jan 2025", End: "Jan 2025"}
	assert.Equal(t, "Jan 2025", r.Range())
	assert.Equal(t, "", (&Report{}).Range())
}

/*
A value column with nothing but missing values still produces a report that
encodes as JSON.
*/
func TestBuild_AllMissing(t *testing.T) {
	tbl := table.MustNew(table.NewDecimals("amount", math.NaN(), math.NaN()))
	r, err := Build(tbl, config.Report{ValueColumn: "amount"})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Value.Count)
	_, err = json.Marshal(r)
	assert.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Fprint(&buf))
	assert.Contains(t, buf.String(), "no values")
}

func TestBuild_MissingColumn(t *testing.T) {
	_, err := Build(weather(t), config.Report{LabelColumn: "city"})
	assert.Error(t, err)
}

func TestFprint(t *testing.T) {
	r, err := Build(weather(t), config.Report{DateColumn: "date", ValueColumn: "prcp", PeriodColumn: "month"})
	require.NoError(t, err)
	r.Job, r.RowsLoaded = "weather", 6

	var buf bytes.Buffer
	require.NoError(t, r.Fprint(&buf))
	out := buf.String()
	assert.Contains(t, out, "6 loaded, 4 clean")
	assert.Contains(t, out, "Jan 2025 - Mar 2025")
	assert.Contains(t, out, "total 55.00")
	assert.Contains(t, out, "max 40.00 in 2025-03")
}
