package xlsx

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// workbook writes rows into Sheet1 starting at A1.
func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoad_BankPreamble(t *testing.T) {
	buf := workbook(t, [][]any{
		{"OPay Account Statement"},
		{"Name", "Jane Doe"},
		{},
		{"Period", "Jan 2025"},
		{},
		{},
		{"Trans. Date", "Description", "Debit(₦)", "Credit(₦)"},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "Airtime", 200.5, "--"},
		{},
		{"2025-01-03", "Transfer to X", "1,000.00"},
	})

	tbl, skipped, err := Load(context.Background(), buf, Options{SkipRows: 6})
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, []string{"Trans. Date", "Description", "Debit(₦)", "Credit(₦)"}, tbl.Names())
	assert.Equal(t, 2, tbl.NumRows(), "blank rows are dropped")

	date, _ := tbl.Column("Trans. Date")
	d, _ := date.Strings()
	assert.Contains(t, d[0], "45658", "date cells arrive as Excel serials")
	assert.Equal(t, "2025-01-03", d[1])

	debit, _ := tbl.Column("Debit(₦)")
	assert.Equal(t, "200.5", debit.Format(0))

	credit, _ := tbl.Column("Credit(₦)")
	assert.True(t, credit.IsMissing(1), "short rows are padded with missing values")
}

func TestLoad_SheetSelection(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Weather")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Weather", "A1", "STATION"))
	require.NoError(t, f.SetCellValue("Weather", "A2", "LAGOS"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, _, err := Load(context.Background(), bytes.NewReader(buf.Bytes()), Options{Sheet: "Weather"})
	require.NoError(t, err)
	assert.Equal(t, []string{"STATION"}, tbl.Names())

	_, _, err = Load(context.Background(), bytes.NewReader(buf.Bytes()), Options{Sheet: "Nope"})
	assert.ErrorContains(t, err, "not found")
}

func TestLoad_TooFewRows(t *testing.T) {
	buf := workbook(t, [][]any{{"only"}})
	_, _, err := Load(context.Background(), buf, Options{SkipRows: 6})
	assert.Error(t, err)
}
