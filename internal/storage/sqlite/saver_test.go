package sqlite

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func monthly(t *testing.T) *table.Table {
	t.Helper()
	m, err := table.NewDates("month",
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	).WithGranularity(table.Month)
	require.NoError(t, err)
	return table.MustNew(
		m,
		table.NewDecimals("total", 100, math.NaN(), 120),
		table.NewInts("n", 3, 0, 4),
	)
}

/*
Saving twice replaces the table rather than appending, and missing values
land as NULL.
*/
func TestSaver_SaveReplacesTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "out.db")
	s, err := storage.New(storage.Config{Kind: "sqlite", DSN: dsn, Table: "monthly", BatchSize: 2})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, monthly(t)))
	require.NoError(t, s.Save(ctx, monthly(t)))

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "monthly"`).Scan(&count))
	assert.Equal(t, 3, count)

	var month string
	var total sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT "month", "total" FROM "monthly" WHERE "n" = 0`).Scan(&month, &total))
	assert.Equal(t, "2025-02", month)
	assert.False(t, total.Valid)
}

func TestCreateSQL(t *testing.T) {
	got := createSQL(`odd"name`, monthly(t))
	assert.Equal(t, `CREATE TABLE "odd""name" ("month" TEXT, "total" REAL, "n" INTEGER)`, got)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(storage.Config{Table: "x"})
	assert.Error(t, err)
	_, err = New(storage.Config{DSN: "x.db"})
	assert.Error(t, err)
}
