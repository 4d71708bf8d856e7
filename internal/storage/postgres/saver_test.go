package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func TestCreateSQL(t *testing.T) {
	d := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	month, err := table.NewDates("month", d).WithGranularity(table.Month)
	require.NoError(t, err)
	tbl := table.MustNew(
		month,
		table.NewDates("booked_at", d),
		table.NewCategorical("category", "rent"),
		table.NewInts("n", 1),
		table.NewDecimals("total", 1.5),
	)
	assert.Equal(t,
		`CREATE TABLE "analytics"."bank" ("month" DATE, "booked_at" TIMESTAMP, "category" TEXT, "n" BIGINT, "total" DOUBLE PRECISION)`,
		createSQL("analytics.bank", tbl))
}

func TestSplitFQN(t *testing.T) {
	assert.Equal(t, pgx.Identifier{"public", "sales"}, splitFQN("public.sales"))
	assert.Equal(t, pgx.Identifier{"sales"}, splitFQN("sales"))
	assert.Empty(t, splitFQN(" "))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(storage.Config{Table: "sales"})
	assert.Error(t, err)
	_, err = New(storage.Config{DSN: "postgres://etl@localhost:5432/etl"})
	assert.Error(t, err, "table is required")

	_, err = New(storage.Config{DSN: "postgres://etl@localhost:5432/etl", Table: "public.sales"})
	assert.NoError(t, err)
}
