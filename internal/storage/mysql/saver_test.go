package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

const dsn = "tidy:secret@tcp(localhost:3306)/analytics"

func TestSQL(t *testing.T) {
	m, err := table.NewDates("month", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)).WithGranularity(table.Month)
	require.NoError(t, err)
	tbl := table.MustNew(
		table.NewText("desc", "rent"),
		table.NewDecimals("amount", 900),
		table.NewInts("n", 1),
		m,
	)
	assert.Equal(t,
		"CREATE TABLE `analytics`.`bank` (`desc` TEXT NULL, `amount` DOUBLE NULL, `n` BIGINT NULL, `month` DATE NULL)",
		createSQL("analytics.bank", tbl))
	assert.Equal(t,
		"INSERT INTO `bank` (`a`, `b`) VALUES (?, ?), (?, ?), (?, ?)",
		insertSQL("bank", []string{"a", "b"}, 3))
	assert.Equal(t,
		"RENAME TABLE `bank` TO `bank__old`, `bank__new` TO `bank`",
		swapSQL("bank", "bank__new", "bank__old"))
	assert.Equal(t, "`we``ird`", ident("we`ird"))
}

func TestBatchSize_CapsPlaceholders(t *testing.T) {
	s := &Saver{cfg: storage.Config{}}
	assert.Equal(t, storage.DefaultBatchSize, s.batchSize(4))
	assert.Equal(t, maxPlaceholders/20, s.batchSize(20))

	s.cfg.BatchSize = 10
	assert.Equal(t, 10, s.batchSize(20))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(storage.Config{Table: "bank"})
	assert.Error(t, err)
	_, err = New(storage.Config{DSN: dsn})
	assert.Error(t, err, "table is required")

	s, err := storage.New(storage.Config{Kind: "mysql", DSN: dsn, Table: "bank"})
	require.NoError(t, err)
	assert.IsType(t, &Saver{}, s)
}
