package mssql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func TestSQL(t *testing.T) {
	tbl := table.MustNew(
		table.NewText("desc", "rent"),
		table.NewDecimals("amount", 900),
	)
	assert.Equal(t,
		"CREATE TABLE [dbo].[bank] ([desc] NVARCHAR(MAX) NULL, [amount] FLOAT NULL)",
		createSQL("dbo.bank", tbl))
	assert.Equal(t,
		"IF OBJECT_ID(N'[dbo].[bank]', N'U') IS NOT NULL DROP TABLE [dbo].[bank]",
		dropSQL("dbo.bank"))
	assert.Equal(t, "[we]]ird]", msIdent("we]ird"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(storage.Config{Table: "dbo.bank"})
	assert.Error(t, err)
	_, err = New(storage.Config{DSN: "sqlserver://sa:pw@localhost:1433?database=etl"})
	assert.Error(t, err, "table is required")
	_, err = New(storage.Config{DSN: "sqlserver://sa:pw@localhost:1433?database=etl", Table: "dbo.bank"})
	assert.NoError(t, err)
}
