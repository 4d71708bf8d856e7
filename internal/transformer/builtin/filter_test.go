package builtin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func ledger() *table.Table {
	return table.MustNew(
		textCol("type", s("debit"), s("credit"), s("debit"), nil),
		table.NewInts("qty", 3, 1, 2, 0),
	)
}

func TestFilter_Equality(t *testing.T) {
	out, err := Filter{Column: "type", Op: "eq", Value: "debit", Keep: true}.Apply(ledger())
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, formatted(t, out, "qty"))

	out, err = Filter{Column: "type", Op: "ne", Value: "debit", Keep: true}.Apply(ledger())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "0"}, formatted(t, out, "qty"), "missing satisfies ne")

	out, err = Filter{Column: "type", Op: "eq", Value: "debit", Keep: false}.Apply(ledger())
	require.NoError(t, err)
	assert.Equal(t, []string{"credit", "<NA>"}, formatted(t, out, "type"))
}

func TestFilter_NumericThreshold(t *testing.T) {
	f, err := Build(config.Transform{Kind: "filter", Options: config.Options{
		"column": "qty", "op": "gt", "value": 0.0,
	}}, Env{})
	require.NoError(t, err)
	out, err := f.Apply(ledger())
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, formatted(t, out, "qty"))

	_, err = Filter{Column: "qty", Op: "gt", Value: "lots"}.Apply(ledger())
	var shape *errs.ShapeError
	assert.ErrorAs(t, err, &shape)

	_, err = Build(config.Transform{Kind: "filter", Options: config.Options{"column": "qty", "op": "like"}}, Env{})
	assert.Error(t, err)
}

func narrations() *table.Table {
	return table.MustNew(
		textCol("description", s("POS purchase"), s("Transfer to JOHN DOE"), nil, s("Airtime"), s("Transfer to Ada")),
	)
}

/*
Rows matching any pattern are dropped, missing values are kept, and a second
pass removes nothing more.
*/
func TestDropPattern(t *testing.T) {
	d, err := Build(config.Transform{Kind: "drop_pattern", Options: config.Options{
		"column":   "description",
		"patterns": []any{"(?i)john doe", "^Airtime$"},
	}}, Env{})
	require.NoError(t, err)

	once, err := d.Apply(narrations())
	require.NoError(t, err)
	assert.Equal(t, []string{"POS purchase", "<NA>", "Transfer to Ada"}, formatted(t, once, "description"))

	twice, err := d.Apply(once)
	require.NoError(t, err)
	assert.Equal(t, once.NumRows(), twice.NumRows())
}

func TestDropPattern_PatternsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private.txt"), []byte("# people\njohn doe\n\nada\n"), 0o644))

	d, err := Build(config.Transform{Kind: "drop_pattern", Options: config.Options{
		"column":           "description",
		"patterns_file":    "private.txt",
		"case_insensitive": true,
	}}, Env{BaseDir: dir})
	require.NoError(t, err)
	out, err := d.Apply(narrations())
	require.NoError(t, err)
	assert.Equal(t, []string{"POS purchase", "<NA>", "Airtime"}, formatted(t, out, "description"))

	_, err = Build(config.Transform{Kind: "drop_pattern", Options: config.Options{
		"column": "description", "patterns_file": "absent.txt",
	}}, Env{BaseDir: dir})
	assert.Error(t, err)
}

func TestDropMissing(t *testing.T) {
	in := table.MustNew(
		textCol("a", s("x"), nil, s("z")),
		table.NewDecimals("b", 1, 2, nanValue()),
	)
	out, err := DropMissing{}.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())

	out, err = DropMissing{Columns: []string{"a"}}.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "z"}, formatted(t, out, "a"))

	_, err = DropMissing{Columns: []string{"nope"}}.Apply(in)
	var miss *errs.MissingColumnError
	assert.ErrorAs(t, err, &miss)
}
