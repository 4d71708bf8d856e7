package builtin

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/config"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func TestKinds_MatchConfig(t *testing.T) {
	want := append([]string(nil), config.TransformKinds...)
	sort.Strings(want)
	assert.Equal(t, want, Kinds())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(config.Transform{Kind: "teleport"}, Env{})
	assert.ErrorContains(t, err, "unknown transform kind")

	_, err = Build(config.Transform{Kind: "select", Name: "keep", Options: config.Options{}}, Env{})
	assert.ErrorContains(t, err, "keep")
}

/*
A chain built from config runs the stages in order: normalize, structural
filter, coerce, derived revenue, then sort.
*/
func TestBuildChain(t *testing.T) {
	chain, err := BuildChain([]config.Transform{
		{Kind: "normalize"},
		{Kind: "filter", Options: config.Options{"column": "region", "op": "ne", "value": "Test"}},
		{Kind: "coerce", Options: config.Options{"columns": map[string]any{"price": "decimal", "quantity": "int"}}},
		{Kind: "product", Options: config.Options{"columns": []any{"price", "quantity"}, "output": "revenue"}},
		{Kind: "sort", Options: config.Options{"by": "revenue", "descending": true}},
	}, Env{})
	require.NoError(t, err)

	in := table.MustNew(
		table.NewText("Region", "North", "Test", "South"),
		table.NewText("Price", "2.50", "1", "10"),
		table.NewText("Quantity", "4", "1", "3"),
	)
	out, findings, err := chain.Run(in, true)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Equal(t, []string{"South", "North"}, formatted(t, out, "region"))
	assert.Equal(t, []string{"30", "10"}, formatted(t, out, "revenue"))
}
