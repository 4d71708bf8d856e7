package parquet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pqcodec "github.com/Haashiraaa/data-analysis-projects/internal/parser/parquet"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

func TestSaver_WritesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sales.parquet")
	s, err := storage.New(storage.Config{Kind: "parquet", Path: path, Compression: "zstd"})
	require.NoError(t, err)

	tbl := table.MustNew(
		table.NewText("category", "books", "games"),
		table.NewDecimals("revenue", 12.5, 40),
	)
	require.NoError(t, s.Save(context.Background(), tbl))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := pqcodec.Load(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, tbl.Names(), got.Names())
	assert.Equal(t, tbl.Row(1), got.Row(1))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(storage.Config{})
	assert.Error(t, err)
	_, err = New(storage.Config{Path: "x.parquet", Compression: "lzma9"})
	assert.Error(t, err)

	s, err := New(storage.Config{Path: "x.parquet"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCompression, s.cfg.Compression)
}
