package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

type fakeSaver struct{ cfg Config }

func (f *fakeSaver) Save(context.Context, *table.Table) error { return nil }

func TestRegistry(t *testing.T) {
	Register("fake-test", func(cfg Config) (Saver, error) { return &fakeSaver{cfg: cfg}, nil })

	s, err := New(Config{Kind: "fake-test", Path: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", s.(*fakeSaver).cfg.Path)
	assert.Contains(t, ListKinds(), "fake-test")

	_, err = New(Config{Kind: "nope"})
	assert.Error(t, err)
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	require.NoError(t, WriteFileAtomic(context.Background(), path, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	}))
	require.NoError(t, WriteFileAtomic(context.Background(), path, func(w io.Writer) error {
		_, err := io.WriteString(w, "second")
		return err
	}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
	assertNoTemps(t, filepath.Dir(path))
}

/*
A write that fails halfway, or a context cancelled before the rename, leaves
the previous file intact and no temporary file behind.
*/
func TestWriteFileAtomic_NoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := WriteFileAtomic(context.Background(), path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "half")
		return errors.New("disk on fire")
	})
	var ioErr *errs.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, errs.KindIO, errs.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = WriteFileAtomic(ctx, path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))
	assertNoTemps(t, dir)
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "leftover temp file")
	}
}

func TestCopyTable_Batches(t *testing.T) {
	tbl := table.MustNew(table.NewInts("n", 1, 2, 3, 4, 5))
	var sizes []int
	n, err := CopyTable(context.Background(), tbl, 2, func(_ context.Context, cols []string, rows [][]any) (int64, error) {
		assert.Equal(t, []string{"n"}, cols)
		sizes = append(sizes, len(rows))
		return int64(len(rows)), nil
	}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Equal(t, []int{2, 2, 1}, sizes)

	boom := errors.New("boom")
	calls := 0
	_, err = CopyTable(context.Background(), tbl, 2, func(context.Context, []string, [][]any) (int64, error) {
		calls++
		return 0, boom
	}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "copy stops at the first failing batch")
}

func TestDatesAsText(t *testing.T) {
	d := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	month, err := table.NewDates("month", d).WithGranularity(table.Month)
	require.NoError(t, err)
	tbl := table.MustNew(table.NewDates("day", d), month, table.NewInts("n", 1))

	out, err := DatesAsText(tbl)
	require.NoError(t, err)
	assert.Equal(t, []any{"2025-03-01", "2025-03", int64(1)}, out.Row(0))
}
