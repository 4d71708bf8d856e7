package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
)

// TestLocalOpen covers success, a missing file and a pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, body string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "sales.csv")
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	t.Run("reads_content", func(t *testing.T) {
		t.Parallel()
		p := write(t, "price,quantity\n10,2\n")
		rc, err := NewLocal(p).Open(context.Background())
		require.NoError(t, err)
		defer rc.Close()

		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "price,quantity\n10,2\n", string(got))
		_, ok := rc.(io.ReaderAt)
		assert.True(t, ok, "local files support random access")
	})

	t.Run("missing_file_is_io_error", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "missing.xlsx")
		rc, err := NewLocal(p).Open(context.Background())
		require.Error(t, err)
		assert.Nil(t, rc)

		var ioErr *errs.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.True(t, ioErr.NotFound())
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.Equal(t, errs.KindIO, errs.KindOf(err))
	})

	t.Run("pre_canceled_context", func(t *testing.T) {
		t.Parallel()
		p := write(t, "ignored")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewLocal(p).Open(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocal_NameAndExt(t *testing.T) {
	l := NewLocal("data/Bank_Statement.XLSX")
	assert.Equal(t, "data/Bank_Statement.XLSX", l.Name())
	assert.Equal(t, "xlsx", l.Ext())
	assert.Equal(t, "", NewLocal("noext").Ext())
}

func BenchmarkLocalOpen(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte("a\n1\n"), 0o644); err != nil {
		b.Fatal(err)
	}
	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		_ = rc.Close()
	}
}
