// Package sqlite saves tables into a SQLite database file. The target table
// is dropped and recreated from the table schema, and rows are inserted with
// a prepared statement, all inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Saver replaces one SQLite table per Save.
type Saver struct {
	cfg storage.Config
}

// New validates cfg. DSN is passed to database/sql as is, e.g. "out/bank.db"
// or "file:bank.db?_pragma=busy_timeout(5000)".
func New(cfg storage.Config) (*Saver, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("sqlite: table must not be empty")
	}
	return &Saver{cfg: cfg}, nil
}

// MapType maps a column onto a SQLite type affinity. Dates are stored as
// ISO-8601 text.
func MapType(f table.Field) string {
	switch f.Type {
	case table.Integer:
		return "INTEGER"
	case table.Decimal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func ident(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func createSQL(name string, t *table.Table) string {
	types := storage.SQLTypes(t, MapType)
	defs := make([]string, t.NumCols())
	for i, n := range t.Names() {
		defs[i] = ident(n) + " " + types[i]
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident(name), strings.Join(defs, ", "))
}

func insertSQL(name string, cols []string) string {
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident(name), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

func (s *Saver) Save(ctx context.Context, t *table.Table) (err error) {
	fail := func(e error) error { return &errs.IOError{Op: "save", Path: s.cfg.DSN, Err: e} }

	t, err = storage.DatesAsText(t)
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite", s.cfg.DSN)
	if err != nil {
		return fail(fmt.Errorf("sqlite: open: %w", err))
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fail(fmt.Errorf("sqlite: ping: %w", err))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("sqlite: begin tx: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident(s.cfg.Table)); err != nil {
		return fail(fmt.Errorf("sqlite: drop: %w", err))
	}
	if _, err := tx.ExecContext(ctx, createSQL(s.cfg.Table, t)); err != nil {
		return fail(fmt.Errorf("sqlite: create: %w", err))
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(s.cfg.Table, t.Names()))
	if err != nil {
		return fail(fmt.Errorf("sqlite: prepare insert: %w", err))
	}
	defer stmt.Close()

	n, err := storage.CopyTable(ctx, t, s.cfg.BatchSize, func(ctx context.Context, _ []string, rows [][]any) (int64, error) {
		var inserted int64
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return inserted, fmt.Errorf("sqlite: insert: %w", err)
			}
			inserted++
		}
		return inserted, nil
	}, s.cfg.Log())
	if err != nil {
		return fail(err)
	}
	if err = tx.Commit(); err != nil {
		return fail(fmt.Errorf("sqlite: commit: %w", err))
	}
	s.cfg.Log().Info("table saved", zap.String("kind", "sqlite"), zap.String("table", s.cfg.Table), zap.Int64("rows", n))
	return nil
}

func init() {
	storage.Register("sqlite", func(cfg storage.Config) (storage.Saver, error) {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
