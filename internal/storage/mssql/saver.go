// Package mssql saves tables into SQL Server using go-mssqldb bulk copy.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Saver replaces one SQL Server table per Save, e.g. "dbo.sales".
type Saver struct {
	cfg storage.Config
}

func New(cfg storage.Config) (*Saver, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mssql: DSN must not be empty")
	}
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("mssql: table must not be empty")
	}
	return &Saver{cfg: cfg}, nil
}

// MapType maps a column onto a SQL Server type.
func MapType(f table.Field) string {
	switch f.Type {
	case table.Integer:
		return "BIGINT"
	case table.Decimal:
		return "FLOAT"
	case table.Date:
		if f.Granularity != "" {
			return "DATE"
		}
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes "dbo.sales" as "[dbo].[sales]".
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}

func dropSQL(name string) string {
	lit := strings.ReplaceAll(msFQN(name), "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s", lit, msFQN(name))
}

func createSQL(name string, t *table.Table) string {
	types := storage.SQLTypes(t, MapType)
	defs := make([]string, t.NumCols())
	for i, n := range t.Names() {
		defs[i] = msIdent(n) + " " + types[i] + " NULL"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", msFQN(name), strings.Join(defs, ", "))
}

func (s *Saver) Save(ctx context.Context, t *table.Table) (err error) {
	fail := func(e error) error { return &errs.IOError{Op: "save", Path: s.cfg.Table, Err: e} }

	db, err := sql.Open("sqlserver", s.cfg.DSN)
	if err != nil {
		return fail(fmt.Errorf("sql.Open: %w", err))
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fail(fmt.Errorf("ping: %w", err))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, dropSQL(s.cfg.Table)); err != nil {
		return fail(fmt.Errorf("drop: %w", err))
	}
	if _, err := tx.ExecContext(ctx, createSQL(s.cfg.Table, t)); err != nil {
		return fail(fmt.Errorf("create: %w", err))
	}

	n, err := storage.CopyTable(ctx, t, s.cfg.BatchSize, func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
		stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(s.cfg.Table, mssql.BulkOptions{}, cols...))
		if err != nil {
			return 0, fmt.Errorf("prepare bulk: %w", err)
		}
		for i := range rows {
			if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
				_ = stmt.Close()
				return 0, fmt.Errorf("bulk row %d: %w", i, err)
			}
		}
		res, err := stmt.ExecContext(ctx)
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return 0, fmt.Errorf("bulk finalize: %w", err)
		}
		return res.RowsAffected()
	}, s.cfg.Log())
	if err != nil {
		return fail(err)
	}
	if err = tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit: %w", err))
	}
	s.cfg.Log().Info("table saved", zap.String("kind", "mssql"), zap.String("table", s.cfg.Table), zap.Int64("rows", n))
	return nil
}

func init() {
	storage.Register("mssql", func(cfg storage.Config) (storage.Saver, error) {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
