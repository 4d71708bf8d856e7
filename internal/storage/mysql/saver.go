// Package mysql saves tables into MySQL or MariaDB. DDL commits implicitly in
// MySQL, so rows are loaded into a staging table first and swapped into place
// with one RENAME TABLE; readers see either the old table or the new one.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Saver replaces one MySQL table per Save, e.g. "analytics.sales".
type Saver struct {
	cfg storage.Config
}

// New validates cfg. DSN uses the driver format,
// "user:pass@tcp(host:3306)/dbname".
func New(cfg storage.Config) (*Saver, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("mysql: table must not be empty")
	}
	return &Saver{cfg: cfg}, nil
}

// MapType maps a column onto a MySQL type.
func MapType(f table.Field) string {
	switch f.Type {
	case table.Integer:
		return "BIGINT"
	case table.Decimal:
		return "DOUBLE"
	case table.Date:
		if f.Granularity != "" {
			return "DATE"
		}
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}

func ident(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// fqn quotes "analytics.sales" as "`analytics`.`sales`".
func fqn(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = ident(p)
	}
	return strings.Join(parts, ".")
}

func createSQL(name string, t *table.Table) string {
	types := storage.SQLTypes(t, MapType)
	defs := make([]string, t.NumCols())
	for i, n := range t.Names() {
		defs[i] = ident(n) + " " + types[i] + " NULL"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", fqn(name), strings.Join(defs, ", "))
}

// insertSQL is one multi-row INSERT for rows rows.
func insertSQL(name string, cols []string, rows int) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	values := strings.TrimSuffix(strings.Repeat(tuple+", ", rows), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", fqn(name), strings.Join(quoted, ", "), values)
}

func swapSQL(target, stage, old string) string {
	return fmt.Sprintf("RENAME TABLE %s TO %s, %s TO %s", fqn(target), fqn(old), fqn(stage), fqn(target))
}

// maxPlaceholders stays under the server's 65535 prepared-statement limit.
const maxPlaceholders = 60000

func (s *Saver) batchSize(cols int) int {
	n := s.cfg.BatchSize
	if n <= 0 {
		n = storage.DefaultBatchSize
	}
	if cols > 0 && n*cols > maxPlaceholders {
		n = maxPlaceholders / cols
	}
	return max(n, 1)
}

func (s *Saver) Save(ctx context.Context, t *table.Table) (err error) {
	fail := func(e error) error { return &errs.IOError{Op: "save", Path: s.cfg.Table, Err: e} }

	db, err := sql.Open("mysql", s.cfg.DSN)
	if err != nil {
		return fail(fmt.Errorf("sql.Open: %w", err))
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fail(fmt.Errorf("ping: %w", err))
	}

	stage := s.cfg.Table + "__tidy_stage"
	old := s.cfg.Table + "__tidy_old"
	defer func() {
		if err != nil {
			_, _ = db.ExecContext(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+fqn(stage))
		}
	}()

	for _, q := range []string{
		"DROP TABLE IF EXISTS " + fqn(stage),
		"DROP TABLE IF EXISTS " + fqn(old),
		createSQL(stage, t),
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fail(fmt.Errorf("prepare staging table: %w", err))
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("begin tx: %w", err))
	}
	n, err := storage.CopyTable(ctx, t, s.batchSize(t.NumCols()), func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
		args := make([]any, 0, len(rows)*len(cols))
		for _, r := range rows {
			args = append(args, r...)
		}
		res, err := tx.ExecContext(ctx, insertSQL(stage, cols, len(rows)), args...)
		if err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		return res.RowsAffected()
	}, s.cfg.Log())
	if err != nil {
		_ = tx.Rollback()
		return fail(err)
	}
	if err = tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit: %w", err))
	}

	// The target must exist for the two-way rename to be atomic.
	if _, err = db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s LIKE %s", fqn(s.cfg.Table), fqn(stage))); err != nil {
		return fail(fmt.Errorf("ensure target: %w", err))
	}
	if _, err = db.ExecContext(ctx, swapSQL(s.cfg.Table, stage, old)); err != nil {
		return fail(fmt.Errorf("swap: %w", err))
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+fqn(old)); err != nil {
		s.cfg.Log().Warn("mysql: could not drop previous table", zap.String("table", old), zap.Error(err))
	}
	s.cfg.Log().Info("table saved", zap.String("kind", "mysql"), zap.String("table", s.cfg.Table), zap.Int64("rows", n))
	return nil
}

func init() {
	storage.Register("mysql", func(cfg storage.Config) (storage.Saver, error) {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
