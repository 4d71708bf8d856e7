// Package postgres saves tables into PostgreSQL using pgx v5. The target table
// is dropped and recreated from the table schema, then filled with COPY, all
// inside one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Haashiraaa/data-analysis-projects/internal/errs"
	"github.com/Haashiraaa/data-analysis-projects/internal/storage"
	"github.com/Haashiraaa/data-analysis-projects/internal/table"
)

// Saver replaces one Postgres table per Save. Table may be schema-qualified,
// e.g. "analytics.bank_monthly".
type Saver struct {
	cfg storage.Config
}

func New(cfg storage.Config) (*Saver, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	if _, err := pgxpool.ParseConfig(cfg.DSN); err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	if len(splitFQN(cfg.Table)) == 0 {
		return nil, fmt.Errorf("postgres: table must not be empty")
	}
	return &Saver{cfg: cfg}, nil
}

// MapType maps a column onto a Postgres type. Period columns hold the first
// day of their period and map to DATE.
func MapType(f table.Field) string {
	switch f.Type {
	case table.Integer:
		return "BIGINT"
	case table.Decimal:
		return "DOUBLE PRECISION"
	case table.Date:
		if f.Granularity != "" {
			return "DATE"
		}
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.sales" to
// "public"."sales".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}

func createSQL(name string, t *table.Table) string {
	types := storage.SQLTypes(t, MapType)
	defs := make([]string, t.NumCols())
	for i, n := range t.Names() {
		defs[i] = pgIdent(n) + " " + types[i]
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", pgFQN(name), strings.Join(defs, ", "))
}

func (s *Saver) Save(ctx context.Context, t *table.Table) error {
	fail := func(e error) error { return &errs.IOError{Op: "save", Path: s.cfg.Table, Err: e} }

	pool, err := pgxpool.New(ctx, s.cfg.DSN)
	if err != nil {
		return fail(fmt.Errorf("pgxpool: %w", err))
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fail(fmt.Errorf("begin tx: %w", err))
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgFQN(s.cfg.Table)); err != nil {
		return fail(fmt.Errorf("drop: %w", err))
	}
	if _, err := tx.Exec(ctx, createSQL(s.cfg.Table, t)); err != nil {
		return fail(fmt.Errorf("create: %w", err))
	}

	target := splitFQN(s.cfg.Table)
	n, err := storage.CopyTable(ctx, t, s.cfg.BatchSize, func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
		n, err := tx.CopyFrom(ctx, target, cols, pgx.CopyFromRows(rows))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Detail != "" {
				return n, fmt.Errorf("copy: %s (%s)", pgErr.Detail, pgErr.SQLState())
			}
			return n, fmt.Errorf("copy: %w", err)
		}
		return n, nil
	}, s.cfg.Log())
	if err != nil {
		return fail(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fail(fmt.Errorf("commit: %w", err))
	}
	s.cfg.Log().Info("table saved", zap.String("kind", "postgres"), zap.String("table", s.cfg.Table), zap.Int64("rows", n))
	return nil
}

func init() {
	storage.Register("postgres", func(cfg storage.Config) (storage.Saver, error) {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
