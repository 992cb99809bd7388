// Package postgres implements the warehouse Repository on Postgres using pgx
// v5. Rows are appended with COPY FROM, one COPY per batch.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN    string // connection string for pgxpool
	Schema string // optional schema qualifying every table, e.g. "dw"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// CopyFrom appends rows to table with a single COPY.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	conv := make([][]any, len(rows))
	for i, row := range rows {
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = toCopyVal(v)
		}
		conv[i] = out
	}

	n, err := r.pool.CopyFrom(ctx, splitFQN(r.qualify(table)), columns, pgx.CopyFromRows(conv))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s): %w", table, pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

func (r *Repository) qualify(table string) string {
	if r.cfg.Schema == "" {
		return table
	}
	return r.cfg.Schema + "." + table
}

// toCopyVal converts values pgx cannot encode natively. Decimals become
// pgtype.Numeric so NUMERIC columns keep exact values; everything else is
// passed through unchanged.
func toCopyVal(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return pgtype.Numeric{Int: t.Coefficient(), Exp: t.Exponent(), Valid: true}
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return pgtype.Numeric{Int: t.Coefficient(), Exp: t.Exponent(), Valid: true}
	default:
		return v
	}
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
