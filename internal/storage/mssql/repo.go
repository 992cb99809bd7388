// Package mssql implements the warehouse Repository on Microsoft SQL Server
// using the go-mssqldb bulk copy API. Each CopyFrom is one bulk copy inside a
// transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/shopspring/decimal"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN    string
	Schema string // e.g. "dbo"
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// CopyFrom bulk-copies rows into table. The transaction is rolled back on
// any row error, so a failed batch leaves nothing behind.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.qualify(table), mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, toCopyVals(rows[i])...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// qualify returns the bracket-quoted table name, schema-qualified when set.
func (r *Repository) qualify(table string) string {
	if r.cfg.Schema == "" {
		return msFQN(table)
	}
	return msFQN(r.cfg.Schema + "." + table)
}

// toCopyVals renders decimals as strings, which bulk copy parses at the
// column's declared scale.
func toCopyVals(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if d, ok := v.(decimal.Decimal); ok {
			out[i] = d.String()
			continue
		}
		out[i] = v
	}
	return out
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.fact_sales" to
// "[dbo].[fact_sales]".
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}
