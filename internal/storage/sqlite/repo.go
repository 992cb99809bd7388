// Package sqlite implements the warehouse Repository on SQLite using
// database/sql and the pure-Go modernc driver. Each CopyFrom runs one
// transaction with a prepared INSERT.
//
// SQLite allows a single writer, so the pool is limited to one connection;
// concurrent dimension loads are serialized by the pool.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// Enforce foreign keys when the schema was created with constraints.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows into table inside a single transaction. On any row
// error the transaction is rolled back and no row of the batch is kept.
func (r *Repository) CopyFrom(
	ctx context.Context,
	table string,
	columns []string,
	rows [][]any,
) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, toArgs(row)...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// insertSQL builds INSERT INTO "table" ("c1", ...) VALUES (?, ...).
func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		placeholders[i] = "?"
	}
	return fmt.Sprintf(
		`INSERT INTO "%s" (%s) VALUES (%s)`,
		strings.ReplaceAll(table, `"`, `""`),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
}

// toArgs renders timestamps as RFC3339 so dates sort and compare as text.
func toArgs(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if t, ok := v.(time.Time); ok {
			out[i] = t.UTC().Format(time.RFC3339)
			continue
		}
		out[i] = v
	}
	return out
}
