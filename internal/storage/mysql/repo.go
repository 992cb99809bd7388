// Package mysql implements the warehouse Repository on MySQL using
// go-sql-driver/mysql. Each CopyFrom runs one transaction of multi-row
// INSERT statements.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// maxPlaceholders is the server limit on bind parameters per statement.
const maxPlaceholders = 65535

// Config holds MySQL repository configuration. Schema is the database name;
// empty means the DSN's default database.
type Config struct {
	DSN    string
	Schema string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a pool, parses time values, and returns a Close func.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	mc.ParseTime = true
	if mc.Loc == nil {
		mc.Loc = time.UTC
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows into table inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: CopyFrom: row %d has %d values, want %d", i, len(row), len(columns))
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	perStmt := maxPlaceholders / len(columns)
	var inserted int64
	for start := 0; start < len(rows); start += perStmt {
		end := start + perStmt
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		args := make([]any, 0, len(chunk)*len(columns))
		for _, row := range chunk {
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, insertSQL(r.qualify(table), columns, len(chunk)), args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: rows affected: %w", err)
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}

func (r *Repository) qualify(table string) string {
	if r.cfg.Schema == "" {
		return quoteFQN(table)
	}
	return quoteFQN(r.cfg.Schema + "." + table)
}

// insertSQL builds INSERT INTO t (c1, ...) VALUES (?, ...), (?, ...).
func insertSQL(fqn string, columns []string, nrows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	tuples := make([]string, nrows)
	for i := range tuples {
		tuples[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		fqn, strings.Join(quoted, ", "), strings.Join(tuples, ", "))
}

func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
