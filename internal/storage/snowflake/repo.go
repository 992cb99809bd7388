// Package snowflake implements the warehouse Repository on Snowflake using
// gosnowflake. Each CopyFrom runs one transaction of multi-row INSERTs with
// bound parameters.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
)

// rowsPerInsert bounds the size of one INSERT statement.
const rowsPerInsert = 1000

// Config holds Snowflake repository configuration. Schema overrides the
// schema named in the DSN when set.
type Config struct {
	DSN    string
	Schema string
}

// Repository is a Snowflake-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, opens a connector, and pings the account.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	sfCfg, err := sf.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("snowflake dsn: %w", err)
	}
	if cfg.Schema != "" {
		sfCfg.Schema = cfg.Schema
	}
	db := sql.OpenDB(sf.NewConnector(sf.SnowflakeDriver{}, *sfCfg))

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("snowflake ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows into table inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("snowflake: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("snowflake: begin tx: %w", err)
	}
	var inserted int64
	for start := 0; start < len(rows); start += rowsPerInsert {
		end := min(start+rowsPerInsert, len(rows))
		chunk := rows[start:end]
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if len(row) != len(columns) {
				_ = tx.Rollback()
				return 0, fmt.Errorf("snowflake: row %d has %d values, want %d", start+i, len(row), len(columns))
			}
			args = append(args, toArgs(row)...)
		}
		res, err := tx.ExecContext(ctx, insertSQL(r.qualify(table), columns, len(chunk)), args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("snowflake: insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("snowflake: rows affected: %w", err)
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("snowflake: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("snowflake: exec: %w", err)
	}
	return nil
}

func (r *Repository) qualify(table string) string {
	if r.cfg.Schema == "" {
		return QuoteFQN(table)
	}
	return QuoteFQN(r.cfg.Schema + "." + table)
}

// toArgs binds timestamps as UTC so TIMESTAMP_NTZ columns hold UTC wall time.
func toArgs(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if t, ok := v.(time.Time); ok {
			out[i] = t.UTC()
			continue
		}
		out[i] = v
	}
	return out
}

func insertSQL(fqn string, columns []string, nrows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	tuples := make([]string, nrows)
	for i := range tuples {
		tuples[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		fqn, strings.Join(quoted, ", "), strings.Join(tuples, ", "))
}

// QuoteIdent upper-cases and double-quotes an identifier, which matches how
// Snowflake resolves the same name written unquoted.
func QuoteIdent(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes each segment of a dotted name.
func QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}
