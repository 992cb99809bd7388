package storage

import (
	"context"
	"fmt"
	"sync"

	"ecomdw/internal/ddl"
	"ecomdw/internal/schema"
)

// DDLOptions controls schema bootstrap.
type DDLOptions struct {
	// Schema qualifies table names; see Config.Schema.
	Schema string

	// Constraints adds dimension primary keys and fact foreign keys.
	Constraints bool
}

// DDLBootstrapper creates the warehouse tables for one backend if they do
// not exist yet. Backends register their implementation at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, opts DDLOptions) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureSchema invokes the DDLBootstrapper registered for kind.
func EnsureSchema(ctx context.Context, kind string, repo Repository, opts DDLOptions) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, opts)
}

// CreateTables renders every warehouse table in dialect d and executes the
// statements in order (dimensions before the fact).
func CreateTables(ctx context.Context, repo Repository, d ddl.Dialect, opts DDLOptions) error {
	for _, t := range schema.Tables() {
		if !opts.Constraints {
			t = t.WithoutConstraints()
		}
		t = t.Qualified(opts.Schema)
		stmt, err := d.BuildCreateTableSQL(t)
		if err != nil {
			return fmt.Errorf("render %s: %w", t.FQN, err)
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", t.FQN, err)
		}
	}
	return nil
}
