// Package storage contains the storage-agnostic contracts for the warehouse
// sink: the Repository interface, a backend factory keyed by kind, a DDL
// registry, and a generic batched loader.
//
// Backends register themselves from init(); import
// ecomdw/internal/storage/all to enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is an open handle to the destination warehouse. It appends rows
// to named tables; it never updates or deletes.
type Repository interface {
	// CopyFrom appends rows (aligned to columns) to table and returns the
	// number of rows the backend reports as written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	Close()
}

// Config is the backend-agnostic connection configuration.
type Config struct {
	Kind string
	DSN  string

	// Schema optionally qualifies table names (Postgres/MSSQL schema, MySQL
	// database, Snowflake schema, BigQuery dataset).
	Schema string

	// Options holds backend-specific settings (e.g. "project" for BigQuery).
	Options map[string]string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// QualifiedName joins schema and table with a dot; an empty schema returns
// table as-is.
func QualifiedName(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}
