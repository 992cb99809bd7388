// SQLite DDL uses double-quoted identifiers and CREATE TABLE IF NOT EXISTS.
// FQN segments ("main.dim_customers") are quoted individually.

package ddl

import (
	"context"
	"strings"

	gddl "ecomdw/internal/ddl"
	"ecomdw/internal/storage"
)

// Dialect renders SQLite DDL.
var Dialect = gddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
}

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// EnsureTables creates the warehouse tables if they do not exist. SQLite has
// no schemas, so opts.Schema is ignored.
func EnsureTables(ctx context.Context, repo storage.Repository, opts storage.DDLOptions) error {
	opts.Schema = ""
	return storage.CreateTables(ctx, repo, Dialect, opts)
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(strings.TrimSpace(id), `"`, `""`) + `"`
}
