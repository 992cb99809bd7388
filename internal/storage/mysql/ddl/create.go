package ddl

import (
	"context"
	"strings"

	gddl "ecomdw/internal/ddl"
	"ecomdw/internal/storage"
)

// Dialect renders MySQL DDL with backtick identifiers.
var Dialect = gddl.Dialect{
	Name:       "mysql",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
}

// BuildCreateTableSQL returns a MySQL CREATE TABLE statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// EnsureTables creates the warehouse tables if they do not exist. A non-empty
// opts.Schema names the target database.
func EnsureTables(ctx context.Context, repo storage.Repository, opts storage.DDLOptions) error {
	return storage.CreateTables(ctx, repo, Dialect, opts)
}

func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(strings.TrimSpace(id), "`", "``") + "`"
}
