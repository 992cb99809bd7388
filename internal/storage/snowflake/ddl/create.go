// Package ddl renders Snowflake DDL for the warehouse tables. Primary and
// foreign keys are accepted by Snowflake as informational constraints.
package ddl

import (
	"context"
	"strings"

	gddl "ecomdw/internal/ddl"
	"ecomdw/internal/storage"
)

// Dialect renders Snowflake DDL.
var Dialect = gddl.Dialect{
	Name:       "snowflake",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
}

// MapType maps a logical warehouse type into a Snowflake column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.Key:
		return "VARCHAR(64)"
	case gddl.Text:
		return "VARCHAR"
	case gddl.BigInt:
		return "NUMBER(19, 0)"
	case gddl.Decimal:
		return "NUMBER(38, 10)"
	case gddl.Timestamp:
		return "TIMESTAMP_NTZ"
	default:
		return "VARCHAR"
	}
}

// BuildCreateTableSQL returns a Snowflake CREATE TABLE statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// EnsureTables creates the warehouse tables if they do not exist.
func EnsureTables(ctx context.Context, repo storage.Repository, opts storage.DDLOptions) error {
	return storage.CreateTables(ctx, repo, Dialect, opts)
}

func quoteIdent(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
