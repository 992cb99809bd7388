package ddl

import (
	"strings"

	gddl "ecomdw/internal/ddl"
)

// Dialect renders Postgres DDL: double-quoted identifiers with embedded
// quotes escaped, and CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:       "postgres",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
}

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement
// for the given table definition.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// quoteIdent quotes a single identifier segment for Postgres, e.g.:
//
//	quoteIdent(`invoice_no`) => `"invoice_no"`
//	quoteIdent(`weird"name`) => `"weird""name"`
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
