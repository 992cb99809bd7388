// Package ddl renders SQL Server DDL for the warehouse tables.
//
// The builder here:
//   - Uses SQL Server-style identifier quoting: [schema].[table], [col].
//   - Wraps CREATE TABLE in an IF OBJECT_ID(...) IS NULL guard since T-SQL
//     does not support CREATE TABLE IF NOT EXISTS.
package ddl

import (
	"fmt"
	"strings"

	gddl "ecomdw/internal/ddl"
)

// Dialect renders T-SQL.
var Dialect = gddl.Dialect{
	Name:       "mssql",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
	Wrap: func(fqn, body string) string {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			fqn, fqn, strings.ReplaceAll(body, "\n  ", "\n    "),
		)
	},
}

// BuildCreateTableSQL returns a T-SQL script that creates a table matching
// the provided definition if it does not already exist:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col1] TYPE [NOT NULL],
//	    PRIMARY KEY ([pk1])
//	  );
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// quoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(strings.TrimSpace(id), "]", "]]") + "]"
}
