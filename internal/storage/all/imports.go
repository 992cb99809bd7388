// Package all wires all built-in storage backends into the storage factory.
//
// Importing it (as a blank import) runs the init functions of each backend,
// which register their factories and DDL bootstrappers:
//
//   - "postgres"  (pgx COPY)
//   - "sqlite"    (modernc, prepared INSERT)
//   - "mssql"     (go-mssqldb bulk copy)
//   - "mysql"     (go-sql-driver multi-row INSERT)
//   - "snowflake" (gosnowflake multi-row INSERT)
//   - "bigquery"  (streaming inserter)
//
// Typical usage:
//
//	import _ "ecomdw/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//	...
//	err = storage.EnsureSchema(ctx, "postgres", repo, storage.DDLOptions{})
package all

import (
	_ "ecomdw/internal/storage/bigquery"
	_ "ecomdw/internal/storage/mssql"
	_ "ecomdw/internal/storage/mysql"
	_ "ecomdw/internal/storage/postgres"
	_ "ecomdw/internal/storage/snowflake"
	_ "ecomdw/internal/storage/sqlite"
)
