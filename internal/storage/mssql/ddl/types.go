// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps logical warehouse types into SQL Server types. Keys get a bounded
// NVARCHAR so they can take part in primary keys; free text stays MAX.
package ddl

import (
	"strings"

	gddl "ecomdw/internal/ddl"
)

// MapType maps a logical type string into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.Key:
		return "NVARCHAR(64)"
	case gddl.Text:
		return "NVARCHAR(MAX)"
	case gddl.BigInt:
		return "BIGINT"
	case gddl.Decimal:
		return "DECIMAL(38, 10)"
	case gddl.Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}
