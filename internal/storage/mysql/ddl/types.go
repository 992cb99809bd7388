// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "ecomdw/internal/ddl"
)

// MapType maps a logical warehouse type into a MySQL column type. Keys are
// bounded VARCHARs because TEXT columns cannot be primary keys.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.Key:
		return "VARCHAR(64)"
	case gddl.Text:
		return "TEXT"
	case gddl.BigInt:
		return "BIGINT"
	case gddl.Decimal:
		return "DECIMAL(38, 10)"
	case gddl.Timestamp:
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}
