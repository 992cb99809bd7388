// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "ecomdw/internal/ddl"
)

// MapType maps a logical warehouse type into a Postgres SQL type. Keys and
// text are both TEXT; unknown kinds fall back to TEXT.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.Key:
		return "TEXT"
	case gddl.Text:
		return "TEXT"
	case gddl.BigInt:
		return "BIGINT"
	case gddl.Decimal:
		return "NUMERIC"
	case gddl.Timestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}
