// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite supports dynamic typing, so the mapping picks affinities: keys,
// text and timestamps are TEXT (timestamps as ISO-8601), bigint is INTEGER
// and decimal is NUMERIC (values arrive as exact decimal strings).
package ddl

import (
	"strings"

	gddl "ecomdw/internal/ddl"
)

// MapType maps a logical warehouse type into a SQLite column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.Key:
		return "TEXT"
	case gddl.Text:
		return "TEXT"
	case gddl.BigInt:
		return "INTEGER"
	case gddl.Decimal:
		return "NUMERIC"
	case gddl.Timestamp:
		return "TEXT"
	default:
		return "TEXT"
	}
}
