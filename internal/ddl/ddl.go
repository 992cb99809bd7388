// Package ddl defines a small, backend-agnostic model for the warehouse
// tables and renders CREATE TABLE statements for a given SQL dialect.
//
// Columns carry a logical type ("key", "text", "bigint", "decimal",
// "timestamp"); each backend supplies a Dialect that maps logical types to
// its own column types and quotes identifiers its own way.
package ddl

import (
	"fmt"
	"strings"
)

// Logical column types.
const (
	Key       = "key"
	Text      = "text"
	BigInt    = "bigint"
	Decimal   = "decimal"
	Timestamp = "timestamp"
)

// ColumnDef describes a single column.
//
//   - Name: column name (unquoted; quoting happens at render time)
//   - Type: logical type, mapped through Dialect.MapType
//   - SQLType: explicit SQL type; overrides Type when set
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Type       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// ForeignKey references another table of the same schema.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableDef holds the table name and an ordered list of columns. FQN may be
// schema-qualified ("sales.dim_customers").
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// WithoutConstraints returns a copy of t with primary and foreign keys removed.
func (t TableDef) WithoutConstraints() TableDef {
	cols := make([]ColumnDef, len(t.Columns))
	copy(cols, t.Columns)
	for i := range cols {
		cols[i].PrimaryKey = false
	}
	return TableDef{FQN: t.FQN, Columns: cols}
}

// Qualified returns a copy of t whose FQN and foreign-key targets are
// prefixed with schema. An empty schema returns t unchanged.
func (t TableDef) Qualified(schema string) TableDef {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return t
	}
	out := TableDef{FQN: schema + "." + t.FQN, Columns: t.Columns}
	for _, fk := range t.ForeignKeys {
		fk.RefTable = schema + "." + fk.RefTable
		out.ForeignKeys = append(out.ForeignKeys, fk)
	}
	return out
}

// Dialect adapts rendering to one SQL backend.
type Dialect struct {
	Name string

	// QuoteIdent quotes one identifier segment.
	QuoteIdent func(string) string

	// MapType maps a logical type to a column type.
	MapType func(string) string

	// Wrap turns the rendered CREATE TABLE body into the final statement.
	// The default emits CREATE TABLE IF NOT EXISTS.
	Wrap func(quotedFQN, body string) string
}

// QuoteFQN quotes a possibly schema-qualified name segment by segment.
// Empty segments are ignored.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, d.quote(p))
	}
	return strings.Join(out, ".")
}

func (d Dialect) quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// BuildCreateTableSQL renders the CREATE statement for t.
//
// Each column is rendered as
//
//	<name> <type> [NOT NULL]
//
// Primary-key columns are always NOT NULL. Primary and foreign keys are
// rendered as separate constraint clauses after the columns.
func (d Dialect) BuildCreateTableSQL(t TableDef) (string, error) {
	prefix := "ddl"
	if d.Name != "" {
		prefix = d.Name + " ddl"
	}
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", prefix)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", prefix)
	}

	cols := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", prefix, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" && d.MapType != nil && c.Type != "" {
			typ = d.MapType(c.Type)
		}
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing type", prefix, name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		cols = append(cols, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.quote(fk.Column), d.QuoteFQN(fk.RefTable), d.quote(fk.RefColumn)))
	}

	body := strings.Join(cols, ",\n  ")
	quoted := d.QuoteFQN(fqn)
	if d.Wrap != nil {
		return d.Wrap(quoted, body), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quoted, body), nil
}
