package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"ecomdw/internal/ddl"
	"ecomdw/internal/schema"
	"ecomdw/internal/storage"
)

// tableCreator is implemented by *Repository and by the storage wrapper.
type tableCreator interface {
	EnsureTable(ctx context.Context, dataset, table string, s bigquery.Schema) error
}

// FieldType maps a logical warehouse type to a BigQuery field type.
func FieldType(kind string) bigquery.FieldType {
	switch kind {
	case ddl.BigInt:
		return bigquery.IntegerFieldType
	case ddl.Decimal:
		return bigquery.NumericFieldType
	case ddl.Timestamp:
		return bigquery.TimestampFieldType
	default:
		return bigquery.StringFieldType
	}
}

// Schema converts a warehouse table definition into a BigQuery schema.
// BigQuery does not enforce keys, so constraints are not carried over.
func Schema(t ddl.TableDef) bigquery.Schema {
	out := make(bigquery.Schema, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = &bigquery.FieldSchema{
			Name:     c.Name,
			Type:     FieldType(c.Type),
			Required: !c.Nullable || c.PrimaryKey,
		}
	}
	return out
}

// EnsureTables creates the three warehouse tables. opts.Schema names the
// dataset; empty uses the repository's dataset.
func EnsureTables(ctx context.Context, repo storage.Repository, opts storage.DDLOptions) error {
	tc, ok := repo.(tableCreator)
	if !ok {
		return fmt.Errorf("bigquery ddl: repository %T cannot create tables", repo)
	}
	for _, t := range schema.Tables() {
		if err := tc.EnsureTable(ctx, opts.Schema, t.FQN, Schema(t)); err != nil {
			return err
		}
	}
	return nil
}
