// Package bigquery implements the warehouse Repository on Google BigQuery.
// Rows are appended with the streaming inserter; tables are created from the
// warehouse definitions through the table API.
//
// Streaming inserts are not transactional. A failed CopyFrom may leave some
// rows of the batch behind; the returned count reflects the accepted rows.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"ecomdw/internal/schema"
)

// Config holds BigQuery repository configuration.
type Config struct {
	Project string
	Dataset string
}

// ParseDSN reads "bigquery://project/dataset". A non-empty dataset argument
// overrides the one in the DSN.
func ParseDSN(dsn, dataset string) (Config, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dsn), "bigquery://")
	if !ok {
		return Config{}, fmt.Errorf("bigquery dsn %q: want bigquery://project/dataset", dsn)
	}
	project, ds, _ := strings.Cut(rest, "/")
	if dataset != "" {
		ds = dataset
	}
	if project == "" || ds == "" {
		return Config{}, fmt.Errorf("bigquery dsn %q: project and dataset are required", dsn)
	}
	return Config{Project: project, Dataset: ds}, nil
}

// Repository is a BigQuery-backed implementation of storage.Repository.
type Repository struct {
	client *bigquery.Client
	cfg    Config

	// put streams savers into a table; replaced in tests.
	put func(ctx context.Context, table string, savers []*bigquery.ValuesSaver) error
}

// NewRepository opens a BigQuery client using application default credentials.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	client, err := bigquery.NewClient(ctx, cfg.Project)
	if err != nil {
		return nil, nil, fmt.Errorf("bigquery client: %w", err)
	}
	r := &Repository{client: client, cfg: cfg}
	r.put = func(ctx context.Context, table string, savers []*bigquery.ValuesSaver) error {
		return client.Dataset(cfg.Dataset).Table(table).Inserter().Put(ctx, savers)
	}
	return r, func() { _ = client.Close() }, nil
}

// CopyFrom streams rows into table.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	def, ok := schema.Table(table)
	if !ok {
		return 0, fmt.Errorf("bigquery: unknown table %q", table)
	}
	bqSchema := Schema(def)
	byName := make(map[string]*bigquery.FieldSchema, len(bqSchema))
	for _, f := range bqSchema {
		byName[f.Name] = f
	}
	fields := make(bigquery.Schema, len(columns))
	for i, c := range columns {
		f, ok := byName[c]
		if !ok {
			return 0, fmt.Errorf("bigquery: %s has no column %q", table, c)
		}
		fields[i] = f
	}

	savers := make([]*bigquery.ValuesSaver, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("bigquery: row %d has %d values, want %d", i, len(row), len(columns))
		}
		vals := make([]bigquery.Value, len(row))
		for j, v := range row {
			vals[j] = toValue(v)
		}
		savers[i] = &bigquery.ValuesSaver{Schema: fields, Row: vals}
	}

	if err := r.put(ctx, table, savers); err != nil {
		var multi bigquery.PutMultiError
		if errors.As(err, &multi) {
			return int64(len(rows) - len(multi)), fmt.Errorf("bigquery: insert into %s: %d rows rejected: %w", table, len(multi), err)
		}
		return 0, fmt.Errorf("bigquery: insert into %s: %w", table, err)
	}
	return int64(len(rows)), nil
}

// Exec runs a query job (typically DDL) and waits for it to finish.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	job, err := r.client.Query(sqlText).Run(ctx)
	if err != nil {
		return fmt.Errorf("bigquery: query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("bigquery: wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("bigquery: job: %w", err)
	}
	return nil
}

// EnsureTable creates dataset.table with the given schema unless it exists.
func (r *Repository) EnsureTable(ctx context.Context, dataset, table string, s bigquery.Schema) error {
	if dataset == "" {
		dataset = r.cfg.Dataset
	}
	ref := r.client.Dataset(dataset).Table(table)
	createErr := ref.Create(ctx, &bigquery.TableMetadata{Schema: s})
	if createErr == nil {
		return nil
	}
	if _, err := ref.Metadata(ctx); err == nil {
		return nil
	}
	return fmt.Errorf("bigquery: create %s.%s: %w", dataset, table, createErr)
}

// toValue converts decimals to the exact rationals NUMERIC columns expect.
func toValue(v any) bigquery.Value {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.Rat()
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return x.Rat()
	default:
		return v
	}
}
