// Package loader appends a star-schema projection to the warehouse.
//
// The two dimension tables are loaded first, concurrently unless the sink
// cannot take concurrent writers. The fact table is loaded only after both
// dimension loads returned successfully. Each table load is reported as a
// whole: a failure yields a *LoadFailure and rows already written by earlier
// batches of that table are left in place.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"ecomdw/internal/metrics"
	"ecomdw/internal/record"
	"ecomdw/internal/schema"
	"ecomdw/internal/storage"
)

// DefaultBatchSize is used when Loader.BatchSize is not positive.
const DefaultBatchSize = 5000

// LoadFailure reports that a table load was rejected by the sink.
type LoadFailure struct {
	Table    string
	Rows     int   // rows submitted
	Inserted int64 // rows the sink acknowledged before failing
	Err      error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load %s failed after %d/%d rows: %v", e.Table, e.Inserted, e.Rows, e.Err)
}

func (e *LoadFailure) Unwrap() error { return e.Err }

// Ledger remembers which table contents were already committed. It is
// optional; without it every Load appends.
type Ledger interface {
	Seen(ctx context.Context, table, fingerprint string) (bool, error)
	Record(ctx context.Context, table, fingerprint string, rows int64) error
}

// TableResult summarizes one table load.
type TableResult struct {
	Table    string
	Rows     int
	Inserted int64
	Skipped  bool // content already committed per the ledger
	Duration time.Duration
}

// Result holds the per-table outcomes of Load. A table that was never
// attempted has a zero TableResult.
type Result struct {
	Customers TableResult
	Products  TableResult
	Facts     TableResult
}

// Inserted returns the total rows written across the three tables.
func (r Result) Inserted() int64 {
	return r.Customers.Inserted + r.Products.Inserted + r.Facts.Inserted
}

// Loader writes projections through a storage.Repository.
type Loader struct {
	Repo      storage.Repository
	BatchSize int

	// Concurrent runs the two dimension loads in parallel.
	Concurrent bool

	Ledger Ledger

	// Job labels metrics.
	Job string
}

// LoadCustomers appends rows to dim_customers.
func (l *Loader) LoadCustomers(ctx context.Context, rows []record.CustomerDim) (TableResult, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = r.Values()
	}
	return l.loadTable(ctx, schema.DimCustomers, vals)
}

// LoadProducts appends rows to dim_products.
func (l *Loader) LoadProducts(ctx context.Context, rows []record.ProductDim) (TableResult, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = r.Values()
	}
	return l.loadTable(ctx, schema.DimProducts, vals)
}

// LoadFact appends rows to fact_sales. Callers must have loaded the
// dimensions first; Load enforces that ordering.
func (l *Loader) LoadFact(ctx context.Context, rows []record.SalesFact) (TableResult, error) {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = r.Values()
	}
	return l.loadTable(ctx, schema.FactSales, vals)
}

// Load runs both dimension loads, waits for both, and loads the fact table
// only if neither failed. When both dimensions fail, both failures are
// returned joined.
func (l *Loader) Load(ctx context.Context, p schema.Projection) (Result, error) {
	var (
		res              Result
		custErr, prodErr error
		g                errgroup.Group
	)
	if !l.Concurrent {
		g.SetLimit(1)
	}
	g.Go(func() error {
		res.Customers, custErr = l.LoadCustomers(ctx, p.Customers)
		return nil
	})
	g.Go(func() error {
		res.Products, prodErr = l.LoadProducts(ctx, p.Products)
		return nil
	})
	_ = g.Wait()

	switch {
	case custErr != nil && prodErr != nil:
		log.Printf("loader: both dimension loads failed; fact load skipped")
		return res, errors.Join(custErr, prodErr)
	case custErr != nil:
		log.Printf("loader: %s failed; fact load skipped", schema.DimCustomers)
		return res, custErr
	case prodErr != nil:
		log.Printf("loader: %s failed; fact load skipped", schema.DimProducts)
		return res, prodErr
	}

	var err error
	res.Facts, err = l.LoadFact(ctx, p.Facts)
	if err != nil {
		return res, err
	}
	log.Printf("loader: summary customers=%d products=%d facts=%d", res.Customers.Inserted, res.Products.Inserted, res.Facts.Inserted)
	return res, nil
}

func (l *Loader) loadTable(ctx context.Context, table string, rows [][]any) (TableResult, error) {
	start := time.Now()
	res := TableResult{Table: table, Rows: len(rows)}
	columns := schema.Columns(table)

	var fp string
	if l.Ledger != nil && len(rows) > 0 {
		fp = Fingerprint(table, columns, rows)
		seen, err := l.Ledger.Seen(ctx, table, fp)
		if err != nil {
			return res, &LoadFailure{Table: table, Rows: len(rows), Err: fmt.Errorf("ledger lookup: %w", err)}
		}
		if seen {
			res.Skipped = true
			res.Duration = time.Since(start)
			log.Printf("loader: table=%s rows=%d fingerprint=%s already committed; skipping", table, len(rows), fp)
			return res, nil
		}
	}

	if len(rows) == 0 {
		log.Printf("loader: table=%s no rows", table)
		return res, nil
	}

	batch := l.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	n, err := storage.LoadRows(ctx, table, columns, rows, batch, func(ctx context.Context, cols []string, b [][]any) (int64, error) {
		return l.Repo.CopyFrom(ctx, table, cols, b)
	})
	res.Inserted = n
	res.Duration = time.Since(start)
	metrics.RecordTableLoad(l.Job, table, n, err)
	if err != nil {
		log.Printf("loader: table=%s failed inserted=%d rows=%d err=%v", table, n, len(rows), err)
		return res, &LoadFailure{Table: table, Rows: len(rows), Inserted: n, Err: err}
	}
	log.Printf("loader: table=%s inserted=%d elapsed=%s", table, n, res.Duration.Truncate(time.Millisecond))

	if l.Ledger != nil {
		if err := l.Ledger.Record(ctx, table, fp, n); err != nil {
			// rows are committed; a missing ledger entry only costs a re-load later
			log.Printf("loader: table=%s ledger record failed: %v", table, err)
		}
	}
	return res, nil
}
