package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecomdw/internal/record"
	"ecomdw/internal/schema"
	"ecomdw/internal/storage"
	sqliteddl "ecomdw/internal/storage/sqlite/ddl"
)

func newMemRepo(tb testing.TB, constraints bool) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(closeFn)
	if err := sqliteddl.EnsureTables(context.Background(), &wrappedRepo{Repository: r}, storage.DDLOptions{Constraints: constraints}); err != nil {
		tb.Fatalf("EnsureTables: %v", err)
	}
	return r
}

func count(tb testing.TB, r *Repository, table string) int {
	tb.Helper()
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestCopyFromStarSchema(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t, true)
	ctx := context.Background()
	ts := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)

	if _, err := r.CopyFrom(ctx, schema.DimCustomers, schema.Columns(schema.DimCustomers),
		[][]any{record.CustomerDim{CustomerID: "k1", Country: record.Str("UK")}.Values()}); err != nil {
		t.Fatalf("customers: %v", err)
	}
	if _, err := r.CopyFrom(ctx, schema.DimProducts, schema.Columns(schema.DimProducts),
		[][]any{record.ProductDim{ProductID: "S1", UnitPrice: decimal.RequireFromString("2.55")}.Values()}); err != nil {
		t.Fatalf("products: %v", err)
	}
	n, err := r.CopyFrom(ctx, schema.FactSales, schema.Columns(schema.FactSales), [][]any{
		record.SalesFact{InvoiceNo: "A1", CustomerID: "k1", ProductID: "S1", Quantity: 2,
			TotalItemPrice: decimal.RequireFromString("5.10"), InvoiceDate: &ts}.Values(),
		record.SalesFact{InvoiceNo: "A2", CustomerID: "k1", ProductID: "S1", Quantity: 1,
			TotalItemPrice: decimal.RequireFromString("2.55")}.Values(),
	})
	if err != nil {
		t.Fatalf("facts: %v", err)
	}
	if n != 2 || count(t, r, schema.FactSales) != 2 {
		t.Fatalf("inserted=%d rows=%d, want 2", n, count(t, r, schema.FactSales))
	}

	var date string
	if err := r.db.QueryRow(`SELECT invoice_date FROM fact_sales WHERE invoice_no = 'A1'`).Scan(&date); err != nil {
		t.Fatal(err)
	}
	if date != "2010-12-01T08:26:00Z" {
		t.Fatalf("invoice_date = %q", date)
	}
}

// TestCopyFromRollsBackBatch checks that a failing row discards the whole
// batch, including rows inserted before it.
func TestCopyFromRollsBackBatch(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t, true)
	ctx := context.Background()

	rows := [][]any{
		record.CustomerDim{CustomerID: "k1"}.Values(),
		record.CustomerDim{CustomerID: "k1"}.Values(), // primary key violation
	}
	n, err := r.CopyFrom(ctx, schema.DimCustomers, schema.Columns(schema.DimCustomers), rows)
	if err == nil {
		t.Fatal("expected constraint error")
	}
	if n != 0 || count(t, r, schema.DimCustomers) != 0 {
		t.Fatalf("batch not rolled back: n=%d rows=%d", n, count(t, r, schema.DimCustomers))
	}
}

func TestCopyFromValidation(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t, false)
	ctx := context.Background()

	if _, err := r.CopyFrom(ctx, schema.DimCustomers, nil, [][]any{{1}}); err == nil {
		t.Fatal("expected error for empty columns")
	}
	if n, err := r.CopyFrom(ctx, schema.DimCustomers, []string{"customer_id"}, nil); err != nil || n != 0 {
		t.Fatalf("empty batch: n=%d err=%v", n, err)
	}
	_, err := r.CopyFrom(ctx, schema.DimCustomers, []string{"customer_id", "country"}, [][]any{{"k"}})
	if err == nil || !strings.Contains(err.Error(), "row length") {
		t.Fatalf("err = %v", err)
	}
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := insertSQL("dim_customers", []string{"customer_id", "country"})
	want := `INSERT INTO "dim_customers" ("customer_id", "country") VALUES (?, ?)`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNewRepositoryRejectsEmptyDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatal("expected error")
	}
}
