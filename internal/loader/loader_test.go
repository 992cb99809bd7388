package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecomdw/internal/record"
	"ecomdw/internal/schema"
)

// fakeRepo records CopyFrom calls per table and fails tables listed in fail.
type fakeRepo struct {
	mu    sync.Mutex
	calls []string
	rows  map[string]int
	fail  map[string]error

	// hold, when set, blocks dimension copies until released.
	hold chan struct{}
	// started receives a table name when its first copy begins.
	started chan string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]int{}, fail: map[string]error{}}
}

func (f *fakeRepo) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if f.started != nil {
		f.started <- table
	}
	if f.hold != nil && table != schema.FactSales {
		<-f.hold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, table)
	if err := f.fail[table]; err != nil {
		return 0, err
	}
	f.rows[table] += len(rows)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(ctx context.Context, sql string) error { return nil }
func (f *fakeRepo) Close()                                     {}

func (f *fakeRepo) called(table string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == table {
			return true
		}
	}
	return false
}

func sampleProjection() schema.Projection {
	when := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
	return schema.Projection{
		Customers: []record.CustomerDim{
			{CustomerID: "c1", Country: record.Str("United Kingdom")},
			{CustomerID: "c2"},
		},
		Products: []record.ProductDim{
			{ProductID: "85123A", Description: record.Str("WHITE HANGING HEART"), UnitPrice: decimal.RequireFromString("2.55")},
		},
		Facts: []record.SalesFact{
			{InvoiceNo: "536365", CustomerID: "c1", ProductID: "85123A", Quantity: 6, TotalItemPrice: decimal.RequireFromString("15.30"), InvoiceDate: &when},
			{InvoiceNo: "536366", CustomerID: "c2", ProductID: "85123A", Quantity: 1, TotalItemPrice: decimal.RequireFromString("2.55")},
			{InvoiceNo: "536367", CustomerID: "c2", ProductID: "85123A", Quantity: 2, TotalItemPrice: decimal.RequireFromString("5.10")},
		},
	}
}

func TestLoadWritesDimensionsThenFact(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	l := &Loader{Repo: repo, BatchSize: 2, Concurrent: true}

	res, err := l.Load(context.Background(), sampleProjection())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Customers.Inserted != 2 || res.Products.Inserted != 1 || res.Facts.Inserted != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.Inserted() != 6 {
		t.Fatalf("Inserted() = %d, want 6", res.Inserted())
	}
	// two fact batches (2 + 1) come after every dimension call
	last := repo.calls[len(repo.calls)-1]
	if last != schema.FactSales || repo.calls[len(repo.calls)-2] != schema.FactSales {
		t.Fatalf("calls = %v; fact batches must be last", repo.calls)
	}
	for _, c := range repo.calls[:len(repo.calls)-2] {
		if c == schema.FactSales {
			t.Fatalf("calls = %v; fact started before dimensions finished", repo.calls)
		}
	}
}

func TestLoadSkipsFactWhenProductsFail(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.fail[schema.DimProducts] = errors.New("connection reset")
	l := &Loader{Repo: repo, Concurrent: true}

	res, err := l.Load(context.Background(), sampleProjection())
	if err == nil {
		t.Fatal("expected error")
	}
	var lf *LoadFailure
	if !errors.As(err, &lf) || lf.Table != schema.DimProducts {
		t.Fatalf("err = %v, want LoadFailure for %s", err, schema.DimProducts)
	}
	if repo.called(schema.FactSales) {
		t.Fatal("fact load must not run after a dimension failure")
	}
	if res.Customers.Inserted != 2 {
		t.Fatalf("customers still load: %+v", res.Customers)
	}
	if res.Facts != (TableResult{}) {
		t.Fatalf("facts = %+v, want zero", res.Facts)
	}
}

func TestLoadReportsBothDimensionFailures(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.fail[schema.DimCustomers] = errors.New("customers down")
	repo.fail[schema.DimProducts] = errors.New("products down")
	l := &Loader{Repo: repo}

	_, err := l.Load(context.Background(), sampleProjection())
	if err == nil {
		t.Fatal("expected error")
	}
	var tables []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var lf *LoadFailure
		if !errors.As(e, &lf) {
			t.Fatalf("joined error %v is not a LoadFailure", e)
		}
		tables = append(tables, lf.Table)
	}
	if len(tables) != 2 || tables[0] != schema.DimCustomers || tables[1] != schema.DimProducts {
		t.Fatalf("failed tables = %v", tables)
	}
	if repo.called(schema.FactSales) {
		t.Fatal("fact load must not run")
	}
}

func TestLoadFactFailureIsLoadFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.fail[schema.FactSales] = errors.New("fk violation")
	l := &Loader{Repo: repo}

	res, err := l.Load(context.Background(), sampleProjection())
	var lf *LoadFailure
	if !errors.As(err, &lf) || lf.Table != schema.FactSales || lf.Rows != 3 {
		t.Fatalf("err = %v", err)
	}
	if res.Customers.Inserted != 2 || res.Products.Inserted != 1 {
		t.Fatalf("dimension results lost: %+v", res)
	}
}

// TestConcurrentDimensionLoadsOverlap holds both dimension copies open and
// checks that each started before either finished.
func TestConcurrentDimensionLoadsOverlap(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.hold = make(chan struct{})
	repo.started = make(chan string, 8)
	l := &Loader{Repo: repo, Concurrent: true}

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), sampleProjection())
		done <- err
	}()

	seen := map[string]bool{}
	timeout := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case tbl := <-repo.started:
			seen[tbl] = true
		case <-timeout:
			t.Fatalf("dimension loads did not overlap; started=%v", seen)
		}
	}
	if seen[schema.FactSales] {
		t.Fatal("fact started while dimensions were held")
	}
	close(repo.hold)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestSerializedDimensionLoads(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	l := &Loader{Repo: repo, Concurrent: false}
	if _, err := l.Load(context.Background(), sampleProjection()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{schema.DimCustomers, schema.DimProducts, schema.FactSales}
	if len(repo.calls) != len(want) {
		t.Fatalf("calls = %v", repo.calls)
	}
	for i := range want {
		if repo.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", repo.calls, want)
		}
	}
}

type memLedger struct {
	mu   sync.Mutex
	seen map[string]int64
}

func (m *memLedger) Seen(ctx context.Context, table, fp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[table+"/"+fp]
	return ok, nil
}

func (m *memLedger) Record(ctx context.Context, table, fp string, rows int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[table+"/"+fp] = rows
	return nil
}

func TestLedgerSkipsCommittedTables(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	l := &Loader{Repo: repo, Ledger: &memLedger{seen: map[string]int64{}}}

	if _, err := l.Load(context.Background(), sampleProjection()); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	res, err := l.Load(context.Background(), sampleProjection())
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !res.Customers.Skipped || !res.Products.Skipped || !res.Facts.Skipped {
		t.Fatalf("second load not skipped: %+v", res)
	}
	if repo.rows[schema.FactSales] != 3 {
		t.Fatalf("fact rows = %d, want 3 (loaded once)", repo.rows[schema.FactSales])
	}
}

func TestFingerprintIsContentAddressed(t *testing.T) {
	t.Parallel()

	cols := []string{"a", "b"}
	a := Fingerprint("t", cols, [][]any{{"x", decimal.RequireFromString("1.50")}})
	b := Fingerprint("t", cols, [][]any{{"x", decimal.RequireFromString("1.5")}})
	c := Fingerprint("t", cols, [][]any{{"x", nil}})
	d := Fingerprint("u", cols, [][]any{{"x", decimal.RequireFromString("1.5")}})
	if a != b {
		t.Fatalf("equal decimals differ: %s vs %s", a, b)
	}
	if a == c || a == d {
		t.Fatal("different contents collided")
	}
	if len(a) != 32 {
		t.Fatalf("len = %d, want 32", len(a))
	}
}

func TestLoadFailureMessage(t *testing.T) {
	t.Parallel()

	err := &LoadFailure{Table: "fact_sales", Rows: 10, Inserted: 4, Err: errors.New("boom")}
	if got, want := err.Error(), "load fact_sales failed after 4/10 rows: boom"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
