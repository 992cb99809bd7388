package schema

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecomdw/internal/record"
)

func clean(inv, stock, cust string, country, desc *string, price string) record.Clean {
	p := decimal.RequireFromString(price)
	return record.Clean{
		InvoiceNo:      inv,
		StockCode:      stock,
		Description:    desc,
		Quantity:       1,
		UnitPrice:      p,
		TotalItemPrice: p,
		CustomerID:     cust,
		Country:        country,
	}
}

func TestProjectCustomersKeepFirst(t *testing.T) {
	t.Parallel()

	in := []record.Clean{
		clean("A1", "S1", "c1", record.Str("UK"), nil, "1"),
		clean("A2", "S2", "c1", record.Str("France"), nil, "1"),
		clean("A3", "S3", "c2", nil, nil, "1"),
	}
	p, err := Mapper{}.Project(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Customers) != 2 {
		t.Fatalf("customers = %d, want 2", len(p.Customers))
	}
	if *p.Customers[0].Country != "UK" {
		t.Fatalf("country = %s, want first occurrence UK", *p.Customers[0].Country)
	}
	if p.Customers[1].Country != nil {
		t.Fatalf("nil country should stay nil")
	}
	if len(p.Facts) != 3 {
		t.Fatalf("facts = %d, want one per record", len(p.Facts))
	}
}

func TestProjectProductPolicies(t *testing.T) {
	t.Parallel()

	early := time.Date(2010, 12, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	a := clean("A1", "S1", "c", nil, record.Str("MUG"), "2.50")
	a.InvoiceTimestamp = &late
	b := clean("A2", "S1", "c", nil, record.Str("WHITE MUG"), "3.00")
	b.InvoiceTimestamp = &early
	c := clean("A3", "S1", "c", nil, nil, "0")
	in := []record.Clean{a, b, c}

	cases := []struct {
		policy    string
		wantPrice string
	}{
		{"", "0"},
		{"keep-last", "0"},
		{"keep-first", "2.5"},
		{"most-complete", "3"},
		{"Most-Recent", "2.5"},
	}
	for _, tc := range cases {
		p, err := Mapper{ProductPolicy: tc.policy}.Project(in)
		if err != nil {
			t.Fatalf("%q: %v", tc.policy, err)
		}
		if len(p.Products) != 1 {
			t.Fatalf("%q: products = %d, want 1", tc.policy, len(p.Products))
		}
		if got := p.Products[0].UnitPrice.String(); got != tc.wantPrice {
			t.Errorf("%q: unit_price = %s, want %s", tc.policy, got, tc.wantPrice)
		}
	}

	if _, err := (Mapper{ProductPolicy: "cheapest"}).Project(in); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestProjectFactFields(t *testing.T) {
	t.Parallel()

	ts := time.Date(2011, 1, 2, 3, 4, 5, 0, time.UTC)
	r := record.Clean{
		InvoiceNo:        "A1",
		StockCode:        "S1",
		Quantity:         2,
		UnitPrice:        decimal.NewFromInt(10),
		TotalItemPrice:   decimal.NewFromInt(20),
		CustomerID:       "k",
		InvoiceTimestamp: &ts,
	}
	p, err := Mapper{}.Project([]record.Clean{r, r})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Facts) != 2 {
		t.Fatalf("facts must not be deduplicated, got %d", len(p.Facts))
	}
	f := p.Facts[0]
	if f.InvoiceNo != "A1" || f.ProductID != "S1" || f.CustomerID != "k" || f.Quantity != 2 ||
		!f.TotalItemPrice.Equal(decimal.NewFromInt(20)) || !f.InvoiceDate.Equal(ts) {
		t.Fatalf("fact = %+v", f)
	}
}

func TestTables(t *testing.T) {
	t.Parallel()

	tabs := Tables()
	if len(tabs) != 3 || tabs[2].FQN != FactSales {
		t.Fatalf("tables = %+v", tabs)
	}
	want := []string{"invoice_no", "customer_id", "product_id", "quantity", "total_item_price", "invoice_date"}
	got := Columns(FactSales)
	if len(got) != len(want) {
		t.Fatalf("fact columns = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fact columns = %v, want %v", got, want)
		}
	}
	if n := len(record.SalesFact{}.Values()); n != len(want) {
		t.Fatalf("SalesFact.Values has %d values, want %d", n, len(want))
	}
	if n := len(record.ProductDim{}.Values()); n != len(Columns(DimProducts)) {
		t.Fatalf("ProductDim.Values arity mismatch")
	}
	if n := len(record.CustomerDim{}.Values()); n != len(Columns(DimCustomers)) {
		t.Fatalf("CustomerDim.Values arity mismatch")
	}
}
