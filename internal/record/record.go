// Package record defines the row shapes that flow through the sales pipeline:
// raw extract lines, cleaned records, and the three star-schema projections
// (customer dimension, product dimension, sales fact).
//
// Raw rows are produced once per run and discarded after cleaning. Clean rows
// live in memory for one run and are discarded after projection. Dimension and
// fact rows are append-only once loaded.
package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnonymousSentinel is the customer reference used for sales without a
// customer. It is hashed like any other reference so that anonymous sales
// still carry a valid customer_id foreign key.
const AnonymousSentinel = "UNKNOWN"

// Raw is one line item as extracted, unvalidated. Empty InvoiceNo/StockCode
// mean the value was missing in the source; nil pointers mean the same for
// the nullable fields.
type Raw struct {
	InvoiceNo        string
	StockCode        string
	Description      *string
	Quantity         *int64
	UnitPrice        *decimal.Decimal
	CustomerRef      *string
	Country          *string
	InvoiceTimestamp *string

	// Line is the 1-based source line (header is line 1). Zero when unknown.
	Line int
}

// CustomerRef is the customer identity of a clean record: either an
// identified customer reference or anonymous.
type CustomerRef struct {
	ref       string
	anonymous bool
}

// Identified returns a CustomerRef for a known customer reference.
func Identified(ref string) CustomerRef { return CustomerRef{ref: ref} }

// Anonymous returns the CustomerRef of a sale without a customer.
func Anonymous() CustomerRef { return CustomerRef{anonymous: true} }

// IsAnonymous reports whether the reference is the anonymous variant.
func (c CustomerRef) IsAnonymous() bool { return c.anonymous }

// Ref returns the customer reference and true, or "" and false when anonymous.
func (c CustomerRef) Ref() (string, bool) {
	if c.anonymous {
		return "", false
	}
	return c.ref, true
}

// KeyMaterial is the string hashed into customer_id. Anonymous references
// materialize as AnonymousSentinel.
func (c CustomerRef) KeyMaterial() string {
	if c.anonymous {
		return AnonymousSentinel
	}
	return c.ref
}

// String returns the reference as written to the clean artifact.
func (c CustomerRef) String() string { return c.KeyMaterial() }

// Clean is a RawRecord after defaulting, deduplication and derivation.
// InvoiceNo, StockCode and CustomerID are never empty.
type Clean struct {
	InvoiceNo        string
	StockCode        string
	Description      *string
	Quantity         int64
	UnitPrice        decimal.Decimal
	TotalItemPrice   decimal.Decimal
	Customer         CustomerRef
	CustomerID       string
	Country          *string
	InvoiceTimestamp *time.Time // nil when missing or unparseable

	Line int
}

// CustomerDim is one dim_customers row, unique on CustomerID.
type CustomerDim struct {
	CustomerID string
	Country    *string
}

// Values returns the row in dim_customers column order.
func (c CustomerDim) Values() []any {
	return []any{c.CustomerID, strOrNil(c.Country)}
}

// ProductDim is one dim_products row, unique on ProductID.
type ProductDim struct {
	ProductID   string
	Description *string
	UnitPrice   decimal.Decimal
}

// Values returns the row in dim_products column order.
func (p ProductDim) Values() []any {
	return []any{p.ProductID, strOrNil(p.Description), p.UnitPrice}
}

// SalesFact is one fact_sales row. CustomerID and ProductID reference the
// dimension natural keys.
type SalesFact struct {
	InvoiceNo      string
	CustomerID     string
	ProductID      string
	Quantity       int64
	TotalItemPrice decimal.Decimal
	InvoiceDate    *time.Time
}

// Values returns the row in fact_sales column order.
func (f SalesFact) Values() []any {
	var date any
	if f.InvoiceDate != nil {
		date = *f.InvoiceDate
	}
	return []any{f.InvoiceNo, f.CustomerID, f.ProductID, f.Quantity, f.TotalItemPrice, date}
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// Str returns a pointer to s; handy for building nullable fields.
func Str(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int64) *int64 { return &n }

// Dec returns a pointer to d.
func Dec(d decimal.Decimal) *decimal.Decimal { return &d }
