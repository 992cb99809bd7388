// Package transformer turns raw extract lines into clean sales records.
//
// Cleaning is a pure, single-pass function over an in-memory batch. The steps
// run in a fixed order because later steps depend on earlier ones:
//
//  1. drop lines missing invoice_no or stock_code
//  2. default missing quantity to 0 and unit_price to 0
//  3. drop repeated (invoice_no, stock_code) pairs, keeping the first
//  4. total_item_price = quantity * unit_price
//  5. resolve the customer (anonymous when missing) and hash it to customer_id
//  6. parse invoice_timestamp; unparseable values become nil, the line is kept
package transformer

import (
	"time"

	"github.com/shopspring/decimal"

	"ecomdw/internal/keys"
	"ecomdw/internal/record"
	"ecomdw/internal/transformer/builtin"
)

// DefaultTimestampLayouts are tried in order when parsing invoice_timestamp.
var DefaultTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	"2006-01-02",
}

// Cleaner is the record cleaner. The zero value uses MD5 customer keys and
// DefaultTimestampLayouts.
type Cleaner struct {
	Keyer            keys.Hasher
	TimestampLayouts []string
}

// Stats counts what happened to a batch during cleaning.
type Stats struct {
	Input                 int
	DroppedMissingKeys    int
	Duplicates            int
	Anonymous             int
	UnparseableTimestamps int
	Output                int
}

// Clean returns the clean records for in. The input is not modified.
func (c Cleaner) Clean(in []record.Raw) []record.Clean {
	out, _ := c.CleanWithStats(in)
	return out
}

// CleanWithStats is Clean plus per-step counters.
func (c Cleaner) CleanWithStats(in []record.Raw) ([]record.Clean, Stats) {
	st := Stats{Input: len(in)}

	keyed, dropped := builtin.Require[record.Raw]{Present: hasKeys}.Apply(in)
	st.DroppedMissingKeys = dropped

	defaulted := make([]line, 0, len(keyed))
	for _, r := range keyed {
		defaulted = append(defaulted, withDefaults(r))
	}

	// keep-first cannot fail
	unique, _ := builtin.DeDup[line]{Key: line.key, Policy: builtin.KeepFirst}.Apply(defaulted)
	st.Duplicates = len(defaulted) - len(unique)

	keyer := c.Keyer
	if keyer == nil {
		keyer = keys.MD5{}
	}
	layouts := c.TimestampLayouts
	if len(layouts) == 0 {
		layouts = DefaultTimestampLayouts
	}

	out := make([]record.Clean, 0, len(unique))
	for _, l := range unique {
		cr := record.Clean{
			InvoiceNo:      l.raw.InvoiceNo,
			StockCode:      l.raw.StockCode,
			Description:    l.raw.Description,
			Quantity:       l.quantity,
			UnitPrice:      l.unitPrice,
			TotalItemPrice: l.unitPrice.Mul(decimal.NewFromInt(l.quantity)),
			Customer:       customerOf(l.raw.CustomerRef),
			Country:        l.raw.Country,
			Line:           l.raw.Line,
		}
		if cr.Customer.IsAnonymous() {
			st.Anonymous++
		}
		cr.CustomerID = keyer.Key(cr.Customer.KeyMaterial())

		if ts := l.raw.InvoiceTimestamp; ts != nil {
			if t, err := builtin.ParseTime(*ts, layouts); err == nil {
				cr.InvoiceTimestamp = &t
			} else {
				st.UnparseableTimestamps++
			}
		}
		out = append(out, cr)
	}

	st.Output = len(out)
	return out, st
}

// line is a raw record with its numeric defaults applied.
type line struct {
	raw       record.Raw
	quantity  int64
	unitPrice decimal.Decimal
}

func (l line) key() (string, bool) {
	return l.raw.InvoiceNo + "\x1f" + l.raw.StockCode, true
}

func hasKeys(r record.Raw) bool {
	return r.InvoiceNo != "" && r.StockCode != ""
}

func withDefaults(r record.Raw) line {
	l := line{raw: r, unitPrice: decimal.Zero}
	if r.Quantity != nil {
		l.quantity = *r.Quantity
	}
	if r.UnitPrice != nil {
		l.unitPrice = *r.UnitPrice
	}
	return l
}

func customerOf(ref *string) record.CustomerRef {
	if ref == nil || *ref == "" || *ref == record.AnonymousSentinel {
		return record.Anonymous()
	}
	return record.Identified(*ref)
}
