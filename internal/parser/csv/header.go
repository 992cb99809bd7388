package csv

import "strings"

// Canonical column names of the raw extract.
const (
	ColInvoiceNo   = "invoice_no"
	ColStockCode   = "stock_code"
	ColDescription = "description"
	ColQuantity    = "quantity"
	ColInvoiceDate = "invoice_date"
	ColUnitPrice   = "unit_price"
	ColCustomer    = "customer_ref"
	ColCountry     = "country"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// aliases maps squashed header spellings (lowercase, no spaces or
// underscores) to canonical names.
var aliases = map[string]string{
	"invoiceno":        ColInvoiceNo,
	"invoice":          ColInvoiceNo,
	"stockcode":        ColStockCode,
	"productid":        ColStockCode,
	"description":      ColDescription,
	"quantity":         ColQuantity,
	"qty":              ColQuantity,
	"invoicedate":      ColInvoiceDate,
	"invoicetimestamp": ColInvoiceDate,
	"unitprice":        ColUnitPrice,
	"price":            ColUnitPrice,
	"customerid":       ColCustomer,
	"customerref":      ColCustomer,
	"country":          ColCountry,
}

// canonicalHeader returns the canonical name for one source header cell, or
// the normalized cell (lowercase, spaces to underscores) when unknown.
func canonicalHeader(h string, headerMap map[string]string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	if m, ok := headerMap[h]; ok {
		return m
	}
	squashed := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(h))
	if c, ok := aliases[squashed]; ok {
		return c
	}
	return strings.ReplaceAll(strings.ToLower(h), " ", "_")
}

// indexHeaders maps canonical names to column positions. The first
// occurrence of a name wins.
func indexHeaders(hdr []string, headerMap map[string]string) map[string]int {
	idx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		c := canonicalHeader(h, headerMap)
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

// CanonicalColumns lists the raw extract columns in source order.
var CanonicalColumns = []string{
	ColInvoiceNo, ColStockCode, ColDescription, ColQuantity,
	ColInvoiceDate, ColUnitPrice, ColCustomer, ColCountry,
}

// CanonicalHeader returns the canonical column for a source header cell and
// whether it is one of CanonicalColumns.
func CanonicalHeader(h string, headerMap map[string]string) (string, bool) {
	c := canonicalHeader(h, headerMap)
	for _, k := range CanonicalColumns {
		if c == k {
			return c, true
		}
	}
	return c, false
}
