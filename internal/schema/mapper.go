package schema

import (
	"fmt"
	"math"
	"strings"

	"ecomdw/internal/record"
	"ecomdw/internal/transformer/builtin"
)

// Projection is the star-schema shape of one batch.
type Projection struct {
	Customers []record.CustomerDim
	Products  []record.ProductDim
	Facts     []record.SalesFact
}

// Mapper projects clean records onto the three warehouse tables.
//
// Customers keep the first row per customer_id. Products are resolved per
// ProductPolicy, which defaults to keep-last (later rows for a product
// overwrite earlier ones). Facts are one per clean record.
type Mapper struct {
	ProductPolicy string
}

// Project returns the projection of in. It fails only on an unknown
// ProductPolicy.
func (m Mapper) Project(in []record.Clean) (Projection, error) {
	var p Projection

	customers, err := builtin.DeDup[record.Clean]{
		Key:    func(c record.Clean) (string, bool) { return c.CustomerID, true },
		Policy: builtin.KeepFirst,
	}.Apply(in)
	if err != nil {
		return p, err
	}
	p.Customers = make([]record.CustomerDim, 0, len(customers))
	for _, c := range customers {
		p.Customers = append(p.Customers, record.CustomerDim{CustomerID: c.CustomerID, Country: c.Country})
	}

	products, err := builtin.DeDup[record.Clean]{
		Key:    func(c record.Clean) (string, bool) { return c.StockCode, true },
		Policy: m.ProductPolicy,
		Score:  productScore(m.ProductPolicy),
	}.Apply(in)
	if err != nil {
		return p, fmt.Errorf("product policy: %w", err)
	}
	p.Products = make([]record.ProductDim, 0, len(products))
	for _, c := range products {
		p.Products = append(p.Products, record.ProductDim{
			ProductID:   c.StockCode,
			Description: c.Description,
			UnitPrice:   c.UnitPrice,
		})
	}

	p.Facts = make([]record.SalesFact, 0, len(in))
	for _, c := range in {
		p.Facts = append(p.Facts, record.SalesFact{
			InvoiceNo:      c.InvoiceNo,
			CustomerID:     c.CustomerID,
			ProductID:      c.StockCode,
			Quantity:       c.Quantity,
			TotalItemPrice: c.TotalItemPrice,
			InvoiceDate:    c.InvoiceTimestamp,
		})
	}
	return p, nil
}

func productScore(policy string) func(record.Clean) int64 {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case builtin.MostComplete:
		return func(c record.Clean) int64 {
			var s int64
			if c.Description != nil && *c.Description != "" {
				s++
			}
			if !c.UnitPrice.IsZero() {
				s++
			}
			return s
		}
	case builtin.MostRecent:
		return func(c record.Clean) int64 {
			if c.InvoiceTimestamp == nil {
				return math.MinInt64
			}
			return c.InvoiceTimestamp.UnixNano()
		}
	}
	return nil
}
