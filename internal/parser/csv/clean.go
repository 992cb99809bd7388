package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"ecomdw/internal/record"
	"ecomdw/internal/transformer/builtin"
)

// CleanHeader is the column layout of the clean artifact: the raw extract's
// columns followed by the two derived ones.
var CleanHeader = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate",
	"UnitPrice", "CustomerID", "Country", "total_item_price", "customer_id",
}

// WriteClean writes recs as a comma-separated artifact with CleanHeader.
// Anonymous customers are written as the "UNKNOWN" sentinel and timestamps
// as RFC 3339 with fractional seconds.
func WriteClean(w io.Writer, recs []record.Clean) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CleanHeader); err != nil {
		return fmt.Errorf("write clean header: %w", err)
	}
	row := make([]string, len(CleanHeader))
	for _, c := range recs {
		row[0] = c.InvoiceNo
		row[1] = c.StockCode
		row[2] = deref(c.Description)
		row[3] = fmt.Sprint(c.Quantity)
		row[4] = ""
		if c.InvoiceTimestamp != nil {
			row[4] = c.InvoiceTimestamp.Format(time.RFC3339Nano)
		}
		row[5] = c.UnitPrice.String()
		row[6] = c.Customer.String()
		row[7] = deref(c.Country)
		row[8] = c.TotalItemPrice.String()
		row[9] = c.CustomerID
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write clean row %s/%s: %w", c.InvoiceNo, c.StockCode, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadClean reads an artifact produced by WriteClean. Unlike ReadRaw it is
// strict: any malformed row is an error.
func ReadClean(r io.Reader) ([]record.Clean, error) {
	dr, err := Decode(r, "utf-8")
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(dr)
	cr.FieldsPerRecord = len(CleanHeader)

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read clean header: %w", err)
	}
	for i, h := range CleanHeader {
		if hdr[i] != h {
			return nil, fmt.Errorf("clean header column %d = %q, want %q", i+1, hdr[i], h)
		}
	}

	var out []record.Clean
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read clean artifact: %w", err)
		}
		line, _ := cr.FieldPos(0)
		c, err := parseClean(rec)
		if err != nil {
			return nil, fmt.Errorf("clean artifact line %d: %w", line, err)
		}
		c.Line = line
		out = append(out, c)
	}
}

func parseClean(rec []string) (record.Clean, error) {
	c := record.Clean{
		InvoiceNo:   rec[0],
		StockCode:   rec[1],
		Description: builtin.Optional(rec[2]),
		Country:     builtin.Optional(rec[7]),
		CustomerID:  rec[9],
	}
	var err error
	if c.Quantity, err = builtin.ParseInt(rec[3]); err != nil {
		return c, fmt.Errorf("quantity: %w", err)
	}
	if rec[4] != "" {
		t, err := time.Parse(time.RFC3339Nano, rec[4])
		if err != nil {
			return c, fmt.Errorf("invoice date: %w", err)
		}
		c.InvoiceTimestamp = &t
	}
	if c.UnitPrice, err = builtin.ParseDecimal(rec[5]); err != nil {
		return c, fmt.Errorf("unit price: %w", err)
	}
	if c.TotalItemPrice, err = builtin.ParseDecimal(rec[8]); err != nil {
		return c, fmt.Errorf("total item price: %w", err)
	}
	if rec[6] == "" || rec[6] == record.AnonymousSentinel {
		c.Customer = record.Anonymous()
	} else {
		c.Customer = record.Identified(rec[6])
	}
	return c, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
