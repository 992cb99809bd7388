package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"ecomdw/internal/record"
	"ecomdw/internal/transformer/builtin"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ReadStats counts reader-level events.
type ReadStats struct {
	Rows             int // rows returned
	SkippedRows      int // malformed rows dropped
	CoercionWarnings int // numeric cells that did not parse and were read as missing
}

// ReadRaw reads the raw extract. The header must name invoice and stock
// code columns; every other column is optional. A header-only input yields no
// rows and no error.
func ReadRaw(r io.Reader, opt Options) ([]record.Raw, ReadStats, error) {
	var st ReadStats

	dr, err := Decode(r, opt.Encoding)
	if err != nil {
		return nil, st, err
	}
	cr := csv.NewReader(dr)
	cr.Comma = opt.comma()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, st, nil
	}
	if err != nil {
		return nil, st, fmt.Errorf("read csv header: %w", err)
	}
	idx := indexHeaders(hdr, opt.HeaderMap)
	for _, req := range []string{ColInvoiceNo, ColStockCode} {
		if _, ok := idx[req]; !ok {
			return nil, st, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	cell := func(rec []string, col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return "", false
		}
		return rec[i], true
	}
	optional := func(rec []string, col string) *string {
		v, ok := cell(rec, col)
		if !ok {
			return nil
		}
		return builtin.Optional(v)
	}

	var out []record.Raw
	limit := opt.maxLogged()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if st.SkippedRows < limit {
				log.Printf("reader: skipping row: %v", err)
			}
			st.SkippedRows++
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(hdr) {
			if st.SkippedRows < limit {
				log.Printf("reader: skipping line=%d: expected %d fields, got %d", line, len(hdr), len(rec))
			}
			st.SkippedRows++
			continue
		}

		raw := record.Raw{
			Description:      optional(rec, ColDescription),
			CustomerRef:      optional(rec, ColCustomer),
			Country:          optional(rec, ColCountry),
			InvoiceTimestamp: optional(rec, ColInvoiceDate),
			Line:             line,
		}
		if v, ok := cell(rec, ColInvoiceNo); ok {
			raw.InvoiceNo = builtin.NormalizeText(v)
		}
		if v, ok := cell(rec, ColStockCode); ok {
			raw.StockCode = builtin.NormalizeText(v)
		}
		if v, ok := cell(rec, ColQuantity); ok {
			q, err := builtin.ParseInt(v)
			switch {
			case err == nil:
				raw.Quantity = &q
			case !errors.Is(err, builtin.ErrEmpty):
				st.CoercionWarnings++
				if st.CoercionWarnings <= limit {
					log.Printf("reader: line=%d quantity %q read as missing", line, strings.TrimSpace(v))
				}
			}
		}
		if v, ok := cell(rec, ColUnitPrice); ok {
			p, err := builtin.ParseDecimal(v)
			switch {
			case err == nil:
				raw.UnitPrice = &p
			case !errors.Is(err, builtin.ErrEmpty):
				st.CoercionWarnings++
				if st.CoercionWarnings <= limit {
					log.Printf("reader: line=%d unit_price %q read as missing", line, strings.TrimSpace(v))
				}
			}
		}
		out = append(out, raw)
	}
	st.Rows = len(out)
	if st.SkippedRows > 0 || st.CoercionWarnings > 0 {
		log.Printf("reader: rows=%d skipped=%d coercion_warnings=%d", st.Rows, st.SkippedRows, st.CoercionWarnings)
	}
	return out, st, nil
}
