// Package extract turns a landed raw export (an .xlsx workbook or a delimited
// text file with any common separator) into the comma-separated raw artifact
// read by the transform stage.
package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/jfyne/csvd"
	"github.com/tealeg/xlsx"

	"ecomdw/internal/datasource"
	"ecomdw/internal/quality"
)

// Stage is the label used for quality reports raised here.
const Stage = "extract"

// Format names.
const (
	FormatXLSX = "xlsx"
	FormatText = "text"
)

// Stats summarizes one extraction.
type Stats struct {
	Source    string
	Format    string
	Bytes     int
	HeaderRow int // 0-based index of the row used as header
	Rows      int // data rows written, header excluded
}

// Extract reads src fully, converts it and writes a comma-separated file with
// a single header row to out.
//
// A source that cannot be opened or read yields *datasource.UnavailableError.
// An extract without data rows yields *quality.DataQualityError.
func Extract(ctx context.Context, src datasource.Source, out io.Writer) (Stats, error) {
	st := Stats{Source: src.Name()}

	rc, err := datasource.Open(ctx, src)
	if err != nil {
		return st, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return st, &datasource.UnavailableError{Source: src.Name(), Err: err}
	}
	st.Bytes = len(b)
	st.Format = Detect(b)
	log.Printf("extract: source=%s bytes=%d format=%s", st.Source, st.Bytes, st.Format)

	var rows [][]string
	if len(b) > 0 {
		switch st.Format {
		case FormatXLSX:
			rows, err = readWorkbook(b)
		default:
			rows, err = readText(b)
		}
		if err != nil {
			return st, fmt.Errorf("extract %s: %w", st.Source, err)
		}
	}
	rows = trimBlank(rows)

	st.HeaderRow = headerIndex(rows)
	var data [][]string
	if st.HeaderRow < len(rows) {
		data = rows[st.HeaderRow+1:]
	}
	st.Rows = len(data)

	if _, err := quality.RawGate(1).ValidateOrFail(rowCount(st.Rows), Stage); err != nil {
		return st, err
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	w := csv.NewWriter(out)
	if err := w.Write(rows[st.HeaderRow]); err != nil {
		return st, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(data); err != nil {
		return st, fmt.Errorf("write rows: %w", err)
	}
	log.Printf("extract: wrote rows=%d header_row=%d", st.Rows, st.HeaderRow)
	return st, nil
}

// Detect classifies b as a workbook or delimited text.
func Detect(b []byte) string {
	kind, _ := filetype.Match(b)
	switch {
	case kind.Extension == FormatXLSX, kind.Extension == "zip":
		return FormatXLSX
	case kind == filetype.Unknown && http.DetectContentType(b) == "application/zip":
		return FormatXLSX
	}
	return FormatText
}

// workbookTimeLayout is how date-formatted workbook cells are written. It is
// the first of the cleaner's default layouts.
const workbookTimeLayout = "2006-01-02 15:04:05"

// readWorkbook returns the cells of the first sheet. Date cells and numbers
// are written from their stored value, not the sheet's display format, which
// can shorten years and round away minutes.
func readWorkbook(b []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}
	var rows [][]string
	for i, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		r := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			v, err := cellText(c, f.Date1904)
			if err != nil {
				return nil, fmt.Errorf("read workbook row %d col %d: %w", i+1, j+1, err)
			}
			r[j] = v
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func cellText(c *xlsx.Cell, date1904 bool) (string, error) {
	if c == nil {
		return "", nil
	}
	if c.Type() == xlsx.CellTypeNumeric && strings.TrimSpace(c.Value) != "" {
		if c.IsTime() {
			t, err := c.GetTime(date1904)
			if err != nil {
				return "", err
			}
			// serial day fractions land a few nanoseconds short of the minute
			return t.Round(time.Second).Format(workbookTimeLayout), nil
		}
		f, err := c.Float()
		if err != nil {
			return c.Value, nil
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	v, err := c.FormattedValue()
	if err != nil {
		return c.Value, nil
	}
	return v, nil
}

// readText sniffs the delimiter and reads every record.
func readText(b []byte) ([][]string, error) {
	r := csvd.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited text: %w", err)
	}
	return rows, nil
}

// headerIndex picks the first row with the most non-empty cells, skipping
// title rows that exports sometimes put above the header.
func headerIndex(rows [][]string) int {
	best, at := -1, 0
	for i, r := range rows {
		if n := nonEmpty(r); n > best {
			best, at = n, i
		}
	}
	return at
}

func nonEmpty(r []string) int {
	n := 0
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// trimBlank drops rows without any non-empty cell.
func trimBlank(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, r := range rows {
		if nonEmpty(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}

type rowCount int

func (n rowCount) Len() int          { return int(n) }
func (rowCount) Row(int) quality.Row { return quality.Row{} }
