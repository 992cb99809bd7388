// Package probe inspects a landed sales export and proposes a starter
// pipeline configuration: which source headers map onto the canonical
// columns, which required columns are missing, and which timestamp layout
// fits the invoice dates.
//
// The resulting config is intended to be hand-edited and then used with
// cmd/etl.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ecomdw/internal/config"
	"ecomdw/internal/datasource"
	"ecomdw/internal/extract"
	csvparser "ecomdw/internal/parser/csv"
	"ecomdw/internal/transformer"
)

// Options control sampling and the generated config.
type Options struct {
	// URI is a local path, file:// or s3:// URI.
	URI      string
	S3Region string

	// SampleRows caps the rows inspected (default 500).
	SampleRows int

	// Backend is the storage kind written into the generated config.
	Backend string

	// Job is the logical job name; defaults to config.DefaultJob.
	Job string
}

// HeaderMatch is one source header and the column it maps to.
type HeaderMatch struct {
	Source string `json:"source"`
	Column string `json:"column"`
	Known  bool   `json:"known"`
}

// Report is the probe outcome.
type Report struct {
	Source          string          `json:"source"`
	Format          string          `json:"format"`
	SampledRows     int             `json:"sampled_rows"`
	Headers         []HeaderMatch   `json:"headers"`
	Missing         []string        `json:"missing_required,omitempty"`
	TimestampLayout string          `json:"timestamp_layout,omitempty"`
	Config          config.Pipeline `json:"config"`
}

const defaultSampleRows = 500

// Probe opens opt.URI, normalizes it like the extract stage and inspects the
// header and the first rows.
func Probe(ctx context.Context, opt Options) (Report, error) {
	rep := Report{Source: opt.URI}
	src, err := datasource.Resolve(ctx, opt.URI, datasource.ResolveOptions{S3Region: opt.S3Region})
	if err != nil {
		return rep, err
	}
	var buf bytes.Buffer
	st, err := extract.Extract(ctx, src, &buf)
	rep.Format = st.Format
	if err != nil {
		return rep, err
	}
	hdr, rows, err := readSample(&buf, opt.SampleRows)
	if err != nil {
		return rep, err
	}
	rep.SampledRows = len(rows)
	return inspect(rep, hdr, rows, opt), nil
}

func readSample(r io.Reader, limit int) ([]string, [][]string, error) {
	if limit <= 0 {
		limit = defaultSampleRows
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	hdr, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for len(rows) < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, rec)
	}
	return hdr, rows, nil
}

func inspect(rep Report, hdr []string, rows [][]string, opt Options) Report {
	found := map[string]int{}
	headerMap := map[string]string{}
	for i, h := range hdr {
		col, known := csvparser.CanonicalHeader(h, nil)
		rep.Headers = append(rep.Headers, HeaderMatch{Source: h, Column: col, Known: known})
		if known {
			if _, dup := found[col]; !dup {
				found[col] = i
			}
			if strings.TrimSpace(h) != col {
				headerMap[strings.TrimSpace(h)] = col
			}
		}
	}
	for _, req := range []string{csvparser.ColInvoiceNo, csvparser.ColStockCode} {
		if _, ok := found[req]; !ok {
			rep.Missing = append(rep.Missing, req)
		}
	}

	var layouts []string
	if i, ok := found[csvparser.ColInvoiceDate]; ok {
		rep.TimestampLayout = selectBestLayout(column(rows, i), transformer.DefaultTimestampLayouts)
		if rep.TimestampLayout != "" {
			layouts = []string{rep.TimestampLayout}
		}
	}

	backend := opt.Backend
	if backend == "" {
		backend = "postgres"
	}
	rep.Config = config.Pipeline{
		Job:       opt.Job,
		Source:    config.Source{URI: opt.URI, S3Region: opt.S3Region},
		Parser:    config.Parser{HeaderMap: headerMap},
		Transform: config.Transform{TimestampLayouts: layouts},
		Storage:   config.Storage{Kind: backend, Schema: "sales", AutoCreateTables: true},
		Runtime:   config.RuntimeConfig{SerializeDimensionLoads: backend == "sqlite"},
	}
	config.ApplyDefaults(&rep.Config)
	return rep
}

// column returns the trimmed, non-empty values of column i.
func column(rows [][]string, i int) []string {
	var out []string
	for _, r := range rows {
		if i < len(r) {
			if v := strings.TrimSpace(r[i]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// selectBestLayout scores each candidate layout by how many samples it
// parses. On ties the layout that appears first wins.
func selectBestLayout(samples []string, layouts []string) string {
	best, bestScore := "", 0
	for _, lay := range layouts {
		score := 0
		for _, s := range samples {
			if _, err := time.Parse(lay, s); err == nil {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = lay, score
		}
	}
	return best
}
