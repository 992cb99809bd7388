// Package quality implements the data-quality gate that a dataset must pass
// before it moves to the next pipeline stage.
//
// A Gate evaluates every rule and reports each violation separately, so an
// empty extract is distinguishable from an integrity problem. The gate never
// mutates its input.
package quality

import (
	"fmt"
	"strings"

	"ecomdw/internal/record"
)

// Row is the view of a record that the rules inspect.
type Row struct {
	InvoiceNo string
	StockCode string
	Quantity  *int64 // nil when missing
	Line      int
}

// Dataset is a read-only, indexable batch of rows.
type Dataset interface {
	Len() int
	Row(i int) Row
}

// RawRows adapts extracted rows to a Dataset.
type RawRows []record.Raw

func (r RawRows) Len() int { return len(r) }

func (r RawRows) Row(i int) Row {
	x := r[i]
	return Row{InvoiceNo: x.InvoiceNo, StockCode: x.StockCode, Quantity: x.Quantity, Line: x.Line}
}

// CleanRows adapts cleaned rows to a Dataset.
type CleanRows []record.Clean

func (c CleanRows) Len() int { return len(c) }

func (c CleanRows) Row(i int) Row {
	x := c[i]
	q := x.Quantity
	return Row{InvoiceNo: x.InvoiceNo, StockCode: x.StockCode, Quantity: &q, Line: x.Line}
}

// Report is the outcome of one gate evaluation.
type Report struct {
	Passed         bool
	Stage          string
	FailureReasons []string
}

// DataQualityError is returned by ValidateOrFail when a gate does not pass.
type DataQualityError struct {
	Report Report
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality check failed at stage %q: %s",
		e.Report.Stage, strings.Join(e.Report.FailureReasons, "; "))
}

// Rule checks a dataset and returns a failure reason, or "" when it holds.
type Rule struct {
	Name  string
	Check func(Dataset) string
}

// Gate is an ordered set of rules.
type Gate struct {
	Rules []Rule
}

// Validate evaluates every rule in order. Reasons follow rule order.
func (g Gate) Validate(ds Dataset, stage string) Report {
	rep := Report{Stage: stage}
	for _, r := range g.Rules {
		if reason := r.Check(ds); reason != "" {
			rep.FailureReasons = append(rep.FailureReasons, reason)
		}
	}
	rep.Passed = len(rep.FailureReasons) == 0
	return rep
}

// ValidateOrFail is Validate returning *DataQualityError when the report did
// not pass. The report is returned in both cases.
func (g Gate) ValidateOrFail(ds Dataset, stage string) (Report, error) {
	rep := g.Validate(ds, stage)
	if !rep.Passed {
		return rep, &DataQualityError{Report: rep}
	}
	return rep, nil
}

// RawGate is applied to extracted rows: the dataset must be non-empty.
func RawGate(minRows int) Gate {
	return Gate{Rules: []Rule{MinRows(minRows)}}
}

// CleanGate is applied after cleaning: non-empty, keys present and
// quantities non-negative.
func CleanGate(minRows int) Gate {
	return Gate{Rules: []Rule{
		MinRows(minRows),
		NotNull("invoice_no", func(r Row) bool { return r.InvoiceNo != "" }),
		NotNull("stock_code", func(r Row) bool { return r.StockCode != "" }),
		NonNegativeQuantity(),
	}}
}
