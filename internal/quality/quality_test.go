package quality

import (
	"errors"
	"reflect"
	"testing"

	"ecomdw/internal/record"
)

func TestEmptyDatasetAlwaysFails(t *testing.T) {
	t.Parallel()

	for _, g := range []Gate{RawGate(1), CleanGate(1), CleanGate(0)} {
		rep, err := g.ValidateOrFail(CleanRows(nil), "cleaned")
		var dq *DataQualityError
		if !errors.As(err, &dq) {
			t.Fatalf("want *DataQualityError, got %v", err)
		}
		if rep.Passed || dq.Report.Stage != "cleaned" {
			t.Fatalf("report = %+v", dq.Report)
		}
		if !reflect.DeepEqual(dq.Report.FailureReasons, []string{"dataset is empty"}) {
			t.Fatalf("reasons = %v", dq.Report.FailureReasons)
		}
	}
}

func TestPopulatedDatasetPasses(t *testing.T) {
	t.Parallel()

	rows := CleanRows{
		{InvoiceNo: "A1", StockCode: "S1", Quantity: 2, CustomerID: "x"},
		{InvoiceNo: "A1", StockCode: "S2", Quantity: 0, CustomerID: "x"},
	}
	rep, err := CleanGate(1).ValidateOrFail(rows, "cleaned")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Passed || len(rep.FailureReasons) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestCleanGateItemizesViolations(t *testing.T) {
	t.Parallel()

	rows := RawRows{
		{InvoiceNo: "A1", StockCode: "S1", Quantity: record.Int(1), Line: 2},
		{InvoiceNo: "", StockCode: "S1", Quantity: record.Int(-1), Line: 3},
		{InvoiceNo: "A3", StockCode: "S3", Quantity: record.Int(-5), Line: 4},
		{InvoiceNo: "A4", StockCode: "", Line: 5},
	}
	rep := CleanGate(1).Validate(rows, "cleaned")
	want := []string{
		"1 row has null invoice_no (first at line 3)",
		"1 row has null stock_code (first at line 5)",
		"2 rows have negative quantity (first at line 3)",
	}
	if rep.Passed || !reflect.DeepEqual(rep.FailureReasons, want) {
		t.Fatalf("reasons = %q, want %q", rep.FailureReasons, want)
	}
}

func TestRawGateIgnoresNegativeQuantity(t *testing.T) {
	t.Parallel()

	rows := RawRows{{InvoiceNo: "C1", StockCode: "S1", Quantity: record.Int(-3)}}
	if rep := RawGate(1).Validate(rows, "raw"); !rep.Passed {
		t.Fatalf("raw gate should pass: %+v", rep)
	}
}

func TestMinRows(t *testing.T) {
	t.Parallel()

	rows := CleanRows{{InvoiceNo: "A", StockCode: "S"}}
	rep := RawGate(3).Validate(rows, "raw")
	if rep.Passed || rep.FailureReasons[0] != "dataset has 1 rows, need at least 3" {
		t.Fatalf("report = %+v", rep)
	}
}

func TestGateDoesNotMutate(t *testing.T) {
	t.Parallel()

	rows := CleanRows{{InvoiceNo: "A", StockCode: "S", Quantity: -1}}
	CleanGate(1).Validate(rows, "cleaned")
	if rows[0].Quantity != -1 {
		t.Fatal("input mutated")
	}
}

func TestReasonWithoutLineFallsBackToRow(t *testing.T) {
	t.Parallel()

	rows := CleanRows{{InvoiceNo: "A", StockCode: "S"}, {InvoiceNo: "B", StockCode: "S", Quantity: -2}}
	rep := CleanGate(1).Validate(rows, "cleaned")
	if len(rep.FailureReasons) != 1 || rep.FailureReasons[0] != "1 row has negative quantity (first at row 2)" {
		t.Fatalf("reasons = %q", rep.FailureReasons)
	}
}

func TestDataQualityErrorMessage(t *testing.T) {
	t.Parallel()

	err := &DataQualityError{Report: Report{Stage: "raw", FailureReasons: []string{"a", "b"}}}
	if got := err.Error(); got != `data quality check failed at stage "raw": a; b` {
		t.Fatalf("Error() = %q", got)
	}
}
