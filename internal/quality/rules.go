package quality

import "fmt"

// MinRows requires at least n rows; n below 1 is treated as 1.
func MinRows(n int) Rule {
	if n < 1 {
		n = 1
	}
	return Rule{
		Name: "min_rows",
		Check: func(ds Dataset) string {
			switch got := ds.Len(); {
			case got == 0:
				return "dataset is empty"
			case got < n:
				return fmt.Sprintf("dataset has %d rows, need at least %d", got, n)
			}
			return ""
		},
	}
}

// NotNull requires present(row) for every row.
func NotNull(column string, present func(Row) bool) Rule {
	return Rule{
		Name: "not_null_" + column,
		Check: func(ds Dataset) string {
			return countViolations(ds, func(r Row) bool { return !present(r) }, "null "+column)
		},
	}
}

// NonNegativeQuantity rejects rows with quantity < 0. Missing quantities pass.
func NonNegativeQuantity() Rule {
	return Rule{
		Name: "non_negative_quantity",
		Check: func(ds Dataset) string {
			return countViolations(ds, func(r Row) bool {
				return r.Quantity != nil && *r.Quantity < 0
			}, "negative quantity")
		},
	}
}

func countViolations(ds Dataset, bad func(Row) bool, what string) string {
	n, firstLine, firstIdx := 0, 0, -1
	for i := 0; i < ds.Len(); i++ {
		r := ds.Row(i)
		if !bad(r) {
			continue
		}
		if n == 0 {
			firstLine, firstIdx = r.Line, i
		}
		n++
	}
	if n == 0 {
		return ""
	}
	noun := "rows have"
	if n == 1 {
		noun = "row has"
	}
	if firstLine > 0 {
		return fmt.Sprintf("%d %s %s (first at line %d)", n, noun, what, firstLine)
	}
	return fmt.Sprintf("%d %s %s (first at row %d)", n, noun, what, firstIdx+1)
}
