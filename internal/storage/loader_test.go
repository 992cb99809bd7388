package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func intRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i}
	}
	return rows
}

func TestLoadRows(t *testing.T) {
	t.Parallel()

	boom := errors.New("constraint violation")
	cases := []struct {
		name      string
		rows      int
		batch     int
		failAt    int // 1-based batch number that fails; 0 = none
		wantSizes []int
		wantTotal int64
		wantErr   error
	}{
		{name: "exact multiple", rows: 6, batch: 3, wantSizes: []int{3, 3}, wantTotal: 6},
		{name: "remainder", rows: 10, batch: 4, wantSizes: []int{4, 4, 2}, wantTotal: 10},
		{name: "single batch", rows: 2, batch: 100, wantSizes: []int{2}, wantTotal: 2},
		{name: "empty", rows: 0, batch: 5, wantTotal: 0},
		{name: "stops after failure", rows: 10, batch: 4, failAt: 2, wantSizes: []int{4, 4}, wantTotal: 4, wantErr: boom},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			var sizes []int
			copyFn := func(_ context.Context, cols []string, b [][]any) (int64, error) {
				if !reflect.DeepEqual(cols, []string{"c"}) {
					t.Errorf("columns = %v", cols)
				}
				sizes = append(sizes, len(b))
				if len(sizes) == c.failAt {
					return 0, boom
				}
				return int64(len(b)), nil
			}
			total, err := LoadRows(context.Background(), "t", []string{"c"}, intRows(c.rows), c.batch, copyFn)
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("err = %v, want %v", err, c.wantErr)
			}
			if total != c.wantTotal || !reflect.DeepEqual(sizes, c.wantSizes) {
				t.Fatalf("total=%d sizes=%v, want %d %v", total, sizes, c.wantTotal, c.wantSizes)
			}
		})
	}
}

// TestLoadRowsPreservesOrder checks batches cover the input in order with no
// overlap.
func TestLoadRowsPreservesOrder(t *testing.T) {
	t.Parallel()

	var seen []any
	copyFn := func(_ context.Context, _ []string, b [][]any) (int64, error) {
		for _, r := range b {
			seen = append(seen, r[0])
		}
		return int64(len(b)), nil
	}
	if _, err := LoadRows(context.Background(), "t", nil, intRows(7), 3, copyFn); err != nil {
		t.Fatal(err)
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("seen = %v", seen)
		}
	}
	if len(seen) != 7 {
		t.Fatalf("seen %d rows", len(seen))
	}
}

func TestLoadRowsCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	copyFn := func(_ context.Context, _ []string, b [][]any) (int64, error) {
		calls++
		cancel()
		return int64(len(b)), nil
	}
	total, err := LoadRows(ctx, "t", nil, intRows(9), 3, copyFn)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 || total != 3 {
		t.Fatalf("calls=%d total=%d", calls, total)
	}
}

func TestLoadRowsRejectsBadArgs(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }
	if _, err := LoadRows(context.Background(), "t", nil, intRows(1), 0, noop); err == nil {
		t.Fatal("expected error for zero batch size")
	}
	if _, err := LoadRows(context.Background(), "t", nil, intRows(1), 1, nil); err == nil {
		t.Fatal("expected error for nil copyFn")
	}
}
