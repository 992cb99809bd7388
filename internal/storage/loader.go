package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn writes one batch of rows (aligned to columns) and returns the number
// of rows the backend reports as written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadRows splits rows into batches of batchSize and calls copyFn for each,
// in order. It stops at the first failing batch and returns the rows written
// so far with that error. A canceled ctx is checked between batches.
//
// label only tags the progress log lines.
func LoadRows(
	ctx context.Context,
	label string,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total int64
		start = time.Now()
		last  = start
	)
	for i, batch := 0, 1; i < len(rows); i, batch = i+batchSize, batch+1 {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := min(i+batchSize, len(rows))
		n, err := copyFn(ctx, columns, rows[i:end])
		total += n
		if err != nil {
			log.Printf("loader: table=%s batch #%d failed written=%d total=%d err=%v", label, batch, n, total, err)
			return total, err
		}

		now := time.Now()
		rps := float64(0)
		if d := now.Sub(last); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Printf("batch #%d: table=%s rps=%.0f inserted=%d total_inserted=%d/%d elapsed=%s",
			batch, label, rps, n, total, len(rows), now.Sub(start).Truncate(time.Millisecond))
		last = now
	}
	return total, nil
}
