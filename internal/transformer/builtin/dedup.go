// Package builtin contains reusable transformers used by the sales pipeline.
//
// DeDup is the policy-driven de-duplication step. It collapses records that
// share a business key and chooses a winner according to a policy:
//
//   - "keep-first"   : keep the earliest occurrence in the batch
//   - "keep-last"    : keep the latest occurrence in the batch (default)
//   - "most-complete": keep the record with the highest Score;
//     ties break by "keep-last"
//   - "most-recent"  : same selection as "most-complete", with Score
//     expected to rank by recency (e.g. a timestamp in Unix nanoseconds)
//
// This runs in-memory on a single batch (slice) of records.
package builtin

import (
	"fmt"
	"sort"
	"strings"
)

// Policy names accepted by DeDup.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
	MostRecent   = "most-recent"
)

// DeDup implements a configurable, in-memory de-duplication policy over any
// record type.
type DeDup[T any] struct {
	// Key returns the business key of a record. Records for which ok is false
	// are passed through after the winners, in input order.
	Key func(T) (key string, ok bool)

	// Policy selects the winner among duplicates (default "keep-last").
	Policy string

	// Score ranks candidates for "most-complete" and "most-recent".
	// Higher wins.
	Score func(T) int64
}

// ValidPolicy reports whether p names a DeDup policy ("" counts as keep-last).
func ValidPolicy(p string) bool {
	switch normalizePolicy(p) {
	case KeepFirst, KeepLast, MostComplete, MostRecent:
		return true
	}
	return false
}

func normalizePolicy(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return KeepLast
	}
	return p
}

// Apply returns a new slice containing only the winning record for each key.
// Winners are ordered by the input position of the winning record.
func (d DeDup[T]) Apply(in []T) ([]T, error) {
	if len(in) == 0 || d.Key == nil {
		return in, nil
	}

	policy := normalizePolicy(d.Policy)
	switch policy {
	case KeepFirst, KeepLast:
	case MostComplete, MostRecent:
		if d.Score == nil {
			return nil, fmt.Errorf("dedup: policy %q needs a Score func", policy)
		}
	default:
		return nil, fmt.Errorf("dedup: unknown policy %q", d.Policy)
	}

	type slot struct {
		index int
		score int64
	}
	winners := make(map[string]slot, len(in))
	var passthrough []int

	for i, r := range in {
		key, ok := d.Key(r)
		if !ok {
			passthrough = append(passthrough, i)
			continue
		}
		switch policy {
		case KeepFirst:
			if _, exists := winners[key]; !exists {
				winners[key] = slot{index: i}
			}
		case MostComplete, MostRecent:
			s := slot{index: i, score: d.Score(r)}
			if prev, exists := winners[key]; !exists || s.score >= prev.score {
				// later record wins ties
				winners[key] = s
			}
		default:
			winners[key] = slot{index: i}
		}
	}

	indexes := make([]int, 0, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
	}
	sort.Ints(indexes)

	out := make([]T, 0, len(indexes)+len(passthrough))
	for _, idx := range indexes {
		out = append(out, in[idx])
	}
	for _, idx := range passthrough {
		out = append(out, in[idx])
	}
	return out, nil
}
