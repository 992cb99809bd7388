package builtin

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmpty is returned by the parse helpers for a blank cell.
var ErrEmpty = errors.New("empty value")

// ParseInt parses an integer cell. Values written by spreadsheet exports as
// whole floats ("2.0") are accepted; fractional values are rejected.
func ParseInt(s string) (int64, error) {
	s = NormalizeText(s)
	if s == "" {
		return 0, ErrEmpty
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse int %q: %w", s, err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("parse int %q: not a whole number", s)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("parse int %q: out of int64 range", s)
	}
	return int64(f), nil
}

// ParseDecimal parses a decimal cell exactly.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = NormalizeText(s)
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// ParseTime tries each layout in order and returns the first successful parse.
func ParseTime(s string, layouts []string) (time.Time, error) {
	s = NormalizeText(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: no layout matched", s)
}

// ParseBool accepts the usual truthy/falsy spellings.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(NormalizeText(s)) {
	case "1", "t", "true", "yes", "y":
		return true, nil
	case "0", "f", "false", "no", "n":
		return false, nil
	case "":
		return false, ErrEmpty
	}
	return false, fmt.Errorf("parse bool %q: unrecognized", s)
}
