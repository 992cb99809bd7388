package loader

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"
)

// Fingerprint returns the hex XXH3-128 of a table's rows. Equal contents in
// the same order yield equal fingerprints.
func Fingerprint(table string, columns []string, rows [][]any) string {
	h := xxh3.New()
	_, _ = h.WriteString(table)
	for _, c := range columns {
		_, _ = h.WriteString("\x1f" + c)
	}
	for _, row := range rows {
		_, _ = h.WriteString("\x1e")
		for _, v := range row {
			_, _ = h.WriteString("\x1f")
			_, _ = h.WriteString(canonical(v))
		}
	}
	b := h.Sum128().Bytes()
	return hex.EncodeToString(b[:])
}

func canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
