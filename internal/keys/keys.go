// Package keys generates the surrogate keys used by the warehouse.
//
// A Hasher maps a business value (the customer reference) to a stable,
// collision-resistant 128-bit key rendered as lowercase hex. The same input
// always yields the same key, across runs and across dimension/fact rows.
package keys

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Hasher computes a surrogate key for a string value.
type Hasher interface {
	Key(s string) string
	Name() string
}

// MD5 is the default hasher. Its output matches the keys already present in
// warehouses populated by earlier versions of the pipeline.
type MD5 struct{}

func (MD5) Name() string { return "md5" }

func (MD5) Key(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// XXH3 renders the 128-bit XXH3 hash of the value.
type XXH3 struct{}

func (XXH3) Name() string { return "xxh3" }

func (XXH3) Key(s string) string {
	b := xxh3.HashString128(s).Bytes()
	return hex.EncodeToString(b[:])
}

// ByName returns the hasher registered under name. An empty name selects MD5.
func ByName(name string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return MD5{}, nil
	case "xxh3", "xxh3-128":
		return XXH3{}, nil
	default:
		return nil, fmt.Errorf("keys: unknown hasher %q", name)
	}
}
