// Package csv reads the raw sales extract and reads and writes the clean
// intermediate artifact passed between the transform and load stages.
//
// The reader is tolerant: header names are matched loosely, malformed rows
// are skipped and counted, and unparseable numeric cells are read as missing
// so the cleaner applies its defaults.
package csv

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options configures the readers. The zero value reads comma-separated UTF-8.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune

	// Encoding names the source charset: "utf-8" (default), "windows-1252"
	// or "iso-8859-1".
	Encoding string

	// HeaderMap maps source header names to canonical column names and takes
	// precedence over the built-in aliases.
	HeaderMap map[string]string

	// MaxLoggedErrors caps per-row log lines; further skips are only counted.
	MaxLoggedErrors int
}

const defaultMaxLoggedErrors = 400

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

func (o Options) maxLogged() int {
	if o.MaxLoggedErrors <= 0 {
		return defaultMaxLoggedErrors
	}
	return o.MaxLoggedErrors
}

// Decode wraps r with a decoder for the named charset. UTF-8 input has a
// leading byte-order mark removed.
func Decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1", "latin-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", encoding)
	}
}

// SupportedEncoding reports whether Decode accepts name.
func SupportedEncoding(name string) bool {
	_, err := Decode(strings.NewReader(""), name)
	return err == nil
}
