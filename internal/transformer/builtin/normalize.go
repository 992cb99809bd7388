package builtin

import "strings"

// NormalizeText replaces mis-decoded and real no-break spaces with ASCII
// spaces and trims surrounding whitespace.
func NormalizeText(s string) string {
	if strings.ContainsRune(s, '\u00a0') {
		s = strings.ReplaceAll(s, "\u00c2\u00a0", " ")
		s = strings.ReplaceAll(s, "\u00a0", " ")
	}
	return strings.TrimSpace(s)
}

// Optional returns nil for a blank cell and a pointer to the normalized text
// otherwise.
func Optional(s string) *string {
	s = NormalizeText(s)
	if s == "" {
		return nil
	}
	return &s
}
