package service

import "strings"

// normalize trims surrounding whitespace and upper-cases an identifying
// field.  Applied to every field before storage and before lookup, so
// case-insensitive identity holds on every path by construction instead
// of being re-folded at each call site.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
