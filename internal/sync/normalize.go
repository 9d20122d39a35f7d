package sync

import "strings"

// Normalize canonicalizes free text for comparison: any run of whitespace
// collapses to a single space, leading/trailing whitespace is trimmed and
// the result is lowercased. Total over all inputs; empty in, empty out.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
