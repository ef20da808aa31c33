package game

import "github.com/pmezard/go-difflib/difflib"

// Similarity returns the sequence-matcher ratio 2*M/T of a and b, where M is
// the number of runes in the matching blocks and T the combined length.
// Two empty strings are identical (1.0).
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
