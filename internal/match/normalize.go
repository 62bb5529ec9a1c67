package match

import (
	"strings"
	"unicode"
)

// NormalizeName normalizes a master name for fuzzy matching.
// The normalization pipeline:
// 1. Case-fold to lower.
// 2. Drop every non-alphanumeric rune (spaces, slashes, punctuation).
//
// "Rounded Rectangle", "rounded-rectangle", and "RoundedRectangle" all
// normalize to "roundedrectangle"; "Start/End" normalizes to "startend".
func NormalizeName(s string) string {
	var result strings.Builder

	result.Grow(len(s))

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(unicode.ToLower(r))
		}
	}

	return result.String()
}
