package classify

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Ratio returns a similarity in [0, 1] derived from the edit distance:
// 1 - distance / max(len(a), len(b)), counted in runes.
func Ratio(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
