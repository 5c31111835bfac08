package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes text for matching: NFKC (so "m³" reads as "m3"),
// case folding, and collapsed whitespace.
func Fold(text string) string {
	text = norm.NFKC.String(text)
	// Casers are stateful, so build one per call
	text = cases.Fold().String(text)
	return strings.Join(strings.Fields(text), " ")
}

// Words returns the alphabetic tokens of text, in order
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
