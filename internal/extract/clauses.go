package extract

import (
	"strings"
	"unicode"
)

// clauseConjunction joins two activities inside one sentence
const clauseConjunction = "and"

// SplitClauses splits folded text into activity clauses on ",", ";" and
// the word "and". A comma between two digits ("1,5") is kept as part of
// the number. Empty clauses are dropped; order follows the input.
func SplitClauses(text string) []string {
	var clauses []string
	var current strings.Builder

	flush := func() {
		clauses = append(clauses, splitOnConjunction(current.String())...)
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		switch r {
		case ';':
			flush()
			continue
		case ',':
			if i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
				break
			}
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()

	return clauses
}

// splitOnConjunction splits a clause on standalone "and" words
func splitOnConjunction(text string) []string {
	var parts []string
	var words []string

	for _, field := range strings.Fields(text) {
		if field == clauseConjunction {
			if len(words) > 0 {
				parts = append(parts, strings.Join(words, " "))
			}
			words = words[:0]
			continue
		}
		words = append(words, field)
	}
	if len(words) > 0 {
		parts = append(parts, strings.Join(words, " "))
	}

	return parts
}
