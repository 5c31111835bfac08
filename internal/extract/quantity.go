package extract

import (
	"strconv"
	"unicode"

	"github.com/ppiankov/carbontally/internal/model"
)

// Quantity is a number read together with the unit written after it
type Quantity struct {
	Value float64
	Kind  model.UnitKind
	Unit  string // Singular unit token as written (e.g., "kg", "slice")
	Found bool
}

// unitToken is one entry of the unit grammar
type unitToken struct {
	text string
	unit string
	kind model.UnitKind
}

// unitTokens is ordered so that longer tokens are tried before their prefixes
var unitTokens = []unitToken{
	{"kwh", "kwh", model.UnitEnergy},
	{"kw", "kw", model.UnitEnergy},
	{"kms", "km", model.UnitDistance},
	{"km", "km", model.UnitDistance},
	{"kg", "kg", model.UnitMass},
	{"gm", "gm", model.UnitMass},
	{"g", "g", model.UnitMass},
	{"m3", "m3", model.UnitVolume},
	{"slices", "slice", model.UnitServing},
	{"slice", "slice", model.UnitServing},
	{"servings", "serving", model.UnitServing},
	{"serving", "serving", model.UnitServing},
	{"meals", "meal", model.UnitServing},
	{"meal", "meal", model.UnitServing},
	{"pieces", "piece", model.UnitServing},
	{"piece", "piece", model.UnitServing},
}

// KindOf returns the unit kind of a unit token, or UnitNone
func KindOf(unit string) model.UnitKind {
	for _, tok := range unitTokens {
		if tok.text == unit || tok.unit == unit {
			return tok.kind
		}
	}
	return model.UnitNone
}

// ExtractQuantity finds the first number that is immediately followed
// (optionally after whitespace) by a unit token:
//
//	NUMBER (INT | DECIMAL | FRACTION) WHITESPACE? UNIT_TOKEN
//
// Numbers without a unit and malformed fractions are skipped. The input is
// expected to be folded already (see Fold).
func ExtractQuantity(text string) Quantity {
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if !unicode.IsDigit(runes[i]) {
			continue
		}
		// Digits glued to letters belong to a word ("co2", "m3")
		if i > 0 && (unicode.IsLetter(runes[i-1]) || unicode.IsDigit(runes[i-1]) || runes[i-1] == '.') {
			continue
		}
		// Tail of a grouped or comma-decimal number ("1,5 kg") is not a quantity of its own
		if i > 1 && runes[i-1] == ',' && unicode.IsDigit(runes[i-2]) {
			continue
		}

		value, end, ok := scanNumber(runes, i)
		if !ok {
			i = end
			continue
		}

		j := end
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}

		if tok, ok := matchUnit(runes, j); ok {
			return Quantity{
				Value: value,
				Kind:  tok.kind,
				Unit:  tok.unit,
				Found: true,
			}
		}

		i = end
	}

	return Quantity{}
}

// scanNumber reads INT, DECIMAL or FRACTION starting at start.
// It returns the value, the index just past the token, and whether the
// token parsed to a usable positive number.
func scanNumber(runes []rune, start int) (float64, int, bool) {
	end := scanDigits(runes, start)

	switch {
	case end+1 < len(runes) && runes[end] == '.' && unicode.IsDigit(runes[end+1]):
		end = scanDigits(runes, end+1)
		value, err := strconv.ParseFloat(string(runes[start:end]), 64)
		if err != nil {
			return 0, end, false
		}
		return value, end, value > 0

	case end < len(runes) && runes[end] == '/':
		numerator := string(runes[start:end])
		if end+1 >= len(runes) || !unicode.IsDigit(runes[end+1]) {
			return 0, end + 1, false
		}
		denomEnd := scanDigits(runes, end+1)
		num, err := strconv.ParseFloat(numerator, 64)
		if err != nil {
			return 0, denomEnd, false
		}
		den, err := strconv.ParseFloat(string(runes[end+1:denomEnd]), 64)
		if err != nil || den == 0 {
			return 0, denomEnd, false
		}
		value := num / den
		return value, denomEnd, value > 0
	}

	value, err := strconv.ParseFloat(string(runes[start:end]), 64)
	if err != nil {
		return 0, end, false
	}
	return value, end, value > 0
}

// scanDigits returns the index of the first non-ASCII-digit rune at or after i
func scanDigits(runes []rune, i int) int {
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}
	return i
}

// matchUnit matches a unit token at position i that ends on a word boundary
func matchUnit(runes []rune, i int) (unitToken, bool) {
	for _, tok := range unitTokens {
		tr := []rune(tok.text)
		end := i + len(tr)
		if end > len(runes) {
			continue
		}
		if string(runes[i:end]) != tok.text {
			continue
		}
		if end < len(runes) && (unicode.IsLetter(runes[end]) || unicode.IsDigit(runes[end])) {
			continue
		}
		return tok, true
	}
	return unitToken{}, false
}
