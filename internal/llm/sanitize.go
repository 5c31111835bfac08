package llm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/carbontally/internal/model"
)

// ErrFigureMismatch is returned when a reply states a kg figure that was
// not computed
var ErrFigureMismatch = errors.New("reply states a CO2 figure that was not computed")

// kgFigure matches numbers written before a kg unit ("1.00 kg", "1,234.5kg")
var kgFigure = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*kg\b`)

// PlainText strips markup from a model reply: tags are dropped, entities
// decoded, script and style bodies removed and whitespace collapsed
func PlainText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.Join(strings.Fields(b.String()), " ")
			}
			return strings.Join(strings.Fields(s), " ")

		case html.StartTagToken:
			if isRawBody(z) {
				skip++
			}
			b.WriteByte(' ')

		case html.EndTagToken:
			if isRawBody(z) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')

		case html.SelfClosingTagToken:
			b.WriteByte(' ')

		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawBody(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// VerifyFigures checks that every "<number> kg" in reply matches a computed
// CO2 value, quantity or the running total to two decimals
func VerifyFigures(reply string, acts []model.ParsedActivity, total float64) error {
	allowed := []float64{math.Abs(total)}
	for _, a := range acts {
		allowed = append(allowed, math.Abs(a.CO2), a.Quantity)
	}

	for _, m := range kgFigure.FindAllStringSubmatch(reply, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if !matchesAny(v, allowed) {
			return fmt.Errorf("%w: %s", ErrFigureMismatch, strings.TrimSpace(m[0]))
		}
	}
	return nil
}

func matchesAny(v float64, allowed []float64) bool {
	for _, a := range allowed {
		if math.Abs(v-a) < 0.0051 {
			return true
		}
	}
	return false
}
