// Package classify maps a clause of user text to an activity of the
// emission table.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/carbontally/internal/emission"
	"github.com/ppiankov/carbontally/internal/extract"
	"github.com/ppiankov/carbontally/internal/model"
)

// DefaultCutoff is the minimum similarity accepted by fuzzy matching
const DefaultCutoff = 0.6

// minFuzzyLen keeps short words ("by", "to") out of fuzzy matching
const minFuzzyLen = 3

// Method records how a match was made
type Method string

const (
	MethodExact     Method = "exact"      // keyword equals a word
	MethodContains  Method = "contains"   // keyword found inside a word
	MethodFuzzy     Method = "fuzzy"      // closest keyword within the unit's category
	MethodFuzzyAll  Method = "fuzzy_all"  // match outside the unit's category
	MethodCue       Method = "cue"        // generic verb, no mode noun present
	MethodUnitCue   Method = "unit_cue"   // category default chosen from the unit alone
	MethodUnmatched Method = "unmatched"  // nothing recognized
)

// Match is the outcome of classifying one clause
type Match struct {
	Activity emission.Activity
	Method   Method
	Keyword  string  // Keyword that matched, if any
	Score    float64 // Similarity for fuzzy matches, 1 otherwise
}

// Unknown returns the sentinel match for unrecognized clauses
func Unknown() Match {
	return Match{
		Activity: emission.Activity{Key: model.ActivityUnknown, Category: model.CategoryUnknown},
		Method:   MethodUnmatched,
	}
}

// Classifier selects activities from a factor table. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	table  *emission.Table
	cutoff float64
}

// NewClassifier creates a classifier over table. A cutoff outside (0, 1]
// falls back to DefaultCutoff.
func NewClassifier(table *emission.Table, cutoff float64) *Classifier {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultCutoff
	}
	return &Classifier{
		table:  table,
		cutoff: cutoff,
	}
}

// CategoryFor infers the category implied by a unit kind.
// It returns "" when the unit gives no hint.
func CategoryFor(kind model.UnitKind) model.Category {
	switch kind {
	case model.UnitDistance:
		return model.CategoryTransport
	case model.UnitMass, model.UnitServing:
		return model.CategoryFood
	case model.UnitEnergy, model.UnitVolume:
		return model.CategoryEnergy
	default:
		return ""
	}
}

// Classify picks the activity described by clause. The clause must be
// folded (see extract.Fold). Classify always returns a match:
//
//  1. the unit kind narrows the vocabulary to one category;
//  2. keywords are matched exactly, by containment, then by fuzzy
//     similarity; verb cues count only when no keyword matched;
//  3. the whole vocabulary is retried with fuzzy similarity alone;
//  4. otherwise the category default is used, or Unknown without a unit.
//
// Ties go to the first activity in table order.
func (c *Classifier) Classify(clause string, kind model.UnitKind) Match {
	words := extract.Words(clause)
	category := CategoryFor(kind)

	if m, ok := c.match(words, c.table.Matchable(category)); ok {
		return m
	}

	if category != "" {
		if m, ok := c.fuzzyMatch(words, c.table.Matchable("")); ok {
			m.Method = MethodFuzzyAll
			return m
		}

		if def, ok := c.table.Default(category); ok {
			return Match{Activity: def, Method: MethodUnitCue, Score: 1}
		}
	}

	return Unknown()
}

// match runs exact, containment and fuzzy keyword matching over
// candidates, then falls back to verb cues
func (c *Classifier) match(words []string, candidates []emission.Activity) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}

	if m, ok := exactMatch(words, candidates); ok {
		return m, true
	}
	if m, ok := containsMatch(words, candidates); ok {
		return m, true
	}
	if m, ok := c.fuzzyMatch(words, candidates); ok {
		m.Method = MethodFuzzy
		return m, true
	}
	return cueMatch(words, candidates)
}

// cueMatch finds a verb cue equal to a word
func cueMatch(words []string, candidates []emission.Activity) (Match, bool) {
	for _, act := range candidates {
		for _, cue := range act.Cues {
			for _, w := range words {
				if w == cue {
					return Match{Activity: act, Method: MethodCue, Keyword: cue, Score: 1}, true
				}
			}
		}
	}
	return Match{}, false
}

// exactMatch finds a keyword equal to a word, or a multi-word keyword
// present as a phrase
func exactMatch(words []string, candidates []emission.Activity) (Match, bool) {
	phrase := " " + strings.Join(words, " ") + " "

	for _, act := range candidates {
		for _, kw := range act.Keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(phrase, " "+kw+" ") {
					return Match{Activity: act, Method: MethodExact, Keyword: kw, Score: 1}, true
				}
				continue
			}
			for _, w := range words {
				if w == kw {
					return Match{Activity: act, Method: MethodExact, Keyword: kw, Score: 1}, true
				}
			}
		}
	}
	return Match{}, false
}

// containsMatch finds a keyword appearing inside a word ("cycled" -> "cycle")
func containsMatch(words []string, candidates []emission.Activity) (Match, bool) {
	for _, act := range candidates {
		for _, kw := range act.Keywords {
			if strings.Contains(kw, " ") {
				continue
			}
			for _, w := range words {
				if strings.Contains(w, kw) {
					return Match{Activity: act, Method: MethodContains, Keyword: kw, Score: 1}, true
				}
			}
		}
	}
	return Match{}, false
}

// fuzzyMatch returns the single closest keyword at or above the cutoff
func (c *Classifier) fuzzyMatch(words []string, candidates []emission.Activity) (Match, bool) {
	best := Match{Score: -1}

	for _, act := range candidates {
		for _, kw := range act.Keywords {
			if strings.Contains(kw, " ") {
				continue
			}
			for _, w := range words {
				if utf8.RuneCountInString(w) < minFuzzyLen || extract.KindOf(w) != model.UnitNone {
					continue
				}
				// Strictly greater keeps the earliest entry on ties
				if score := Ratio(w, kw); score > best.Score {
					best = Match{Activity: act, Keyword: kw, Score: score}
				}
			}
		}
	}

	if best.Score < c.cutoff {
		return Match{}, false
	}
	return best, true
}
