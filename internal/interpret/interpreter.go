// Package interpret turns free text describing everyday activities into
// structured, signed CO2 records.
//
// Interpretation is a pure function of the input and the emission table:
// no I/O, no shared mutable state, and no error path. Every string,
// including empty or non-ASCII text, yields at least one activity.
package interpret

import (
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/carbontally/internal/classify"
	"github.com/ppiankov/carbontally/internal/emission"
	"github.com/ppiankov/carbontally/internal/extract"
	"github.com/ppiankov/carbontally/internal/model"
)

// Interpreter runs extraction, classification, normalization and
// emission calculation for each clause of the input
type Interpreter struct {
	table      *emission.Table
	classifier *classify.Classifier
}

// New creates an interpreter over table with the given fuzzy cutoff.
// A nil table uses emission.DefaultTable().
func New(table *emission.Table, cutoff float64) *Interpreter {
	if table == nil {
		table = emission.DefaultTable()
	}
	return &Interpreter{
		table:      table,
		classifier: classify.NewClassifier(table, cutoff),
	}
}

// NewDefault creates an interpreter over the reference table
func NewDefault() *Interpreter {
	return New(nil, classify.DefaultCutoff)
}

// Interpret returns one ParsedActivity per clause, in input order.
// Input with no clauses yields a single unknown activity.
func (i *Interpreter) Interpret(text string) []model.ParsedActivity {
	clauses := extract.SplitClauses(extract.Fold(text))
	if len(clauses) == 0 {
		return []model.ParsedActivity{unknownActivity("", extract.Quantity{})}
	}

	activities := make([]model.ParsedActivity, 0, len(clauses))
	for _, clause := range clauses {
		activities = append(activities, i.InterpretClause(clause))
	}
	return activities
}

// InterpretClause interprets a single, already folded clause
func (i *Interpreter) InterpretClause(clause string) model.ParsedActivity {
	// 1. Quantity and unit
	q := extract.ExtractQuantity(clause)

	// 2. Activity
	match := i.classifier.Classify(clause, q.Kind)
	act := match.Activity
	if act.Key == model.ActivityUnknown {
		return unknownActivity(clause, q)
	}

	// 3. Canonical unit
	raw := ""
	if q.Found {
		raw = q.Unit
	}
	n := emission.Normalize(act.Category, q.Value, raw)

	// 4. Signed CO2
	co2 := i.table.Compute(act, n.Quantity)

	log.Debug().
		Str("clause", clause).
		Str("activity", act.Key).
		Str("method", string(match.Method)).
		Float64("score", match.Score).
		Float64("quantity", n.Quantity).
		Str("unit", n.Unit).
		Float64("co2", co2).
		Msg("interpreted clause")

	return model.ParsedActivity{
		Activity:    act.Key,
		Category:    act.Category,
		Quantity:    n.Quantity,
		Unit:        n.Unit,
		CO2:         co2,
		Message:     emission.Describe(act, n, co2),
		RawQuantity: q.Value,
		RawUnit:     raw,
		Clause:      clause,
	}
}

// unknownActivity is the fallback record for unrecognized text
func unknownActivity(clause string, q extract.Quantity) model.ParsedActivity {
	qty := 1.0
	unit := ""
	if q.Found {
		qty = q.Value
		unit = q.Unit
	}
	return model.ParsedActivity{
		Activity: model.ActivityUnknown,
		Category: model.CategoryUnknown,
		Quantity: qty,
		Unit:     unit,
		CO2:      0,
		Message:  emission.UnknownMessage,
		Clause:   clause,
	}
}

// Total sums the signed CO2 of activities
func Total(activities []model.ParsedActivity) float64 {
	var total float64
	for _, a := range activities {
		total += a.CO2
	}
	return emission.Round(total)
}
