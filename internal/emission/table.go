// Package emission holds the emission-factor table and turns a recognized
// activity and quantity into a signed CO2 value.
//
// The table binds each activity's vocabulary to its factor, so everything
// that can be matched also has a factor. It is immutable once built and
// safe to share between goroutines.
package emission

import (
	"fmt"
	"math"

	"github.com/ppiankov/carbontally/internal/model"
)

// Activity is one row of the factor table
type Activity struct {
	Key      string         // Canonical activity key (e.g., "car")
	Category model.Category // Owning category
	Factor   float64        // kg CO2e per Basis unit
	Basis    string         // Canonical unit the factor is expressed in
	Keywords []string       // Mode nouns matched against user text, in priority order

	// Cues are generic verbs ("drove") that imply the activity only when
	// no keyword of any candidate matched the clause.
	Cues []string

	// AvoidsCar marks zero-emission alternatives to driving. Their CO2 is
	// the car emission avoided over the same distance.
	AvoidsCar bool

	// Default marks the category fallback. Defaults carry no keywords and
	// are only chosen from unit cues.
	Default bool
}

// Table is an immutable, ordered emission-factor table
type Table struct {
	activities []Activity
	byKey      map[string]int
	defaults   map[model.Category]int
}

// NewTable validates activities and builds a table. Iteration order is the
// order given, which is also the tie-break order for matching.
func NewTable(activities []Activity) (*Table, error) {
	t := &Table{
		activities: make([]Activity, 0, len(activities)),
		byKey:      make(map[string]int, len(activities)),
		defaults:   make(map[model.Category]int),
	}

	for _, act := range activities {
		if _, exists := t.byKey[act.Key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateActivity, act.Key)
		}
		if !act.Category.IsValid() {
			return nil, fmt.Errorf("%w: %s (%s)", ErrInvalidCategory, act.Category, act.Key)
		}
		if act.Factor < 0 || math.IsNaN(act.Factor) || math.IsInf(act.Factor, 0) {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidFactor, act.Key, act.Factor)
		}
		if act.Default {
			if _, exists := t.defaults[act.Category]; exists {
				return nil, fmt.Errorf("%w: %s", ErrMissingDefault, act.Category)
			}
			t.defaults[act.Category] = len(t.activities)
		}

		act.Keywords = append([]string(nil), act.Keywords...)
		act.Cues = append([]string(nil), act.Cues...)
		t.byKey[act.Key] = len(t.activities)
		t.activities = append(t.activities, act)
	}

	for _, cat := range model.Categories() {
		if _, ok := t.defaults[cat]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingDefault, cat)
		}
	}

	return t, nil
}

// Activities returns every activity in canonical order
func (t *Table) Activities() []Activity {
	out := make([]Activity, len(t.activities))
	for i, act := range t.activities {
		act.Keywords = append([]string(nil), act.Keywords...)
		act.Cues = append([]string(nil), act.Cues...)
		out[i] = act
	}
	return out
}

// Matchable returns the activities that have vocabulary, in canonical
// order. An empty category returns matchable activities of every category.
func (t *Table) Matchable(category model.Category) []Activity {
	var out []Activity
	for _, act := range t.activities {
		if act.Default || len(act.Keywords)+len(act.Cues) == 0 {
			continue
		}
		if category != "" && act.Category != category {
			continue
		}
		act.Keywords = append([]string(nil), act.Keywords...)
		act.Cues = append([]string(nil), act.Cues...)
		out = append(out, act)
	}
	return out
}

// Lookup returns the activity with the given key
func (t *Table) Lookup(key string) (Activity, error) {
	i, ok := t.byKey[key]
	if !ok {
		return Activity{}, fmt.Errorf("%w: %s", ErrUnknownActivity, key)
	}
	return t.activities[i], nil
}

// Default returns the fallback activity of a category
func (t *Table) Default(category model.Category) (Activity, bool) {
	i, ok := t.defaults[category]
	if !ok {
		return Activity{}, false
	}
	return t.activities[i], true
}

// CarFactor returns the transport factor credited to car-free travel
func (t *Table) CarFactor() float64 {
	if car, err := t.Lookup("car"); err == nil {
		return car.Factor
	}
	if def, ok := t.Default(model.CategoryTransport); ok {
		return def.Factor
	}
	return CarFactor
}

// defaultTable is built once at start-up and never modified
//
//nolint:gochecknoglobals // Immutable reference data.
var defaultTable = mustNewTable(referenceActivities())

// DefaultTable returns the shared reference table
func DefaultTable() *Table {
	return defaultTable
}

func mustNewTable(activities []Activity) *Table {
	t, err := NewTable(activities)
	if err != nil {
		panic(fmt.Sprintf("emission: invalid reference table: %v", err))
	}
	return t
}

// referenceActivities is the canonical vocabulary and factor list
func referenceActivities() []Activity {
	return []Activity{
		// Transport (per km)
		{Key: "car", Category: model.CategoryTransport, Factor: CarFactor, Basis: model.UnitKm,
			Keywords: []string{"car", "taxi", "cab"},
			Cues:     []string{"drove", "drive", "drives", "driving", "driven"}},
		{Key: "motorbike", Category: model.CategoryTransport, Factor: MotorbikeFactor, Basis: model.UnitKm,
			Keywords: []string{"motorbike", "motorcycle", "scooter"}},
		{Key: "bus", Category: model.CategoryTransport, Factor: BusFactor, Basis: model.UnitKm,
			Keywords: []string{"bus"}},
		{Key: "train", Category: model.CategoryTransport, Factor: TrainFactor, Basis: model.UnitKm,
			Keywords: []string{"train", "metro", "subway", "tram"}},
		{Key: "flight", Category: model.CategoryTransport, Factor: FlightFactor, Basis: model.UnitKm,
			Keywords: []string{"flight", "flew", "plane", "airplane"}},
		{Key: "cycle", Category: model.CategoryTransport, Factor: 0, Basis: model.UnitKm, AvoidsCar: true,
			Keywords: []string{"cycle", "cycling", "bike", "biked", "bicycle"}},
		{Key: "walk", Category: model.CategoryTransport, Factor: 0, Basis: model.UnitKm, AvoidsCar: true,
			Keywords: []string{"walk", "walked", "walking", "hike", "hiked"}},
		{Key: "travel", Category: model.CategoryTransport, Factor: DefaultTransportFactor, Basis: model.UnitKm, Default: true},

		// Energy
		{Key: "electricity", Category: model.CategoryEnergy, Factor: ElectricityFactor, Basis: model.UnitKWh,
			Keywords: []string{"electricity", "electric", "power"}},
		{Key: "lpg", Category: model.CategoryEnergy, Factor: LPGFactor, Basis: model.UnitKg,
			Keywords: []string{"lpg", "propane"}},
		{Key: "natural_gas", Category: model.CategoryEnergy, Factor: NaturalGasFactor, Basis: model.UnitM3,
			Keywords: []string{"natural gas", "natural_gas", "gas"}},
		{Key: "energy_use", Category: model.CategoryEnergy, Factor: DefaultEnergyFactor, Basis: model.UnitKWh, Default: true},

		// Food (per kg)
		{Key: "beef", Category: model.CategoryFood, Factor: BeefFactor, Basis: model.UnitKg,
			Keywords: []string{"beef", "steak", "burger"}},
		{Key: "chicken", Category: model.CategoryFood, Factor: ChickenFactor, Basis: model.UnitKg,
			Keywords: []string{"chicken"}},
		{Key: "milk", Category: model.CategoryFood, Factor: MilkFactor, Basis: model.UnitKg,
			Keywords: []string{"milk"}},
		{Key: "rice", Category: model.CategoryFood, Factor: RiceFactor, Basis: model.UnitKg,
			Keywords: []string{"rice"}},
		{Key: "vegetables", Category: model.CategoryFood, Factor: VegetablesFactor, Basis: model.UnitKg,
			Keywords: []string{"vegetables", "vegetable", "veggies", "salad"}},
		{Key: "meal", Category: model.CategoryFood, Factor: DefaultFoodFactor, Basis: model.UnitKg, Default: true},

		// Waste (per kg)
		{Key: "plastic", Category: model.CategoryWaste, Factor: PlasticFactor, Basis: model.UnitKg,
			Keywords: []string{"plastic"}},
		{Key: "paper", Category: model.CategoryWaste, Factor: PaperFactor, Basis: model.UnitKg,
			Keywords: []string{"paper", "cardboard"}},
		{Key: "waste", Category: model.CategoryWaste, Factor: DefaultWasteFactor, Basis: model.UnitKg, Default: true},
	}
}
