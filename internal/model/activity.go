package model

// Category groups activities that share a canonical unit
type Category string

const (
	CategoryTransport Category = "transport" // per km
	CategoryEnergy    Category = "energy"    // per kWh, kg or m3 depending on the source
	CategoryFood      Category = "food"      // per kg
	CategoryWaste     Category = "waste"     // per kg
	CategoryUnknown   Category = "unknown"
)

// Categories lists the known categories in canonical order
func Categories() []Category {
	return []Category{CategoryTransport, CategoryEnergy, CategoryFood, CategoryWaste}
}

// IsValid reports whether c is one of the known categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryTransport, CategoryEnergy, CategoryFood, CategoryWaste:
		return true
	default:
		return false
	}
}

// UnitKind classifies a unit token found next to a number
type UnitKind string

const (
	UnitNone     UnitKind = ""
	UnitDistance UnitKind = "distance" // km
	UnitEnergy   UnitKind = "energy"   // kwh, kw
	UnitMass     UnitKind = "mass"     // kg, g, gm
	UnitServing  UnitKind = "serving"  // slice, serving, meal, piece
	UnitVolume   UnitKind = "volume"   // m3
)

// Canonical units reported in ParsedActivity.Unit
const (
	UnitKm      = "km"
	UnitKWh     = "kWh"
	UnitKg      = "kg"
	UnitM3      = "m3"
	UnitGeneric = "units"
)

// ActivityUnknown is the sentinel activity key for unmatched input
const ActivityUnknown = "unknown"

// ParsedActivity is the structured reading of one clause of user input.
// CO2 is signed: negative means emitted, positive means avoided.
type ParsedActivity struct {
	Activity string   `json:"activity"`
	Category Category `json:"category"`
	Quantity float64  `json:"quantity"` // In Unit
	Unit     string   `json:"unit"`
	CO2      float64  `json:"co2"`
	Message  string   `json:"message"`

	RawQuantity float64 `json:"raw_quantity,omitempty"` // As written, before normalization
	RawUnit     string  `json:"raw_unit,omitempty"`     // Unit token as written (e.g., "slice")
	Clause      string  `json:"clause,omitempty"`       // Source clause
}

// IsUnknown reports whether the activity could not be recognized
func (a ParsedActivity) IsUnknown() bool {
	return a.Activity == ActivityUnknown
}

// Saved reports whether the activity avoided CO2 rather than emitting it
func (a ParsedActivity) Saved() bool {
	return a.CO2 > 0
}
