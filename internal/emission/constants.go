package emission

// Emission factors in kg CO2e per canonical unit.
// Source: the carbon tracker's reference table (India-average grid for electricity).
const (
	// CarFactor is kg CO2e per km for an average car. Cycling and walking
	// are credited with this amount per km, as the emission avoided.
	CarFactor = 0.20

	MotorbikeFactor = 0.10
	BusFactor       = 0.05
	TrainFactor     = 0.03
	FlightFactor    = 0.25

	// ElectricityFactor is kg CO2e per kWh.
	ElectricityFactor = 0.82
	// LPGFactor is kg CO2e per kg of LPG burned.
	LPGFactor = 2.98
	// NaturalGasFactor is kg CO2e per m3 of natural gas burned.
	NaturalGasFactor = 1.90

	BeefFactor       = 27.0
	ChickenFactor    = 6.9
	MilkFactor       = 1.3
	RiceFactor       = 2.7
	VegetablesFactor = 0.5

	PlasticFactor = 6.0
	PaperFactor   = 1.3
)

// Category-level defaults used when a clause carries a unit cue but no
// recognizable activity.
const (
	DefaultTransportFactor = 0.20 // per km
	DefaultEnergyFactor    = 0.82 // per kWh
	DefaultFoodFactor      = 6.0  // per kg
	DefaultWasteFactor     = 2.0  // per kg
)

// Unit conversions into kilograms.
const (
	// GramsToKg converts grams to kilograms.
	GramsToKg = 0.001

	// DefaultServingKg is the weight assumed for an unrecognized serving unit.
	DefaultServingKg = 0.2
)

// servingWeightsKg maps discrete serving units to kilograms
//
//nolint:gochecknoglobals // Read-only lookup table.
var servingWeightsKg = map[string]float64{
	"slice":   0.125,
	"serving": 0.2,
	"meal":    0.3,
	"piece":   0.1,
}

// ServingWeightKg returns the kilograms assumed for one serving unit
func ServingWeightKg(unit string) float64 {
	if w, ok := servingWeightsKg[unit]; ok {
		return w
	}
	return DefaultServingKg
}

// co2Precision is the number of decimals kept in computed CO2 values
const co2Precision = 6
