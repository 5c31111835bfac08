package emission

import (
	"github.com/ppiankov/carbontally/internal/model"
)

// Normalized is a quantity expressed in its category's canonical unit
type Normalized struct {
	Quantity float64
	Unit     string
}

// Normalize converts a raw quantity into the canonical unit of category.
// rawUnit is the unit token as extracted ("km", "g", "slice", ...); an empty
// rawUnit means no quantity was found, in which case the category default
// applies (1 km, 1 kWh, one meal, 1 kg).
//
// Normalizing a quantity already in the canonical unit returns it unchanged.
func Normalize(category model.Category, quantity float64, rawUnit string) Normalized {
	kind := unitKind(rawUnit)
	if kind == model.UnitNone {
		return defaultQuantity(category)
	}

	switch category {
	case model.CategoryTransport:
		// Distance passes through; a non-distance unit keeps its number
		return Normalized{Quantity: quantity, Unit: model.UnitKm}

	case model.CategoryEnergy:
		switch kind {
		case model.UnitEnergy:
			return Normalized{Quantity: quantity, Unit: model.UnitKWh}
		case model.UnitMass:
			return Normalized{Quantity: massToKg(quantity, rawUnit), Unit: model.UnitKg}
		case model.UnitVolume:
			return Normalized{Quantity: quantity, Unit: model.UnitM3}
		default:
			return Normalized{Quantity: quantity, Unit: model.UnitGeneric}
		}

	case model.CategoryFood, model.CategoryWaste:
		switch kind {
		case model.UnitMass:
			return Normalized{Quantity: massToKg(quantity, rawUnit), Unit: model.UnitKg}
		case model.UnitServing:
			return Normalized{Quantity: quantity * ServingWeightKg(rawUnit), Unit: model.UnitKg}
		default:
			return Normalized{Quantity: quantity, Unit: model.UnitKg}
		}
	}

	return Normalized{Quantity: quantity, Unit: rawUnit}
}

// Denormalize inverts Normalize for a quantity that carried rawUnit
func Denormalize(category model.Category, quantity float64, rawUnit string) float64 {
	switch category {
	case model.CategoryFood, model.CategoryWaste, model.CategoryEnergy:
		switch unitKind(rawUnit) {
		case model.UnitMass:
			if isGrams(rawUnit) {
				return quantity / GramsToKg
			}
		case model.UnitServing:
			if category != model.CategoryEnergy {
				return quantity / ServingWeightKg(rawUnit)
			}
		}
	}
	return quantity
}

// defaultQuantity is used when the text carried no quantity at all
func defaultQuantity(category model.Category) Normalized {
	switch category {
	case model.CategoryTransport:
		return Normalized{Quantity: 1, Unit: model.UnitKm}
	case model.CategoryEnergy:
		return Normalized{Quantity: 1, Unit: model.UnitKWh}
	case model.CategoryFood:
		return Normalized{Quantity: ServingWeightKg("meal"), Unit: model.UnitKg}
	case model.CategoryWaste:
		return Normalized{Quantity: 1, Unit: model.UnitKg}
	default:
		return Normalized{Quantity: 1, Unit: ""}
	}
}

func massToKg(quantity float64, rawUnit string) float64 {
	if isGrams(rawUnit) {
		return quantity * GramsToKg
	}
	return quantity
}

func isGrams(unit string) bool {
	return unit == "g" || unit == "gm"
}

// unitKind mirrors the extractor's unit grammar for already-singular tokens
func unitKind(unit string) model.UnitKind {
	switch unit {
	case "km":
		return model.UnitDistance
	case "kwh", "kw":
		return model.UnitEnergy
	case "kg", "g", "gm":
		return model.UnitMass
	case "m3":
		return model.UnitVolume
	case "":
		return model.UnitNone
	default:
		// Any other token reaching here came from the serving grammar
		return model.UnitServing
	}
}
