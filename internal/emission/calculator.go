package emission

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Compute returns the signed CO2 for quantity, given in the activity's
// canonical unit. Emitting activities return -quantity*factor. Activities
// that replace driving return +quantity*carFactor, the emission avoided.
func (t *Table) Compute(act Activity, quantity float64) float64 {
	var co2 float64
	if act.AvoidsCar {
		co2 = quantity * t.CarFactor()
	} else {
		co2 = -quantity * act.Factor
	}

	if math.IsNaN(co2) || math.IsInf(co2, 0) {
		log.Warn().Str("activity", act.Key).Float64("quantity", quantity).Msg("co2 out of range, recording zero")
		return 0
	}

	return Round(co2)
}

// Round rounds a CO2 value to the ledger precision. Negative zero is
// returned as zero so that the sign alone tells emitted from saved.
func Round(v float64) float64 {
	scale := math.Pow(10, co2Precision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}
