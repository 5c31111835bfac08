package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/carbontally/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		category model.Category
		qty      float64
		raw      string
		wantQty  float64
		wantUnit string
	}{
		{"km passthrough", model.CategoryTransport, 5, "km", 5, model.UnitKm},
		{"transport without unit", model.CategoryTransport, 0, "", 1, model.UnitKm},
		{"kwh passthrough", model.CategoryEnergy, 4, "kwh", 4, model.UnitKWh},
		{"kw as energy", model.CategoryEnergy, 2, "kw", 2, model.UnitKWh},
		{"energy without unit", model.CategoryEnergy, 0, "", 1, model.UnitKWh},
		{"lpg in kg", model.CategoryEnergy, 3, "kg", 3, model.UnitKg},
		{"gas in m3", model.CategoryEnergy, 2, "m3", 2, model.UnitM3},
		{"energy with serving unit", model.CategoryEnergy, 2, "piece", 2, model.UnitGeneric},
		{"grams to kg", model.CategoryFood, 250, "g", 0.25, model.UnitKg},
		{"gm to kg", model.CategoryFood, 500, "gm", 0.5, model.UnitKg},
		{"kg passthrough", model.CategoryFood, 0.2, "kg", 0.2, model.UnitKg},
		{"slice", model.CategoryFood, 2, "slice", 0.25, model.UnitKg},
		{"serving", model.CategoryFood, 1, "serving", 0.2, model.UnitKg},
		{"meal", model.CategoryFood, 2, "meal", 0.6, model.UnitKg},
		{"piece", model.CategoryWaste, 3, "piece", 0.3, model.UnitKg},
		{"food without unit is one meal", model.CategoryFood, 0, "", 0.3, model.UnitKg},
		{"waste without unit", model.CategoryWaste, 0, "", 1, model.UnitKg},
		{"waste grams", model.CategoryWaste, 1500, "g", 1.5, model.UnitKg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.category, tt.qty, tt.raw)
			assert.InDelta(t, tt.wantQty, got.Quantity, 1e-9)
			assert.Equal(t, tt.wantUnit, got.Unit)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	cases := []struct {
		category model.Category
		unit     string
	}{
		{model.CategoryTransport, "km"},
		{model.CategoryEnergy, "kwh"},
		{model.CategoryFood, "kg"},
		{model.CategoryWaste, "kg"},
	}

	for _, c := range cases {
		once := Normalize(c.category, 7.5, c.unit)
		twice := Normalize(c.category, once.Quantity, c.unit)
		assert.Equal(t, once, twice, "%s/%s", c.category, c.unit)
		assert.InDelta(t, 7.5, once.Quantity, 1e-12)
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	units := map[model.Category][]string{
		model.CategoryTransport: {"km"},
		model.CategoryEnergy:    {"kwh", "kw", "kg", "g", "m3"},
		model.CategoryFood:      {"kg", "g", "gm", "slice", "serving", "meal", "piece"},
		model.CategoryWaste:     {"kg", "g", "piece"},
	}

	for category, list := range units {
		for _, unit := range list {
			for _, q := range []float64{0.125, 1, 3, 250} {
				n := Normalize(category, q, unit)
				back := Denormalize(category, n.Quantity, unit)
				assert.InDelta(t, q, back, 1e-9, "%s %v %s", category, q, unit)
			}
		}
	}
}

func TestServingWeightKg(t *testing.T) {
	assert.Equal(t, 0.125, ServingWeightKg("slice"))
	assert.Equal(t, 0.3, ServingWeightKg("meal"))
	assert.Equal(t, DefaultServingKg, ServingWeightKg("bowl"))
}
