package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/carbontally/internal/emission"
	"github.com/ppiankov/carbontally/internal/model"
)

func newTestClassifier() *Classifier {
	return NewClassifier(emission.DefaultTable(), DefaultCutoff)
}

func TestClassify_Keywords(t *testing.T) {
	c := newTestClassifier()
	tests := []struct {
		clause   string
		kind     model.UnitKind
		activity string
		category model.Category
		method   Method
	}{
		{"drove 5 km by car", model.UnitDistance, "car", model.CategoryTransport, MethodExact},
		{"cycled 3 km", model.UnitDistance, "cycle", model.CategoryTransport, MethodContains},
		{"walked 2 km", model.UnitDistance, "walk", model.CategoryTransport, MethodExact},
		{"took the bus 10 km", model.UnitDistance, "bus", model.CategoryTransport, MethodExact},
		{"used 4 kwh electricity", model.UnitEnergy, "electricity", model.CategoryEnergy, MethodExact},
		{"burned 2 m3 natural gas", model.UnitVolume, "natural_gas", model.CategoryEnergy, MethodExact},
		{"ate 0.2 kg beef", model.UnitMass, "beef", model.CategoryFood, MethodExact},
		{"drank 1 kg milk", model.UnitMass, "milk", model.CategoryFood, MethodExact},
		{"drove to work", model.UnitNone, "car", model.CategoryTransport, MethodCue},
		{"drove 5 km", model.UnitDistance, "car", model.CategoryTransport, MethodCue},
		{"drove 5 km by bus", model.UnitDistance, "bus", model.CategoryTransport, MethodExact},
		{"driving 3 km by cycle", model.UnitDistance, "cycle", model.CategoryTransport, MethodExact},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			m := c.Classify(tt.clause, tt.kind)
			assert.Equal(t, tt.activity, m.Activity.Key)
			assert.Equal(t, tt.category, m.Activity.Category)
			assert.Equal(t, tt.method, m.Method)
		})
	}
}

func TestClassify_Fuzzy(t *testing.T) {
	c := newTestClassifier()

	m := c.Classify("rode 5 km on a motorbik", model.UnitDistance)
	assert.Equal(t, "motorbike", m.Activity.Key)
	assert.Equal(t, MethodFuzzy, m.Method)
	assert.GreaterOrEqual(t, m.Score, DefaultCutoff)

	m = c.Classify("ate 200 g chiken", model.UnitMass)
	assert.Equal(t, "chicken", m.Activity.Key)
	assert.Equal(t, MethodFuzzy, m.Method)
}

func TestClassify_CrossCategory(t *testing.T) {
	c := newTestClassifier()

	// Mass implies food, but plastic is waste
	m := c.Classify("threw away 1 kg plastic", model.UnitMass)
	assert.Equal(t, "plastic", m.Activity.Key)
	assert.Equal(t, model.CategoryWaste, m.Activity.Category)

	m = c.Classify("used 3 kg lpg", model.UnitMass)
	assert.Equal(t, "lpg", m.Activity.Key)
	assert.Equal(t, model.CategoryEnergy, m.Activity.Category)

	// Whole-word keyword beats a shorter keyword hidden inside it
	m = c.Classify("recycled 1 kg cardboard", model.UnitMass)
	assert.Equal(t, "paper", m.Activity.Key)
	assert.Equal(t, MethodFuzzyAll, m.Method)
}

func TestClassify_CrossCategoryIsFuzzyOnly(t *testing.T) {
	c := newTestClassifier()

	// "car" and "cab" hide inside these words but must not leak into food
	for _, clause := range []string{"ate 0.3 kg carrots", "ate 0.5 kg cabbage"} {
		m := c.Classify(clause, model.UnitMass)
		assert.Equal(t, "meal", m.Activity.Key, clause)
		assert.Equal(t, model.CategoryFood, m.Activity.Category, clause)
		assert.Equal(t, MethodUnitCue, m.Method, clause)
	}

	// Verb cues stay inside the unit's category
	m := c.Classify("drove 2 kg of shopping home", model.UnitMass)
	assert.Equal(t, "meal", m.Activity.Key)
}

func TestClassify_ModeNounBeatsVerbCue(t *testing.T) {
	c := newTestClassifier()

	for _, act := range emission.DefaultTable().Matchable(model.CategoryTransport) {
		m := c.Classify("drove 5 km by "+act.Key, model.UnitDistance)
		assert.Equal(t, act.Key, m.Activity.Key)
		assert.NotEqual(t, MethodCue, m.Method, act.Key)
	}
}

func TestClassify_UnitCueDefaults(t *testing.T) {
	c := newTestClassifier()
	tests := []struct {
		clause   string
		kind     model.UnitKind
		activity string
	}{
		{"went 12 km", model.UnitDistance, "travel"},
		{"ate 2 slices of pizza", model.UnitServing, "meal"},
		{"consumed 3 kwh", model.UnitEnergy, "energy_use"},
		{"used 2 m3", model.UnitVolume, "energy_use"},
	}

	for _, tt := range tests {
		m := c.Classify(tt.clause, tt.kind)
		assert.Equal(t, tt.activity, m.Activity.Key, tt.clause)
		assert.Equal(t, MethodUnitCue, m.Method, tt.clause)
		assert.True(t, m.Activity.Default, tt.clause)
	}
}

func TestClassify_Unknown(t *testing.T) {
	c := newTestClassifier()

	for _, clause := range []string{"xyz nonsense", "", "...", "hello there", "日本語のテキスト"} {
		m := c.Classify(clause, model.UnitNone)
		assert.Equal(t, model.ActivityUnknown, m.Activity.Key, clause)
		assert.Equal(t, model.CategoryUnknown, m.Activity.Category, clause)
		assert.Equal(t, MethodUnmatched, m.Method, clause)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier()

	// Both "bus" and "walk" appear; table order puts bus first
	first := c.Classify("walked 2 km past the bus", model.UnitDistance)
	for i := 0; i < 20; i++ {
		again := c.Classify("walked 2 km past the bus", model.UnitDistance)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "bus", first.Activity.Key)
}

func TestClassify_FuzzyTieBreak(t *testing.T) {
	table, err := emission.NewTable([]emission.Activity{
		{Key: "alpha", Category: model.CategoryFood, Factor: 1, Basis: model.UnitKg, Keywords: []string{"abcd"}},
		{Key: "beta", Category: model.CategoryFood, Factor: 2, Basis: model.UnitKg, Keywords: []string{"abce"}},
		{Key: "travel", Category: model.CategoryTransport, Factor: 0.2, Basis: model.UnitKm, Default: true},
		{Key: "energy_use", Category: model.CategoryEnergy, Factor: 0.8, Basis: model.UnitKWh, Default: true},
		{Key: "meal", Category: model.CategoryFood, Factor: 6, Basis: model.UnitKg, Default: true},
		{Key: "waste", Category: model.CategoryWaste, Factor: 2, Basis: model.UnitKg, Default: true},
	})
	assert.NoError(t, err)

	c := NewClassifier(table, 0.7)
	// "abcx" is one edit away from both keywords
	m := c.Classify("ate 1 kg abcx", model.UnitMass)
	assert.Equal(t, "alpha", m.Activity.Key)
	assert.InDelta(t, 0.75, m.Score, 1e-9)
}

func TestNewClassifier_CutoffFallback(t *testing.T) {
	assert.Equal(t, DefaultCutoff, NewClassifier(emission.DefaultTable(), 0).cutoff)
	assert.Equal(t, DefaultCutoff, NewClassifier(emission.DefaultTable(), 1.5).cutoff)
	assert.Equal(t, 0.8, NewClassifier(emission.DefaultTable(), 0.8).cutoff)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, model.CategoryTransport, CategoryFor(model.UnitDistance))
	assert.Equal(t, model.CategoryFood, CategoryFor(model.UnitMass))
	assert.Equal(t, model.CategoryFood, CategoryFor(model.UnitServing))
	assert.Equal(t, model.CategoryEnergy, CategoryFor(model.UnitEnergy))
	assert.Equal(t, model.CategoryEnergy, CategoryFor(model.UnitVolume))
	assert.Equal(t, model.Category(""), CategoryFor(model.UnitNone))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 1.0, Ratio("beef", "beef"))
	assert.InDelta(t, 0.857, Ratio("chiken", "chicken"), 0.001)
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.InDelta(t, 0.75, Ratio("über", "uber"), 1e-9)
}
