//go:build property

package concession

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_ThresholdMonotone(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 500
	properties := gopter.NewProperties(params)

	properties.Property("threshold(t1) >= threshold(t2) for t1 < t2", prop.ForAll(
		func(t1, t2, rv, e float64) bool {
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			return Threshold(t1, 1.0, rv, e) >= Threshold(t2, 1.0, rv, e)-1e-12
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0.01, 40),
	))

	properties.Property("end points are max and reserved value", prop.ForAll(
		func(max, rv, e float64) bool {
			return abs(Threshold(0, max, rv, e)-max) < 1e-9 &&
				abs(Threshold(1, max, rv, e)-rv) < 1e-9
		},
		gen.Float64Range(0.5, 1),
		gen.Float64Range(0, 0.5),
		gen.Float64Range(0.01, 40),
	))

	properties.TestingRun(t)
}

func TestProperty_AdaptReciprocity(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 500
	properties := gopter.NewProperties(params)
	a := NewAdapter(DefaultAdaptationConfig())

	properties.Property("conceding opponent never hardens, firm opponent never softens", prop.ForAll(
		func(current, mean float64) bool {
			next := a.Adapt(current, mean)
			if a.Classify(mean) == Conceder {
				return next <= current
			}
			return next >= current
		},
		gen.Float64Range(0.2, 40),
		gen.Float64Range(0.2, 5),
	))

	properties.TestingRun(t)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
