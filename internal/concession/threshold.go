// Package concession implements the time-dependent aspiration curve and the
// reciprocal adaptation of its exponent.
package concession

import "math"

// Threshold returns the aspiration level at relative time t:
//
//	(max - rv) * (1 - t^e) + rv
//
// t is clamped to [0,1]. For e > 0 the curve decreases from max at t=0 to
// rv at t=1; e < 1 concedes early, e > 1 concedes late.
func Threshold(t, max, reservedValue, exponent float64) float64 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return (max-reservedValue)*(1-math.Pow(t, exponent)) + reservedValue
}

// Curve is a concession curve with fixed end points.
type Curve struct {
	Max           float64
	ReservedValue float64
	Exponent      float64
}

// At returns the curve value at relative time t.
func (c Curve) At(t float64) float64 {
	return Threshold(t, c.Max, c.ReservedValue, c.Exponent)
}
