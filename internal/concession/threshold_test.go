package concession

import (
	"math"
	"testing"
)

func TestThreshold_Scenario(t *testing.T) {
	// 0.7 * (1 - 0.25) + 0.3
	got := Threshold(0.5, 1.0, 0.3, 2.0)
	if math.Abs(got-0.825) > 1e-12 {
		t.Errorf("expected 0.825, got %v", got)
	}
}

func TestThreshold_EndPoints(t *testing.T) {
	for _, e := range []float64{0.2, 1.0, 4.0, 17.5} {
		if got := Threshold(0, 0.9, 0.4, e); math.Abs(got-0.9) > 1e-12 {
			t.Errorf("e=%v: Threshold(0) = %v, want 0.9", e, got)
		}
		if got := Threshold(1, 0.9, 0.4, e); math.Abs(got-0.4) > 1e-12 {
			t.Errorf("e=%v: Threshold(1) = %v, want 0.4", e, got)
		}
	}
}

func TestThreshold_ClampsTime(t *testing.T) {
	if Threshold(-0.5, 1, 0.2, 2) != Threshold(0, 1, 0.2, 2) {
		t.Error("negative time must clamp to 0")
	}
	if Threshold(1.5, 1, 0.2, 2) != Threshold(1, 1, 0.2, 2) {
		t.Error("time above 1 must clamp to 1")
	}
}

func TestThreshold_Shape(t *testing.T) {
	// at mid-session a Conceder is already lower than linear, a Boulware higher
	conceder := Threshold(0.5, 1, 0, 0.2)
	linear := Threshold(0.5, 1, 0, 1)
	boulware := Threshold(0.5, 1, 0, 4)

	if !(conceder < linear && linear < boulware) {
		t.Errorf("expected conceder < linear < boulware, got %v %v %v", conceder, linear, boulware)
	}
}

func TestCurve_At(t *testing.T) {
	c := Curve{Max: 1, ReservedValue: 0.3, Exponent: 2}
	if c.At(0.5) != Threshold(0.5, 1, 0.3, 2) {
		t.Error("Curve.At must match Threshold")
	}
}
