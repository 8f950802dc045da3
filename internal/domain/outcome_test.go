package domain

import (
	"errors"
	"testing"
)

func TestOutcome_StructuralEquality(t *testing.T) {
	a := NewOutcome(1, 0, 3)
	b := NewOutcome(1, 0, 3)
	c := NewOutcome(1, 3, 0)

	if a != b {
		t.Errorf("expected %v == %v", a, b)
	}
	if a == c {
		t.Errorf("expected %v != %v", a, c)
	}

	set := map[Outcome]struct{}{a: {}}
	if _, ok := set[b]; !ok {
		t.Error("equal outcomes must hash to the same map key")
	}
}

func TestOutcome_Zero(t *testing.T) {
	var zero Outcome
	if !zero.IsZero() {
		t.Error("zero value must be the empty outcome")
	}
	if !NewOutcome().IsZero() {
		t.Error("outcome without values must be empty")
	}
	if NewOutcome(0).IsZero() {
		t.Error("single-issue outcome must not be empty")
	}
}

func TestOutcome_ValuesIsCopy(t *testing.T) {
	o := NewOutcome(2, 4)
	v := o.Values()
	v[0] = 9

	if o.Values()[0] != 2 {
		t.Errorf("Values must return a copy, got %v", o.Values())
	}
}

func TestOutcome_Less(t *testing.T) {
	// numeric, not lexical: 10 > 9
	if !NewOutcome(9).Less(NewOutcome(10)) {
		t.Error("expected (9) < (10)")
	}
	if NewOutcome(1, 2).Less(NewOutcome(1, 2)) {
		t.Error("outcome must not be less than itself")
	}
	if !NewOutcome(1).Less(NewOutcome(1, 0)) {
		t.Error("shorter prefix must sort first")
	}
}

func TestOutcome_LessMatchesValueOrder(t *testing.T) {
	outcomes := []Outcome{
		{}, NewOutcome(0), NewOutcome(7), NewOutcome(10), NewOutcome(0, 0),
		NewOutcome(0, 10), NewOutcome(0, 9), NewOutcome(2, 100, 3), NewOutcome(2, 100),
		NewOutcome(12, 1), NewOutcome(101), NewOutcome(2, 11, 0),
	}
	byValues := func(a, b Outcome) bool {
		x, y := a.Values(), b.Values()
		for i := 0; i < len(x) && i < len(y); i++ {
			if x[i] != y[i] {
				return x[i] < y[i]
			}
		}
		return len(x) < len(y)
	}

	for _, a := range outcomes {
		for _, b := range outcomes {
			if got, want := a.Less(b), byValues(a, b); got != want {
				t.Errorf("%v.Less(%v) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestOutcome_LessDoesNotAllocate(t *testing.T) {
	x, y := NewOutcome(3, 14, 7, 2), NewOutcome(3, 14, 7, 10)
	allocs := testing.AllocsPerRun(100, func() {
		_ = x.Less(y)
	})
	if allocs != 0 {
		t.Errorf("Less allocated %.0f times per call", allocs)
	}
}

func TestParseOutcome(t *testing.T) {
	o := NewOutcome(3, 0, 12)
	parsed, err := ParseOutcome(o.Key())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != o {
		t.Errorf("expected %v, got %v", o, parsed)
	}

	empty, err := ParseOutcome("")
	if err != nil || !empty.IsZero() {
		t.Errorf("expected empty outcome, got %v (%v)", empty, err)
	}

	if _, err := ParseOutcome("1,x"); !errors.Is(err, ErrInvalidOutcomeKey) {
		t.Errorf("expected ErrInvalidOutcomeKey, got %v", err)
	}
	if _, err := ParseOutcome("-1"); !errors.Is(err, ErrInvalidOutcomeKey) {
		t.Errorf("expected ErrInvalidOutcomeKey, got %v", err)
	}
}

func TestResponse_Valid(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want bool
	}{
		{"accept", Accept(NewOutcome(1)), true},
		{"end", End(), true},
		{"reject with counter", Reject(NewOutcome(0, 1)), true},
		{"reject without counter", Reject(Outcome{}), false},
		{"unknown type", Response{Type: "WAIT"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNegotiationState_Remaining(t *testing.T) {
	s := NegotiationState{Step: 97, TotalSteps: 100}
	if s.Remaining() != 3 {
		t.Errorf("expected 3 remaining, got %d", s.Remaining())
	}
}
