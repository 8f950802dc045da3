// Package ufun scores outcomes for one negotiating party.
package ufun

import (
	"errors"
	"math"

	"negotiation-lab/internal/domain"
)

// Validation errors
var (
	ErrNoIssues           = errors.New("utility function has no issues")
	ErrShapeMismatch      = errors.New("weights and value tables differ in length")
	ErrNegativeWeight     = errors.New("issue weight must be non-negative")
	ErrZeroWeights        = errors.New("issue weights sum to zero")
	ErrValueOutOfRange    = errors.New("value utility must be in [0,1]")
	ErrEmptyValueTable    = errors.New("issue value table is empty")
	ErrReservedOutOfRange = errors.New("reserved value must be in [0,1]")
)

// UtilityFunction scores outcomes for one party.
type UtilityFunction interface {
	// Utility returns the score of o. Unknown or empty outcomes score 0.
	Utility(o domain.Outcome) float64
	// ReservedValue is the utility below which no agreement is preferred.
	ReservedValue() float64
	// Best returns the globally best outcome for the holder.
	Best() domain.Outcome
}

// LinearAdditive is a weighted sum of per-issue value utilities.
// Weights are normalized to sum to 1 so every utility lies in [0,1].
// Instances are immutable.
type LinearAdditive struct {
	weights  []float64
	values   [][]float64
	reserved float64
	best     domain.Outcome
}

var _ UtilityFunction = (*LinearAdditive)(nil)

// NewLinearAdditive validates and normalizes the tables.
func NewLinearAdditive(weights []float64, values [][]float64, reserved float64) (*LinearAdditive, error) {
	if len(weights) == 0 {
		return nil, ErrNoIssues
	}
	if len(weights) != len(values) {
		return nil, ErrShapeMismatch
	}
	if reserved < 0 || reserved > 1 || math.IsNaN(reserved) {
		return nil, ErrReservedOutOfRange
	}

	sum := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, ErrNegativeWeight
		}
		sum += w
	}
	if sum == 0 {
		return nil, ErrZeroWeights
	}

	u := &LinearAdditive{
		weights:  make([]float64, len(weights)),
		values:   make([][]float64, len(values)),
		reserved: reserved,
	}
	bestIdx := make([]int, len(values))
	for i, w := range weights {
		u.weights[i] = w / sum

		if len(values[i]) == 0 {
			return nil, ErrEmptyValueTable
		}
		u.values[i] = make([]float64, len(values[i]))
		for j, v := range values[i] {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return nil, ErrValueOutOfRange
			}
			u.values[i][j] = v
			if v > u.values[i][bestIdx[i]] {
				bestIdx[i] = j
			}
		}
	}
	u.best = domain.NewOutcome(bestIdx...)

	return u, nil
}

// Utility implements UtilityFunction.
func (u *LinearAdditive) Utility(o domain.Outcome) float64 {
	vals := o.Values()
	if len(vals) != len(u.weights) {
		return 0
	}
	total := 0.0
	for i, v := range vals {
		if v >= len(u.values[i]) {
			return 0
		}
		total += u.weights[i] * u.values[i][v]
	}
	return total
}

// ReservedValue implements UtilityFunction.
func (u *LinearAdditive) ReservedValue() float64 {
	return u.reserved
}

// Best implements UtilityFunction.
func (u *LinearAdditive) Best() domain.Outcome {
	return u.best
}

// Issues returns the number of values per issue.
func (u *LinearAdditive) Issues() []int {
	out := make([]int, len(u.values))
	for i, v := range u.values {
		out[i] = len(v)
	}
	return out
}

// WithReservedValue returns a copy with a different reserved value.
// The value tables are shared; LinearAdditive never mutates them.
func (u *LinearAdditive) WithReservedValue(rv float64) *LinearAdditive {
	cp := *u
	cp.reserved = rv
	return &cp
}
