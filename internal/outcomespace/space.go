// Package outcomespace enumerates the candidate deals of a negotiation domain.
package outcomespace

import (
	"errors"
	"math/rand"

	"negotiation-lab/internal/domain"
)

// DefaultMaxCardinality bounds exhaustive enumeration.
const DefaultMaxCardinality = 10_000

var ErrNoIssues = errors.New("outcome space has no issues")
var ErrEmptyIssue = errors.New("issue has no values")

// Space supplies candidate outcomes.
type Space interface {
	// EnumerateOrSample returns every outcome when the space is small enough,
	// otherwise a bounded sample. Repeated calls return the same sequence.
	EnumerateOrSample() []domain.Outcome
}

// Discrete is a product space of issues with a finite number of values each.
type Discrete struct {
	Issues         []int // number of values per issue
	MaxCardinality int   // enumerate up to this many outcomes; <= 0 means DefaultMaxCardinality
	Seed           int64 // sampling seed when the space exceeds MaxCardinality
}

var _ Space = (*Discrete)(nil)

// NewDiscrete validates issue sizes and returns a Discrete space.
func NewDiscrete(issues []int, maxCardinality int, seed int64) (*Discrete, error) {
	if len(issues) == 0 {
		return nil, ErrNoIssues
	}
	for _, n := range issues {
		if n <= 0 {
			return nil, ErrEmptyIssue
		}
	}
	cp := make([]int, len(issues))
	copy(cp, issues)
	return &Discrete{Issues: cp, MaxCardinality: maxCardinality, Seed: seed}, nil
}

// Cardinality returns the number of outcomes, saturating at limit+1 so that
// large products do not overflow.
func (d *Discrete) Cardinality() int {
	limit := d.limit()
	total := 1
	for _, n := range d.Issues {
		if n <= 0 {
			return 0
		}
		total *= n
		if total > limit {
			return limit + 1
		}
	}
	if len(d.Issues) == 0 {
		return 0
	}
	return total
}

// EnumerateOrSample implements Space.
// Small spaces are enumerated in lexicographic order. Larger ones yield
// MaxCardinality distinct outcomes drawn with a generator seeded from Seed.
func (d *Discrete) EnumerateOrSample() []domain.Outcome {
	n := d.Cardinality()
	if n == 0 {
		return nil
	}
	if n <= d.limit() {
		return d.enumerate(n)
	}
	return d.sample()
}

func (d *Discrete) limit() int {
	if d.MaxCardinality <= 0 {
		return DefaultMaxCardinality
	}
	return d.MaxCardinality
}

func (d *Discrete) enumerate(n int) []domain.Outcome {
	out := make([]domain.Outcome, 0, n)
	idx := make([]int, len(d.Issues))
	for {
		out = append(out, domain.NewOutcome(idx...))

		// odometer increment, last issue fastest
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < d.Issues[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

func (d *Discrete) sample() []domain.Outcome {
	rng := rand.New(rand.NewSource(d.Seed))
	limit := d.limit()
	seen := make(map[domain.Outcome]struct{}, limit)
	out := make([]domain.Outcome, 0, limit)
	idx := make([]int, len(d.Issues))

	// the space is strictly larger than limit, so distinct draws terminate
	for len(out) < limit {
		for i, n := range d.Issues {
			idx[i] = rng.Intn(n)
		}
		o := domain.NewOutcome(idx...)
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
