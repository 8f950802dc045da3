package domain

import (
	"strconv"
	"strings"
)

// Outcome identifies one candidate deal as a tuple of per-issue value indices.
// It is comparable and safe to use as a map key; two outcomes are equal
// exactly when their value tuples are equal.
// The zero Outcome is the empty outcome (no offer).
type Outcome struct {
	key string
}

// NewOutcome builds an outcome from per-issue value indices.
// Indices must be non-negative.
func NewOutcome(values ...int) Outcome {
	if len(values) == 0 {
		return Outcome{}
	}
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return Outcome{key: b.String()}
}

// ParseOutcome rebuilds an outcome from its Key.
func ParseOutcome(key string) (Outcome, error) {
	if key == "" {
		return Outcome{}, nil
	}
	parts := strings.Split(key, ",")
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Outcome{}, ErrInvalidOutcomeKey
		}
		values[i] = v
	}
	return NewOutcome(values...), nil
}

// Key returns the stable structural key of the outcome.
func (o Outcome) Key() string {
	return o.key
}

// IsZero reports whether o is the empty outcome.
func (o Outcome) IsZero() bool {
	return o.key == ""
}

// Values returns a copy of the per-issue value indices.
func (o Outcome) Values() []int {
	if o.key == "" {
		return nil
	}
	parts := strings.Split(o.key, ",")
	values := make([]int, len(parts))
	for i, p := range parts {
		values[i], _ = strconv.Atoi(p)
	}
	return values
}

// String returns a human readable form, e.g. "(1,0,3)".
func (o Outcome) String() string {
	if o.key == "" {
		return "()"
	}
	return "(" + o.key + ")"
}

// Less orders outcomes by their value tuples (lexicographic, numeric per issue).
// Keys are compared segment by segment without parsing; segments are
// canonical decimals, so a shorter segment is the smaller value.
func (o Outcome) Less(other Outcome) bool {
	a, b := o.key, other.key
	for a != "" && b != "" {
		var sa, sb string
		sa, a = nextSegment(a)
		sb, b = nextSegment(b)
		if len(sa) != len(sb) {
			return len(sa) < len(sb)
		}
		if sa != sb {
			return sa < sb
		}
	}
	return a == "" && b != ""
}

// nextSegment splits the first value off a key.
func nextSegment(key string) (segment, rest string) {
	if i := strings.IndexByte(key, ','); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}
