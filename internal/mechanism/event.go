package mechanism

import (
	"context"

	"negotiation-lab/internal/domain"
)

// Event is one negotiator turn.
type Event struct {
	Step         int
	RelativeTime float64
	Proposer     string // ID of the negotiator that acted
	Index        int    // 0 for the first mover, 1 for the second
	Standing     domain.Outcome
	Response     domain.Response
}

// EventSink receives every turn in order.
type EventSink interface {
	OnEvent(ctx context.Context, event *Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event *Event) error

// OnEvent calls f.
func (f EventSinkFunc) OnEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
