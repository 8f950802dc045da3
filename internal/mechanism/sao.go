// Package mechanism runs stacked alternating offers sessions.
package mechanism

import (
	"context"
	"fmt"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/strategy"
)

// Result is the end state of a session.
type Result struct {
	Agreement domain.Outcome // zero unless EndReason is AGREEMENT
	EndReason string
	StepsUsed int
	// AcceptedBy is the index of the negotiator that accepted, -1 otherwise.
	AcceptedBy int
}

// Session is a bilateral SAO session. The first negotiator moves at step 0
// against an empty standing offer.
type Session struct {
	negotiators [2]strategy.Negotiator
	nSteps      int
	sink        EventSink
}

// NewSession creates a session of nSteps turns. sink may be nil.
func NewSession(first, second strategy.Negotiator, nSteps int, sink EventSink) (*Session, error) {
	if first == nil || second == nil {
		return nil, ErrMissingNegotiator
	}
	if nSteps < 2 {
		return nil, ErrInvalidSteps
	}
	return &Session{
		negotiators: [2]strategy.Negotiator{first, second},
		nSteps:      nSteps,
		sink:        sink,
	}, nil
}

// RelativeTime maps step s of n to s/(n-1).
func RelativeTime(step, nSteps int) float64 {
	if nSteps <= 1 {
		return 1
	}
	return float64(step) / float64(nSteps-1)
}

// Run drives the session until agreement, END or timeout.
// Process per step s:
//  1. Hand the standing offer to negotiator s%2
//  2. Emit the turn to the sink
//  3. ACCEPT of a non-empty offer ends with agreement, END ends without one
//  4. REJECT replaces the standing offer with the counter offer
func (s *Session) Run(ctx context.Context) (*Result, error) {
	var standing domain.Outcome

	for step := 0; step < s.nSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := step % 2
		n := s.negotiators[idx]

		// 1. Ask the negotiator to respond
		resp := n.Respond(domain.NegotiationState{
			CurrentOffer: standing,
			RelativeTime: RelativeTime(step, s.nSteps),
			Step:         step,
			TotalSteps:   s.nSteps,
		})

		// 2. Emit
		if s.sink != nil {
			ev := &Event{
				Step:         step,
				RelativeTime: RelativeTime(step, s.nSteps),
				Proposer:     n.ID(),
				Index:        idx,
				Standing:     standing,
				Response:     resp,
			}
			if err := s.sink.OnEvent(ctx, ev); err != nil {
				return nil, fmt.Errorf("event sink at step %d: %w", step, err)
			}
		}

		// 3-4. Apply
		switch resp.Type {
		case domain.ResponseAccept:
			if standing.IsZero() {
				// nothing to accept yet
				continue
			}
			return &Result{
				Agreement:  standing,
				EndReason:  domain.EndReasonAgreement,
				StepsUsed:  step + 1,
				AcceptedBy: idx,
			}, nil
		case domain.ResponseEnd:
			return &Result{EndReason: domain.EndReasonEnded, StepsUsed: step + 1, AcceptedBy: -1}, nil
		case domain.ResponseReject:
			if resp.Outcome.IsZero() {
				return nil, fmt.Errorf("%s at step %d: %w", n.ID(), step, ErrEmptyCounterOffer)
			}
			standing = resp.Outcome
		default:
			return nil, fmt.Errorf("%s at step %d: %w: %q", n.ID(), step, ErrInvalidResponse, resp.Type)
		}
	}

	return &Result{EndReason: domain.EndReasonTimeout, StepsUsed: s.nSteps, AcceptedBy: -1}, nil
}
