package strategy

import (
	"negotiation-lab/internal/domain"
)

// Negotiator produces one response per negotiation round.
// Instances hold per-session state and are not safe for concurrent use.
type Negotiator interface {
	// Respond decides the action for the given round.
	Respond(state domain.NegotiationState) domain.Response

	// ID returns negotiator identifier (includes parameters).
	ID() string
}
