package mechanism

import "errors"

var (
	// ErrEmptyCounterOffer is returned when a negotiator rejects without proposing.
	ErrEmptyCounterOffer = errors.New("reject response carries no counter offer")
	// ErrInvalidResponse is returned for a response type the protocol does not know.
	ErrInvalidResponse = errors.New("invalid response type")
	// ErrInvalidSteps is returned when a session is configured with fewer than two steps.
	ErrInvalidSteps = errors.New("n_steps must be at least 2")
	// ErrMissingNegotiator is returned when either side is nil.
	ErrMissingNegotiator = errors.New("both negotiators are required")
)
