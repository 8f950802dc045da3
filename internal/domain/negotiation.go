package domain

// NegotiationState is the per-round view handed to a negotiator.
type NegotiationState struct {
	CurrentOffer Outcome // empty before the counterpart has offered
	RelativeTime float64 // in [0,1]
	Step         int     // zero-based round index
	TotalSteps   int     // number of rounds in the session
}

// Remaining returns the number of rounds left, counted the way the
// deadline guards expect (TotalSteps - Step).
func (s NegotiationState) Remaining() int {
	return s.TotalSteps - s.Step
}

// ResponseType is the kind of action a negotiator takes in a round.
type ResponseType string

const (
	ResponseAccept ResponseType = "ACCEPT"
	ResponseReject ResponseType = "REJECT"
	ResponseEnd    ResponseType = "END"
)

// String returns the string representation of ResponseType.
func (r ResponseType) String() string {
	return string(r)
}

// IsValid checks if the response type is a valid value.
func (r ResponseType) IsValid() bool {
	return r == ResponseAccept || r == ResponseReject || r == ResponseEnd
}

// Response is one round's action.
// ACCEPT carries the accepted offer, REJECT carries the counteroffer
// (never empty), END carries nothing.
type Response struct {
	Type    ResponseType
	Outcome Outcome
}

// Accept builds an ACCEPT response for offer.
func Accept(offer Outcome) Response {
	return Response{Type: ResponseAccept, Outcome: offer}
}

// Reject builds a REJECT response carrying counter.
func Reject(counter Outcome) Response {
	return Response{Type: ResponseReject, Outcome: counter}
}

// End builds an END response.
func End() Response {
	return Response{Type: ResponseEnd}
}

// Valid reports whether the response respects the protocol contract.
func (r Response) Valid() bool {
	switch r.Type {
	case ResponseAccept, ResponseEnd:
		return true
	case ResponseReject:
		return !r.Outcome.IsZero()
	default:
		return false
	}
}

// OpponentObservation is one observed opponent offer, scored by the
// opponent's utility function.
type OpponentObservation struct {
	RelativeTime float64
	Utility      float64
}
