package domain

// SessionRecord represents one completed negotiation session.
// Corresponds to session_records table in PostgreSQL/SQLite.
type SessionRecord struct {
	SessionID  string // PRIMARY KEY, deterministic hash
	RunID      string // tournament run (uuid)
	ScenarioID string // scenario config ("small", "standard", ...)
	StrategyID string // evaluated negotiator
	OpponentID string // counterpart negotiator
	Seed       int64  // scenario seed

	NSteps    int // configured rounds
	StepsUsed int // rounds until agreement or timeout

	// Agreement
	Agreement       bool
	AgreementKey    string  // Outcome.Key(), empty without agreement
	SelfUtility     float64 // strategy utility of agreement (reserved value if none)
	OpponentUtility float64 // opponent utility of agreement (reserved value if none)

	// Reservation values (private, known to the runner only)
	SelfReserved     float64
	OpponentReserved float64

	// Efficiency
	Welfare       float64 // SelfUtility + OpponentUtility
	NashDistance  float64 // euclidean distance to Nash point in utility space
	ParetoOptimal bool

	EndReason string // AGREEMENT | TIMEOUT | ENDED | ERROR

	// Opponent model diagnostics
	EstimatedOpponentRV float64
	EstimateError       float64 // |estimate - true opponent reserved value|
	FitAttempts         int
	FitFailures         int
}

// End reason codes
const (
	EndReasonAgreement = "AGREEMENT"
	EndReasonTimeout   = "TIMEOUT"
	EndReasonEnded     = "ENDED"
	EndReasonError     = "ERROR"
)

// OfferTracePoint represents one offer exchanged during a session.
// Corresponds to offer_traces table in ClickHouse.
type OfferTracePoint struct {
	SessionID       string
	Step            int
	RelativeTime    float64
	Proposer        string // negotiator ID
	OfferKey        string // Outcome.Key()
	SelfUtility     float64
	OpponentUtility float64
}
