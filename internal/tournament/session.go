package tournament

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/frontier"
	"negotiation-lab/internal/idhash"
	"negotiation-lab/internal/mechanism"
	"negotiation-lab/internal/scenario"
	"negotiation-lab/internal/strategy"
)

// SessionResult is one finished session with its offer trace.
type SessionResult struct {
	Record   *domain.SessionRecord
	Trace    []*domain.OfferTracePoint
	Duration time.Duration
	// OffersMade is the evaluated engine's offer count, 0 for other negotiators.
	OffersMade int
}

// RunSession plays the evaluated strategy (first mover) against opponent on
// sc and scores the outcome with the true utility functions.
// Steps:
//  1. Build the evaluated negotiator; it sees the opponent ufun with rv zeroed
//  2. Build the opponent negotiator on its own ufun
//  3. Run the SAO session, tracing every offer
//  4. Score the agreement against the true frontier
//  5. Attach opponent model diagnostics
func (r *Runner) RunSession(ctx context.Context, runID string, sc *scenario.Scenario, strategyCfg, opponentCfg domain.StrategyConfig) (*SessionResult, error) {
	started := time.Now()

	// 1. Evaluated negotiator
	self, err := strategy.FromConfig(strategyCfg, strategy.Params{
		Space:    sc.Space,
		Self:     sc.First,
		Opponent: sc.Second.WithReservedValue(0),
		Policy:   r.policy,
		Logger:   r.engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("build strategy %s: %w", strategyCfg.Name, err)
	}

	// 2. Opponent
	opp, err := strategy.FromConfig(opponentCfg, strategy.Params{
		Space: sc.Space,
		Self:  sc.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("build opponent %s: %w", opponentCfg.Name, err)
	}

	sessionID := idhash.ComputeSessionID(runID, sc.ID, self.ID(), opp.ID(), sc.Seed)

	// 3. Run
	var trace []*domain.OfferTracePoint
	steps := 0
	sink := mechanism.EventSinkFunc(func(_ context.Context, ev *mechanism.Event) error {
		steps = ev.Step + 1
		if r.watch != nil {
			r.watch(sessionID, ev)
		}
		if ev.Response.Type != domain.ResponseReject {
			return nil
		}
		o := ev.Response.Outcome
		trace = append(trace, &domain.OfferTracePoint{
			SessionID:       sessionID,
			Step:            ev.Step,
			RelativeTime:    ev.RelativeTime,
			Proposer:        ev.Proposer,
			OfferKey:        o.Key(),
			SelfUtility:     sc.First.Utility(o),
			OpponentUtility: sc.Second.Utility(o),
		})
		return nil
	})

	session, err := mechanism.NewSession(self, opp, sc.NSteps, sink)
	if err != nil {
		return nil, err
	}

	rec := &domain.SessionRecord{
		SessionID:        sessionID,
		RunID:            runID,
		ScenarioID:       sc.ConfigID,
		StrategyID:       self.ID(),
		OpponentID:       opp.ID(),
		Seed:             sc.Seed,
		NSteps:           sc.NSteps,
		SelfReserved:     sc.First.ReservedValue(),
		OpponentReserved: sc.Second.ReservedValue(),
	}

	result, err := session.Run(ctx)
	switch {
	case err == nil:
		rec.StepsUsed = result.StepsUsed
		rec.EndReason = result.EndReason
		rec.Agreement = !result.Agreement.IsZero()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		// protocol violation by a negotiator; the session scores as disagreement
		r.logf("session %s (%s vs %s) failed: %v", sessionID, self.ID(), opp.ID(), err)
		rec.EndReason = domain.EndReasonError
		rec.StepsUsed = steps
	}

	// 4. Score
	truth := frontier.Analyze(sc.Space.EnumerateOrSample(), sc.First, sc.Second)
	if rec.Agreement {
		rec.AgreementKey = result.Agreement.Key()
		rec.SelfUtility = sc.First.Utility(result.Agreement)
		rec.OpponentUtility = sc.Second.Utility(result.Agreement)
		rec.ParetoOptimal = truth.Contains(result.Agreement)
	} else {
		rec.SelfUtility = rec.SelfReserved
		rec.OpponentUtility = rec.OpponentReserved
	}
	rec.Welfare = rec.SelfUtility + rec.OpponentUtility
	rec.NashDistance = nashDistance(truth, rec)

	// 5. Diagnostics
	out := &SessionResult{Record: rec, Trace: trace}
	if engine, ok := self.(*strategy.Engine); ok {
		stats := engine.Stats()
		rec.EstimatedOpponentRV = stats.EstimatedOpponentRV
		rec.EstimateError = math.Abs(stats.EstimatedOpponentRV - rec.OpponentReserved)
		rec.FitAttempts = stats.FitAttempts
		rec.FitFailures = stats.FitFailures
		out.OffersMade = stats.OffersMade
	}
	out.Duration = time.Since(started)

	return out, nil
}

// nashDistance is the euclidean distance in utility space from the session
// result to the Nash point. Without a mutually rational outcome the Nash
// solution is the disagreement point.
func nashDistance(truth *frontier.Frontier, rec *domain.SessionRecord) float64 {
	nx, ny := rec.SelfReserved, rec.OpponentReserved
	if p, ok := truth.Nash(); ok {
		nx, ny = p.Self, p.Opponent
	}
	return math.Hypot(rec.SelfUtility-nx, rec.OpponentUtility-ny)
}
