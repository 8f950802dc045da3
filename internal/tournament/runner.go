// Package tournament runs many seeded negotiation sessions of one evaluated
// strategy against a pool of opponents.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/idhash"
	"negotiation-lab/internal/mechanism"
	"negotiation-lab/internal/observability"
	"negotiation-lab/internal/scenario"
	"negotiation-lab/internal/storage"
	"negotiation-lab/internal/strategy"
)

// Runner errors
var (
	ErrNoSessions  = errors.New("sessions must be positive")
	ErrNoOpponents = errors.New("at least one opponent is required")
)

// DefaultConcurrency is the number of sessions run in parallel by default.
const DefaultConcurrency = 4

// Config describes one tournament run.
type Config struct {
	RunID     string // empty generates a uuid
	Scenario  domain.ScenarioConfig
	Sessions  int
	BaseSeed  int64
	NSteps    int                     // overrides Scenario.NSteps when positive
	Strategy  domain.StrategyConfig   // zero value uses the adaptive engine
	Opponents []domain.StrategyConfig // empty uses the time-based presets
}

// Runner executes tournaments.
type Runner struct {
	sessionStore storage.SessionRecordStore
	traceStore   storage.OfferTraceStore
	metrics      *observability.Metrics
	policy       strategy.Policy
	concurrency  int
	logger       *log.Logger
	engineLogger *log.Logger
	watch        WatchFunc
}

// WatchFunc observes every turn of every session as it happens.
// It is called from session goroutines and must be safe for concurrent use.
type WatchFunc func(sessionID string, ev *mechanism.Event)

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	SessionStore storage.SessionRecordStore // optional
	TraceStore   storage.OfferTraceStore    // optional
	Metrics      *observability.Metrics     // optional
	Policy       strategy.Policy            // zero value uses strategy.DefaultPolicy()
	Concurrency  int                        // <= 0 uses DefaultConcurrency
	Logger       *log.Logger                // optional
	// EngineLogger receives per-round engine diagnostics. Very verbose.
	EngineLogger *log.Logger
	Watch        WatchFunc // optional
}

// NewRunner creates a tournament runner.
func NewRunner(opts RunnerOptions) *Runner {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Runner{
		sessionStore: opts.SessionStore,
		traceStore:   opts.TraceStore,
		metrics:      opts.Metrics,
		policy:       opts.Policy,
		concurrency:  concurrency,
		logger:       opts.Logger,
		engineLogger: opts.EngineLogger,
		watch:        opts.Watch,
	}
}

// Summary is the outcome of a tournament run.
type Summary struct {
	RunID      string
	Sessions   int
	Agreements int
	Errors     int
	Records    []*domain.SessionRecord // session index order
	Duration   time.Duration
}

// Run plays cfg.Sessions sessions.
// Steps:
//  1. Validate the config and resolve defaults
//  2. Run sessions concurrently; session i uses scenario seed
//     idhash.ComputeScenarioSeed(BaseSeed, i) and opponent i mod len(Opponents)
//  3. Persist records and traces in session order
//  4. Record run metrics
func (r *Runner) Run(ctx context.Context, cfg Config) (*Summary, error) {
	started := time.Now()

	// 1. Validate
	if cfg.Sessions <= 0 {
		return nil, ErrNoSessions
	}
	if err := scenario.Validate(cfg.Scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", cfg.Scenario.ScenarioID, err)
	}
	if cfg.Strategy == (domain.StrategyConfig{}) {
		cfg.Strategy = strategy.AdaptiveConfig()
	}
	if len(cfg.Opponents) == 0 {
		cfg.Opponents = strategy.PresetOpponents()
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	scenarioCfg := cfg.Scenario
	if cfg.NSteps > 0 {
		scenarioCfg.NSteps = cfg.NSteps
	}

	r.logf("run %s: %d sessions on %s (%d steps)", cfg.RunID, cfg.Sessions, scenarioCfg.ScenarioID, scenarioCfg.NSteps)

	// 2. Run sessions
	results := make([]*SessionResult, cfg.Sessions)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i := 0; i < cfg.Sessions; i++ {
		g.Go(func() error {
			seed := idhash.ComputeScenarioSeed(cfg.BaseSeed, i)
			sc, err := scenario.Generate(scenarioCfg, seed)
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			opponentCfg := cfg.Opponents[i%len(cfg.Opponents)]

			if r.metrics != nil {
				r.metrics.SessionsInFlight.Inc()
				defer r.metrics.SessionsInFlight.Dec()
			}

			res, err := r.RunSession(gctx, cfg.RunID, sc, cfg.Strategy, opponentCfg)
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			results[i] = res
			r.observe(res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.recordRun("failure", started)
		return nil, err
	}

	// 3. Persist
	summary := &Summary{
		RunID:    cfg.RunID,
		Sessions: cfg.Sessions,
		Records:  make([]*domain.SessionRecord, 0, cfg.Sessions),
	}
	var trace []*domain.OfferTracePoint
	for _, res := range results {
		summary.Records = append(summary.Records, res.Record)
		trace = append(trace, res.Trace...)
		if res.Record.Agreement {
			summary.Agreements++
		}
		if res.Record.EndReason == domain.EndReasonError {
			summary.Errors++
		}
	}

	if r.sessionStore != nil {
		if err := r.sessionStore.InsertBulk(ctx, summary.Records); err != nil {
			r.recordRun("failure", started)
			return nil, fmt.Errorf("store session records: %w", err)
		}
	}
	if r.traceStore != nil && len(trace) > 0 {
		if err := r.traceStore.InsertBulk(ctx, trace); err != nil {
			r.recordRun("failure", started)
			return nil, fmt.Errorf("store offer traces: %w", err)
		}
	}

	// 4. Metrics
	summary.Duration = time.Since(started)
	r.recordRun("success", started)
	r.logf("run %s: %d/%d agreements, %d errors in %s",
		cfg.RunID, summary.Agreements, summary.Sessions, summary.Errors, summary.Duration.Round(time.Millisecond))

	return summary, nil
}

func (r *Runner) observe(res *SessionResult) {
	if r.metrics == nil {
		return
	}
	rec := res.Record
	r.metrics.RecordSession(rec.OpponentID, rec.EndReason, rec.StepsUsed, rec.SelfUtility, res.Duration.Seconds())
	r.metrics.RecordModel(rec.FitAttempts, rec.FitFailures, res.OffersMade, rec.EstimateError)
	if rec.EndReason == domain.EndReasonError {
		r.metrics.RecordSessionError("protocol")
	}
}

func (r *Runner) recordRun(status string, started time.Time) {
	if r.metrics == nil {
		return
	}
	now := time.Now()
	r.metrics.RecordTournamentRun(status, now.Sub(started).Seconds(), now.Unix())
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
