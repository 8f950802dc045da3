package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"negotiation-lab/internal/config"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/observability"
	"negotiation-lab/internal/orchestrator"
	"negotiation-lab/internal/pipeline"
	"negotiation-lab/internal/scenario"
	"negotiation-lab/internal/storage"
	"negotiation-lab/internal/storage/backend"
	"negotiation-lab/internal/strategy"
	"negotiation-lab/internal/tournament"
)

// adHocRunID is the run ID of sessions started through the HTTP API.
const adHocRunID = "api"

// Server holds all components of the service.
type Server struct {
	cfg                config.Config
	stores             *backend.Stores
	outputDir          string
	tournamentInterval time.Duration

	runner *tournament.Runner
	hub    *hub
	logger *log.Logger

	// State
	mu                sync.Mutex
	started           time.Time
	lastTournamentRun time.Time
	tournamentRunning bool
	tournamentRuns    int
	lastDecision      string
	lastRunID         string
}

// Options configures a Server.
type Options struct {
	Config             config.Config
	Stores             *backend.Stores
	OutputDir          string
	TournamentInterval time.Duration // <= 0 disables the scheduler
	Logger             *log.Logger
}

// NewServer creates a server over opts.Stores.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[server] ", log.LstdFlags)
	}
	s := &Server{
		cfg:                opts.Config,
		stores:             opts.Stores,
		outputDir:          opts.OutputDir,
		tournamentInterval: opts.TournamentInterval,
		logger:             logger,
		started:            time.Now(),
	}
	s.hub = newHub(observability.DefaultMetrics.WSClients, logger)
	s.runner = tournament.NewRunner(tournament.RunnerOptions{
		SessionStore: opts.Stores.Sessions,
		TraceStore:   opts.Stores.Traces,
		Metrics:      observability.DefaultMetrics,
		Policy:       opts.Config.Policy,
		Concurrency:  opts.Config.Tournament.Concurrency,
		Logger:       log.New(os.Stdout, "[tournament] ", log.LstdFlags),
		Watch:        s.hub.watch,
	})
	return s
}

// Run serves HTTP and runs the tournament scheduler until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.logger.Println("Starting server...")

	httpServer := &http.Server{Addr: addr, Handler: s.routes()}
	errCh := make(chan error, 2)

	go func() {
		s.logger.Printf("Starting HTTP server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.tournamentInterval > 0 {
		go func() {
			if err := s.runTournamentScheduler(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("tournament scheduler: %w", err)
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Printf("HTTP shutdown: %v", shutdownErr)
	}
	return err
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /ws/sessions", s.hub.serveWS)

	return mux
}

// runTournamentScheduler runs a tournament immediately and then on every tick.
func (s *Server) runTournamentScheduler(ctx context.Context) error {
	s.logger.Printf("Starting tournament scheduler (interval: %v)...", s.tournamentInterval)

	s.runTournament(ctx)

	ticker := time.NewTicker(s.tournamentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runTournament(ctx)
		}
	}
}

// runTournament executes one tournament and regenerates the reports.
// Each run shifts the base seed so repeated runs cover new scenarios.
func (s *Server) runTournament(ctx context.Context) {
	s.mu.Lock()
	if s.tournamentRunning {
		s.mu.Unlock()
		s.logger.Println("Tournament already running, skipping...")
		return
	}
	s.tournamentRunning = true
	runIndex := s.tournamentRuns
	s.mu.Unlock()

	var runID, verdict string
	defer func() {
		s.mu.Lock()
		s.tournamentRunning = false
		s.lastTournamentRun = time.Now()
		s.tournamentRuns++
		if runID != "" {
			s.lastRunID = runID
		}
		if verdict != "" {
			s.lastDecision = verdict
		}
		s.mu.Unlock()
	}()

	s.logger.Println("Running tournament...")
	start := time.Now()

	t := s.cfg.Tournament
	orch := orchestrator.New(orchestrator.Options{
		Runner:                 s.runner,
		SessionStore:           s.stores.Sessions,
		StrategyAggregateStore: s.stores.Aggregates,
		Opponents:              t.OpponentConfigs(),
		Scenarios:              t.ScenarioConfigs(),
		Sessions:               t.Sessions,
		BaseSeed:               t.BaseSeed + int64(runIndex)*int64(t.Sessions),
		NSteps:                 t.NSteps,
		Verbose:                true,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		s.logger.Printf("Tournament error: %v", err)
		return
	}
	runID = result.RunID

	s.logger.Printf("Tournament %s completed in %v: %d sessions, %d agreements, %d aggregates",
		result.RunID, time.Since(start), result.SessionsRun, result.Agreements, result.AggregatesCreated)

	report, err := pipeline.NewReportPipeline(s.stores.Sessions, s.stores.Aggregates, s.outputDir).
		WithThresholds(s.cfg.Decision).
		WithSufficiencyChecker(s.cfg.Sufficiency).
		Run(ctx)
	if err != nil {
		s.logger.Printf("Report generation error: %v", err)
		return
	}
	verdict = string(report.Decision)
	s.logger.Printf("Reports generated to %s/ (decision %s)", s.outputDir, report.Decision)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status            string    `json:"status"`
	Uptime            string    `json:"uptime"`
	Started           time.Time `json:"started"`
	LastTournamentRun time.Time `json:"last_tournament_run,omitempty"`
	LastRunID         string    `json:"last_run_id,omitempty"`
	LastDecision      string    `json:"last_decision,omitempty"`
	TournamentRuns    int       `json:"tournament_runs"`
	TournamentRunning bool      `json:"tournament_running"`
	StreamClients     int       `json:"stream_clients"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:            "running",
		Uptime:            time.Since(s.started).String(),
		Started:           s.started,
		LastTournamentRun: s.lastTournamentRun,
		LastRunID:         s.lastRunID,
		LastDecision:      s.lastDecision,
		TournamentRuns:    s.tournamentRuns,
		TournamentRunning: s.tournamentRunning,
	}
	s.mu.Unlock()
	resp.StreamClients = s.hub.count()

	writeJSON(w, http.StatusOK, resp)
}

// SessionRequest is the body of POST /sessions.
type SessionRequest struct {
	Scenario string   `json:"scenario"`
	Seed     int64    `json:"seed"`
	Opponent string   `json:"opponent"`
	Exponent *float64 `json:"exponent,omitempty"`
	Steps    int      `json:"steps,omitempty"`
	Persist  bool     `json:"persist,omitempty"`
}

// SessionResponse carries a session record and its offer trace.
type SessionResponse struct {
	Record *domain.SessionRecord     `json:"record"`
	Trace  []*domain.OfferTracePoint `json:"trace"`
}

// handleCreateSession plays one adaptive-engine session. Its turns are
// streamed to websocket subscribers while it runs.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Scenario == "" {
		req.Scenario = domain.ScenarioStandard
	}
	scenarioCfg, ok := domain.ScenarioConfigByID(strings.ToLower(req.Scenario))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", config.ErrUnknownScenario, req.Scenario))
		return
	}
	if req.Steps > 0 {
		scenarioCfg.NSteps = req.Steps
	}

	if req.Opponent == "" && req.Exponent == nil {
		req.Opponent = strategy.PresetBoulware
	}
	opponentCfg := domain.StrategyConfig{
		StrategyType: domain.StrategyTypeTimeBased,
		Name:         req.Opponent,
		Exponent:     req.Exponent,
	}
	if _, err := strategy.FromConfig(opponentCfg, strategy.Params{}); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("opponent %q: %w", req.Opponent, err))
		return
	}

	sc, err := scenario.Generate(scenarioCfg, req.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.runner.RunSession(r.Context(), adHocRunID, sc, strategy.AdaptiveConfig(), opponentCfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if req.Persist {
		if err := s.stores.Sessions.Insert(r.Context(), res.Record); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrDuplicateKey) {
				status = http.StatusConflict
			}
			writeError(w, status, err)
			return
		}
		if len(res.Trace) > 0 {
			if err := s.stores.Traces.InsertBulk(r.Context(), res.Trace); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, SessionResponse{Record: res.Record, Trace: res.Trace})
}

// handleGetSession returns a stored session with its trace.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := s.stores.Sessions.GetByID(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}

	trace, err := s.stores.Traces.GetBySessionID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Record: rec, Trace: trace})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
