// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Session metrics
	SessionsCompleted *prometheus.CounterVec
	SessionSteps      prometheus.Histogram
	SessionDuration   prometheus.Histogram
	SelfUtility       *prometheus.HistogramVec
	SessionErrors     *prometheus.CounterVec

	// Opponent model metrics
	FitAttempts     prometheus.Counter
	FitFailures     prometheus.Counter
	EstimateError   prometheus.Histogram
	OffersGenerated prometheus.Counter

	// Tournament metrics
	TournamentRunsTotal *prometheus.CounterVec
	TournamentDuration  prometheus.Histogram
	SessionsInFlight    prometheus.Gauge
	AggregatesComputed  prometheus.Counter
	ReportsGenerated    prometheus.Counter

	// Server metrics
	WSClients prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "negotiation_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	utilityBuckets := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

	return &Metrics{
		// Session metrics
		SessionsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "completed_total",
			Help:      "Total number of sessions by opponent and end reason",
		}, []string{"opponent", "end_reason"}),
		SessionSteps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "steps",
			Help:      "Steps used per session",
			Buckets:   []float64{2, 5, 10, 20, 50, 100, 200, 500, 1000},
		}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Wall-clock session duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SelfUtility: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "self_utility",
			Help:      "Utility obtained by the evaluated strategy",
			Buckets:   utilityBuckets,
		}, []string{"opponent"}),
		SessionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "errors_total",
			Help:      "Total number of sessions that failed by error type",
		}, []string{"error_type"}),

		// Opponent model metrics
		FitAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opponent_model",
			Name:      "fit_attempts_total",
			Help:      "Total number of concession curve fits attempted",
		}),
		FitFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opponent_model",
			Name:      "fit_failures_total",
			Help:      "Total number of concession curve fits that did not converge",
		}),
		EstimateError: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "opponent_model",
			Name:      "reserved_value_error",
			Help:      "Absolute error of the final opponent reserved value estimate",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1},
		}),
		OffersGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opponent_model",
			Name:      "offers_generated_total",
			Help:      "Total number of counter offers made by the evaluated strategy",
		}),

		// Tournament metrics
		TournamentRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "runs_total",
			Help:      "Total number of tournament runs by status",
		}, []string{"status"}),
		TournamentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "duration_seconds",
			Help:      "Tournament execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		SessionsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "sessions_in_flight",
			Help:      "Sessions currently running",
		}),
		AggregatesComputed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "aggregates_computed_total",
			Help:      "Total number of strategy aggregates computed",
		}),
		ReportsGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Server metrics
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "ws_clients",
			Help:      "Connected websocket clients",
		}),

		// Database metrics
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful tournament run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordSession records one finished session.
func (m *Metrics) RecordSession(opponent, endReason string, steps int, selfUtility, seconds float64) {
	m.SessionsCompleted.WithLabelValues(opponent, endReason).Inc()
	m.SessionSteps.Observe(float64(steps))
	m.SelfUtility.WithLabelValues(opponent).Observe(selfUtility)
	m.SessionDuration.Observe(seconds)
}

// RecordModel records the opponent model counters of one session.
func (m *Metrics) RecordModel(fitAttempts, fitFailures, offers int, estimateError float64) {
	m.FitAttempts.Add(float64(fitAttempts))
	m.FitFailures.Add(float64(fitFailures))
	m.OffersGenerated.Add(float64(offers))
	m.EstimateError.Observe(estimateError)
}

// RecordSessionError records a failed session.
func (m *Metrics) RecordSessionError(errorType string) {
	m.SessionErrors.WithLabelValues(errorType).Inc()
}

// RecordTournamentRun records a tournament run.
func (m *Metrics) RecordTournamentRun(status string, durationSeconds float64, finishedAt int64) {
	m.TournamentRunsTotal.WithLabelValues(status).Inc()
	m.TournamentDuration.Observe(durationSeconds)
	if status == "success" {
		m.LastSuccessfulRun.Set(float64(finishedAt))
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordSession records a session on the default metrics.
func RecordSession(opponent, endReason string, steps int, selfUtility, seconds float64) {
	DefaultMetrics.RecordSession(opponent, endReason, steps, selfUtility, seconds)
}

// RecordDBQuery records database query metrics on the default metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
