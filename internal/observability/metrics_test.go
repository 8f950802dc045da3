package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordSession("Boulware", "AGREEMENT", 40, 0.8, 0.01)
	m.RecordSession("Boulware", "AGREEMENT", 20, 0.7, 0.01)
	m.RecordSession("Linear", "TIMEOUT", 100, 0.2, 0.02)

	assert.Equal(t, 2.0, value(t, m.SessionsCompleted.WithLabelValues("Boulware", "AGREEMENT")))
	assert.Equal(t, 1.0, value(t, m.SessionsCompleted.WithLabelValues("Linear", "TIMEOUT")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var steps *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_session_steps" {
			steps = f
		}
	}
	require.NotNil(t, steps)
	assert.Equal(t, uint64(3), steps.GetMetric()[0].GetHistogram().GetSampleCount())
}

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	switch {
	case m.Counter != nil:
		return m.GetCounter().GetValue()
	case m.Gauge != nil:
		return m.GetGauge().GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestMetrics_RecordModelAndRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordModel(10, 2, 15, 0.05)
	m.RecordTournamentRun("success", 3.5, 1700000000)
	m.RecordTournamentRun("failure", 1.0, 1700000100)

	assert.Equal(t, 10.0, value(t, m.FitAttempts))
	assert.Equal(t, 2.0, value(t, m.FitFailures))
	assert.Equal(t, 15.0, value(t, m.OffersGenerated))
	assert.Equal(t, 1.0, value(t, m.TournamentRunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1700000000.0, value(t, m.LastSuccessfulRun))
}

func TestMetrics_RecordDBQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordDBQuery("postgres", "insert", 0.01, nil)
	m.RecordDBQuery("postgres", "insert", 0.02, assert.AnError)

	assert.Equal(t, 1.0, value(t, m.DBQueryErrors.WithLabelValues("postgres", "insert")))
}
