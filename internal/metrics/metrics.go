package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "codegen"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	completionsDescription     = "Model completions by provider and outcome"
	completionDurationDesc     = "Latency of blocking model completions in seconds"
	activeSessionsDescription  = "Sessions currently held in memory"
	transcriptTurnsDescription = "Turns appended to session transcripts by role"
)

// Metrics holds the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	Completions        *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	ActiveSessions     prometheus.Gauge
	TranscriptTurns    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      completionsDescription,
		}, []string{"provider", "outcome"}),
		CompletionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      completionDurationDesc,
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      activeSessionsDescription,
		}),
		TranscriptTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_turns_total",
			Help:      transcriptTurnsDescription,
		}, []string{"role"}),
	}

	m.registry.MustRegister(
		m.Completions,
		m.CompletionDuration,
		m.ActiveSessions,
		m.TranscriptTurns,
	)
	return m
}

// ObserveCompletion records one model call. A nil receiver is a no-op.
func (m *Metrics) ObserveCompletion(provider string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeFailure
	}
	m.Completions.WithLabelValues(provider, outcome).Inc()
	m.CompletionDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveTurn counts an appended turn.
func (m *Metrics) ObserveTurn(role string) {
	if m == nil {
		return
	}
	m.TranscriptTurns.WithLabelValues(role).Inc()
}

// SetActiveSessions publishes the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
