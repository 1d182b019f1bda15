// Package metrics exposes Prometheus instruments for consultation turns.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage labels for degraded turn steps.
const (
	StageExtract = "extract"
	StageVision  = "vision"
	StageReply   = "reply"
	StageCommit  = "commit"
)

// Metrics holds the turn instruments. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// turnsTotal counts turns by resulting status and whether the context
	// was updated.
	turnsTotal *prometheus.CounterVec

	// failuresTotal counts degraded steps by stage.
	failuresTotal *prometheus.CounterVec

	// selectedScore observes the selected pattern's score.
	selectedScore *prometheus.HistogramVec

	// turnSeconds measures end-to-end turn latency.
	turnSeconds prometheus.Histogram
}

// New registers the instruments, plus Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		turnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcmdx",
			Subsystem: "consult",
			Name:      "turns_total",
			Help:      "Consultation turns by diagnosis status and context update",
		}, []string{"status", "updated"}),
		failuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcmdx",
			Subsystem: "consult",
			Name:      "degraded_total",
			Help:      "Turn steps that failed and were degraded, by stage",
		}, []string{"stage"}),
		selectedScore: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tcmdx",
			Subsystem: "diagnosis",
			Name:      "selected_score",
			Help:      "Score of the selected pattern by status",
			Buckets:   []float64{3, 10, 20, 30, 40, 50, 60, 80},
		}, []string{"status"}),
		turnSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tcmdx",
			Subsystem: "consult",
			Name:      "turn_seconds",
			Help:      "End-to-end turn latency including LLM calls",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

// RecordTurn records a completed turn.
func (m *Metrics) RecordTurn(status string, updated bool, score int, seconds float64) {
	if m == nil {
		return
	}
	u := "false"
	if updated {
		u = "true"
	}
	m.turnsTotal.WithLabelValues(status, u).Inc()
	if score > 0 {
		m.selectedScore.WithLabelValues(status).Observe(float64(score))
	}
	m.turnSeconds.Observe(seconds)
}

// RecordDegraded records a failed step that the turn survived.
func (m *Metrics) RecordDegraded(stage string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(stage).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
