// Package metrics holds the Prometheus collectors for activity and
// spelling workflows. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studybuddy"

// Session outcomes.
const (
	OutcomeFinished  = "finished"
	OutcomeAbandoned = "abandoned"
)

// Metrics groups every collector the app exports.
type Metrics struct {
	registry *prometheus.Registry

	activitiesGenerated prometheus.Counter
	generationFailures  prometheus.Counter
	activitiesGraded    prometheus.Counter
	spellingSessions    *prometheus.CounterVec
	mutationConflicts   prometheus.Counter
	generationSeconds   *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		activitiesGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_generated_total",
			Help:      "Daily activities generated and persisted",
		}),
		generationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_generation_failures_total",
			Help:      "Daily activity generations that failed",
		}),
		activitiesGraded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_graded_total",
			Help:      "Activities graded by a parent",
		}),
		spellingSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spelling_sessions_total",
			Help:      "Spelling sessions by outcome",
		}, []string{"outcome"}),
		mutationConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parent_mutation_conflicts_total",
			Help:      "Parent record writes that lost an optimistic race",
		}),
		generationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "content_generation_seconds",
			Help:      "Content generation latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"kind"}),
	}
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ActivityGenerated() {
	if m != nil {
		m.activitiesGenerated.Inc()
	}
}

func (m *Metrics) ActivityGenerationFailed() {
	if m != nil {
		m.generationFailures.Inc()
	}
}

func (m *Metrics) ActivityGraded() {
	if m != nil {
		m.activitiesGraded.Inc()
	}
}

// SpellingSession counts a session ending with outcome.
func (m *Metrics) SpellingSession(outcome string) {
	if m != nil {
		m.spellingSessions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ParentMutationConflict() {
	if m != nil {
		m.mutationConflicts.Inc()
	}
}

// ObserveGeneration records how long a content request of kind took.
func (m *Metrics) ObserveGeneration(kind string, d time.Duration) {
	if m != nil {
		m.generationSeconds.WithLabelValues(kind).Observe(d.Seconds())
	}
}
