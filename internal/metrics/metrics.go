// Package metrics defines the Prometheus collectors for document generation
// and the task lifecycle. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docflow"

// Render outcomes used as the "outcome" label.
const (
	OutcomeGenerated = "generated"
	OutcomeFailed    = "failed"
)

// Metrics holds every collector, registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	renderDuration *prometheus.HistogramVec
	documents      *prometheus.CounterVec
	batches        *prometheus.CounterVec
	transitions    *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering and storing one template.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"outcome"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "documents_total",
			Help:      "Documents attempted, by outcome.",
		}, []string{"outcome"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "batches_total",
			Help:      "Generation batches, by result (success, partial, failed).",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "transitions_total",
			Help:      "Task status transitions.",
		}, []string{"from", "to"}),
	}
	m.registry.MustRegister(m.renderDuration, m.documents, m.batches, m.transitions)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRender records one template render.
func (m *Metrics) ObserveRender(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeGenerated
	if !ok {
		outcome = OutcomeFailed
	}
	m.renderDuration.WithLabelValues(outcome).Observe(d.Seconds())
	m.documents.WithLabelValues(outcome).Inc()
}

// ObserveBatch records a finished batch as success, partial or failed.
func (m *Metrics) ObserveBatch(result string) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(result).Inc()
}

// ObserveTransition records a task status change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// Documents exposes the document counter for one outcome.
func (m *Metrics) Documents(outcome string) prometheus.Counter {
	return m.documents.WithLabelValues(outcome)
}

// Transitions exposes the transition counter for one edge.
func (m *Metrics) Transitions(from, to string) prometheus.Counter {
	return m.transitions.WithLabelValues(from, to)
}

// Batches exposes the batch counter for one result.
func (m *Metrics) Batches(result string) prometheus.Counter {
	return m.batches.WithLabelValues(result)
}
