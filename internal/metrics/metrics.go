// Package metrics holds the prometheus collectors of the engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the engine's collectors.
type Metrics struct {
	EventsPublished  *prometheus.CounterVec
	EventsDropped    *prometheus.CounterVec
	PersistFailures  *prometheus.CounterVec
	OutboxDepth      prometheus.Gauge
	OutboxReplayed   prometheus.Counter
	Recomputes       *prometheus.CounterVec
	CompensatingTxns prometheus.Counter
}

// New creates the collectors and registers them with reg (if non-nil).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leora",
			Name:      "events_published_total",
			Help:      "Domain events delivered on the in-process bus.",
		}, []string{"event"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leora",
			Name:      "events_dropped_total",
			Help:      "Events refused because the propagation depth limit was hit.",
		}, []string{"event"}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leora",
			Name:      "persist_failures_total",
			Help:      "Write-behind operations that failed against the DAO.",
		}, []string{"op"}),
		OutboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leora",
			Name:      "outbox_depth",
			Help:      "Operations waiting in the outbox.",
		}),
		OutboxReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leora",
			Name:      "outbox_replayed_total",
			Help:      "Operations successfully written from the outbox.",
		}),
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leora",
			Name:      "recomputes_total",
			Help:      "Full derived-field recomputations, by entity family.",
		}, []string{"family"}),
		CompensatingTxns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leora",
			Name:      "compensating_transactions_total",
			Help:      "Transactions synthesized to back manual goal progress.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.EventsPublished,
			m.EventsDropped,
			m.PersistFailures,
			m.OutboxDepth,
			m.OutboxReplayed,
			m.Recomputes,
			m.CompensatingTxns,
		)
	}
	return m
}

func (m *Metrics) EventPublished(name string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) EventDropped(name string) {
	if m != nil {
		m.EventsDropped.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) PersistFailed(op string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) SetOutboxDepth(n int) {
	if m != nil {
		m.OutboxDepth.Set(float64(n))
	}
}

func (m *Metrics) Replayed() {
	if m != nil {
		m.OutboxReplayed.Inc()
	}
}

func (m *Metrics) Recomputed(family string) {
	if m != nil {
		m.Recomputes.WithLabelValues(family).Inc()
	}
}

func (m *Metrics) Compensated() {
	if m != nil {
		m.CompensatingTxns.Inc()
	}
}
