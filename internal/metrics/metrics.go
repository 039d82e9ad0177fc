// Package metrics exposes Prometheus collectors for the document store and
// attendance flows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	writes        *prometheus.CounterVec
	writeDuration prometheus.Histogram
	queueDepth    prometheus.Gauge
	queueOps      *prometheus.CounterVec
	docVersion    prometheus.Gauge
	transitions   *prometheus.CounterVec
	calendarSyncs *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		writes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fisiostudio",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Document writes by result.",
		}, []string{"result"}),
		writeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fisiostudio",
			Subsystem: "store",
			Name:      "write_duration_seconds",
			Help:      "Time spent serializing and persisting the document.",
			Buckets:   prometheus.DefBuckets,
		}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "fisiostudio",
			Subsystem: "queue",
			Name:      "pending",
			Help:      "Operations waiting in the mutation queue.",
		}),
		queueOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fisiostudio",
			Subsystem: "queue",
			Name:      "operations_total",
			Help:      "Queued operations by outcome.",
		}, []string{"outcome"}),
		docVersion: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "fisiostudio",
			Subsystem: "store",
			Name:      "document_version",
			Help:      "Version of the last persisted document.",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fisiostudio",
			Subsystem: "attendance",
			Name:      "transitions_total",
			Help:      "Booking status transitions by target status.",
		}, []string{"status"}),
		calendarSyncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fisiostudio",
			Subsystem: "calendar",
			Name:      "syncs_total",
			Help:      "Calendar sync attempts by action and status.",
		}, []string{"action", "status"}),
	}
}

func (m *Metrics) ObserveWrite(start time.Time, err error) {
	if m == nil {
		return
	}
	m.writeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.writes.WithLabelValues("error").Inc()
		return
	}
	m.writes.WithLabelValues("ok").Inc()
}

func (m *Metrics) SetVersion(v int64) {
	if m == nil {
		return
	}
	m.docVersion.Set(float64(v))
}

func (m *Metrics) QueueEnqueued() {
	if m == nil {
		return
	}
	m.queueDepth.Inc()
}

// QueueSettled records the outcome of one queued operation: "ok", "error" or "panic".
func (m *Metrics) QueueSettled(outcome string) {
	if m == nil {
		return
	}
	m.queueDepth.Dec()
	m.queueOps.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) CalendarSync(action, status string) {
	if m == nil {
		return
	}
	m.calendarSyncs.WithLabelValues(action, status).Inc()
}
