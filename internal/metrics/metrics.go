// Package metrics exposes Prometheus collectors for the reminder pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registered  prometheus.Counter
	resolved    *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	rewrites    *prometheus.CounterVec
	rewriteTime prometheus.Histogram
	transport   *prometheus.CounterVec
	pending     prometheus.Gauge
}

// MustNewMetrics builds the collectors and registers them with reg. A nil
// reg uses a throwaway registry. Registration errors panic, like promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "registered_total",
			Help:      "Reminders posted and registered.",
		}),
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "resolved_total",
			Help:      "Reminders resolved by a button press.",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reminder",
			Name:      "rejected_actions_total",
			Help:      "Button presses rejected by the lifecycle tracker.",
		}, []string{"reason"}),
		rewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "rewrite",
			Name:      "requests_total",
			Help:      "Rewrite calls by status.",
		}, []string{"status"}),
		rewriteTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reminder",
			Subsystem: "rewrite",
			Name:      "duration_seconds",
			Help:      "Latency of the rewrite call.",
			Buckets:   prometheus.DefBuckets,
		}),
		transport: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "transport",
			Name:      "failures_total",
			Help:      "Failed chat transport calls by operation.",
		}, []string{"op"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reminder",
			Name:      "pending",
			Help:      "Reminders waiting for a button press.",
		}),
	}
	reg.MustRegister(m.registered, m.resolved, m.rejected, m.rewrites, m.rewriteTime, m.transport, m.pending)
	return m
}

func (m *Metrics) IncRegistered() {
	if m == nil {
		return
	}
	m.registered.Inc()
}

func (m *Metrics) IncResolved(outcome string) {
	if m == nil {
		return
	}
	m.resolved.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRewrite(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.rewrites.WithLabelValues(status).Inc()
	m.rewriteTime.Observe(d.Seconds())
}

func (m *Metrics) IncTransportFailure(op string) {
	if m == nil {
		return
	}
	m.transport.WithLabelValues(op).Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
