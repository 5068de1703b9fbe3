package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.IncRegistered()
	m.IncRegistered()
	m.IncResolved("acknowledged")
	m.IncRejected("already_resolved")
	m.ObserveRewrite("ok", 120*time.Millisecond)
	m.IncTransportFailure("delete")
	m.SetPending(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.registered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolved.WithLabelValues("acknowledged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("already_resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rewrites.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transport.WithLabelValues("delete")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pending))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRegistered()
		m.IncResolved("cancelled")
		m.IncRejected("not_found")
		m.ObserveRewrite("error", time.Second)
		m.IncTransportFailure("post")
		m.SetPending(1)
	})
}
