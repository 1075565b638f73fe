package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountersIncrement(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.XPCorrected()
	m.XPCorrected()
	m.BridgeCall("search", "error")
	m.Job("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.xpCorrections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bridgeCalls.WithLabelValues("search", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.bridgeCalls.WithLabelValues("upsert", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("ok")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.XPCorrected()
		m.LedgerEvent("action")
		m.BridgeCall("search", "success")
		m.Job("failed")
		m.ChatReply(0)
		m.ContextTokens(10)
		m.Classification("found")
	})
}
