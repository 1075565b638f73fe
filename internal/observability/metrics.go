package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the counters and histograms of the XP engine and its
// collaborators. A nil *Metrics is valid and records nothing.
type Metrics struct {
	xpCorrections   prometheus.Counter
	xpCredits       *prometheus.CounterVec
	bridgeCalls     *prometheus.CounterVec
	jobs            *prometheus.CounterVec
	chatLatency     prometheus.Histogram
	contextTokens   prometheus.Histogram
	classifications *prometheus.CounterVec
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide recorder on the default registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewMetrics registers a fresh set of collectors on reg. Tests pass a
// dedicated prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		xpCorrections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "greenloop",
			Subsystem: "xp",
			Name:      "corrections_total",
			Help:      "Reconciliations that found drift and rewrote the user aggregate",
		}),
		xpCredits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greenloop",
			Subsystem: "xp",
			Name:      "ledger_events_total",
			Help:      "Ledger events applied to user aggregates by kind",
		}, []string{"kind"}),
		bridgeCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greenloop",
			Subsystem: "vector_bridge",
			Name:      "calls_total",
			Help:      "Vector bridge calls by command and outcome",
		}, []string{"command", "outcome"}),
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greenloop",
			Subsystem: "tasks",
			Name:      "jobs_total",
			Help:      "Detached side-effect jobs by outcome",
		}, []string{"outcome"}),
		chatLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "greenloop",
			Subsystem: "chat",
			Name:      "reply_seconds",
			Help:      "End-to-end latency of chat replies",
			Buckets:   prometheus.DefBuckets,
		}),
		contextTokens: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "greenloop",
			Subsystem: "chat",
			Name:      "context_tokens",
			Help:      "Token count of assembled context blocks",
			Buckets:   prometheus.ExponentialBuckets(32, 2, 8),
		}),
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greenloop",
			Subsystem: "products",
			Name:      "classifications_total",
			Help:      "Product classifications by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) XPCorrected() {
	if m == nil {
		return
	}
	m.xpCorrections.Inc()
}

func (m *Metrics) LedgerEvent(kind string) {
	if m == nil {
		return
	}
	m.xpCredits.WithLabelValues(kind).Inc()
}

func (m *Metrics) BridgeCall(command, outcome string) {
	if m == nil {
		return
	}
	m.bridgeCalls.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) Job(outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ChatReply(d time.Duration) {
	if m == nil {
		return
	}
	m.chatLatency.Observe(d.Seconds())
}

func (m *Metrics) ContextTokens(n int) {
	if m == nil {
		return
	}
	m.contextTokens.Observe(float64(n))
}

func (m *Metrics) Classification(result string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(result).Inc()
}
