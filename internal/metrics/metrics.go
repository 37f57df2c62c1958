// Package metrics exposes credit and closet counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "capsule"

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	creditTransactions *prometheus.CounterVec
	refundFailures     prometheus.Counter
	creditResets       prometheus.Counter
	tierChanges        *prometheus.CounterVec
	suggestions        prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.creditTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credits",
			Name:      "transactions_total",
			Help:      "Credit transactions by generation type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	m.refundFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "credits",
		Name:      "refund_failures_total",
		Help:      "Compensating refunds that could not be written.",
	})
	m.creditResets = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "credits",
		Name:      "monthly_resets_total",
		Help:      "Accounts whose credits were reset to the tier allotment.",
	})
	m.tierChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credits",
			Name:      "tier_changes_total",
			Help:      "Tier changes applied from entitlement snapshots.",
		},
		[]string{"from", "to"},
	)
	m.suggestions = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "outfits",
		Name:      "candidates",
		Help:      "Candidate combinations scored per suggestion request.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.registry.MustRegister(m.creditTransactions, m.refundFailures, m.creditResets, m.tierChanges, m.suggestions)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) CreditTransaction(genType, outcome string) {
	if m == nil {
		return
	}
	m.creditTransactions.WithLabelValues(genType, outcome).Inc()
}

func (m *Metrics) RefundFailed() {
	if m == nil {
		return
	}
	m.refundFailures.Inc()
}

func (m *Metrics) CreditsReset(n int) {
	if m == nil {
		return
	}
	m.creditResets.Add(float64(n))
}

func (m *Metrics) TierChanged(from, to string) {
	if m == nil {
		return
	}
	m.tierChanges.WithLabelValues(from, to).Inc()
}

func (m *Metrics) CandidatesScored(n int) {
	if m == nil {
		return
	}
	m.suggestions.Observe(float64(n))
}
