package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service's prometheus collectors.
type Metrics struct {
	QueueDepth     *prometheus.GaugeVec
	WaitingPool    prometheus.Gauge
	MatchesFormed  *prometheus.CounterVec
	MatchFailures  prometheus.Counter
	MatchQuality   prometheus.Histogram
	ActiveSessions *prometheus.GaugeVec
}

// New registers all collectors on reg. Pass
// prometheus.DefaultRegisterer in main, a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "partymatch_queue_depth",
			Help: "Players currently queued, by requested mode.",
		}, []string{"mode"}),
		WaitingPool: factory.NewGauge(prometheus.GaugeOpts{
			Name: "partymatch_waiting_pool_size",
			Help: "Players in the scored waiting pool.",
		}),
		MatchesFormed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partymatch_matches_formed_total",
			Help: "Match groups formed, by mode.",
		}, []string{"mode"}),
		MatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "partymatch_match_failures_total",
			Help: "Match attempts that failed during session placement.",
		}),
		MatchQuality: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partymatch_match_quality",
			Help:    "Mean pairwise quality of accepted groups.",
			Buckets: prometheus.LinearBuckets(0.5, 0.05, 10),
		}),
		ActiveSessions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "partymatch_sessions",
			Help: "Tracked sessions, by status.",
		}, []string{"status"}),
	}
}
