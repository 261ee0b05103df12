package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionCommitsTotal,
		subscriptionCommitLatency,
		subscriptionsExpiredTotal,
	)
}

var (
	subscriptionCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_commits_total",
			Help: "Subscription commits by plan and outcome.",
		},
		[]string{"plan", "outcome"}, // outcome: ok|failed|timeout|canceled|unknown_plan|busy|rate_limited
	)

	subscriptionCommitLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subscription_commit_latency_seconds",
			Help:    "Latency of the subscription upsert round trip.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions processed by the expiry worker.",
		},
	)
)

func IncCommit(plan, outcome string) {
	subscriptionCommitsTotal.WithLabelValues(norm(plan), norm(outcome)).Inc()
}

func ObserveCommitLatency(outcome string, d time.Duration) {
	subscriptionCommitLatency.WithLabelValues(norm(outcome)).Observe(d.Seconds())
}

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}
