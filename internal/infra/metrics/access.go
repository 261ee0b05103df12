package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(accessDecisionsTotal) }

var accessDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "access_gate_decisions_total",
		Help: "Access gate outcomes for guarded routes.",
	},
	[]string{"outcome"}, // render|login|upgrade|defer
)

func IncAccessDecision(outcome string) {
	accessDecisionsTotal.WithLabelValues(norm(outcome)).Inc()
}
