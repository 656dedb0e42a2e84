package completion

import "github.com/prometheus/client_golang/prometheus"

var (
	resolvedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tpom",
		Subsystem: "completion",
		Name:      "resolved_total",
		Help:      "Prompts resolved, by outcome (submitted, skipped, dismissed, auto).",
	}, []string{"outcome"})

	pendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tpom",
		Subsystem: "completion",
		Name:      "pending_prompts",
		Help:      "Prompts waiting for a decision.",
	})
)

func init() {
	prometheus.MustRegister(resolvedCounter, pendingGauge)
}
