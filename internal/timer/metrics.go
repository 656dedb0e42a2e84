package timer

import "github.com/prometheus/client_golang/prometheus"

var (
	transitionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tpom",
		Subsystem: "timer",
		Name:      "transitions_total",
		Help:      "State machine transitions.",
	}, []string{"from", "event", "to"})

	overrunsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tpom",
		Subsystem: "timer",
		Name:      "overruns_total",
		Help:      "Countdowns stopped because they were noticed past the overrun limit.",
	})

	violationsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tpom",
		Subsystem: "timer",
		Name:      "protocol_violations_total",
		Help:      "Events received in a state with no matching transition.",
	})

	stateGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tpom",
		Subsystem: "timer",
		Name:      "state",
		Help:      "1 for the current state, 0 otherwise.",
	}, []string{"state"})
)

func init() {
	prometheus.MustRegister(transitionsCounter, overrunsCounter, violationsCounter, stateGauge)
}
