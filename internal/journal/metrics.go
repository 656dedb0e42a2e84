package journal

import "github.com/prometheus/client_golang/prometheus"

var (
	appendsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tpom",
		Subsystem: "journal",
		Name:      "appends_total",
		Help:      "Completion records written to the local journal.",
	})

	evictionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tpom",
		Subsystem: "journal",
		Name:      "evictions_total",
		Help:      "Oldest records dropped to stay within capacity.",
	})

	entriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tpom",
		Subsystem: "journal",
		Name:      "entries",
		Help:      "Records currently retained in the local journal.",
	})
)

func init() {
	prometheus.MustRegister(appendsCounter, evictionsCounter, entriesGauge)
}
