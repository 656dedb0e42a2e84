package upload

import "github.com/prometheus/client_golang/prometheus"

var (
	uploadsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tpom",
		Subsystem: "upload",
		Name:      "attempts_total",
		Help:      "Completion uploads by outcome (success or failure kind).",
	}, []string{"outcome"})

	uploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tpom",
		Subsystem: "upload",
		Name:      "duration_seconds",
		Help:      "Time spent sending a completion record to the remote endpoint.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(uploadsCounter, uploadDuration)
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if kind := KindOf(err); kind != "" {
		return string(kind)
	}
	return "unknown"
}
