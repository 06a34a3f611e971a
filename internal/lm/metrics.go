package lm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lmapi",
			Subsystem: "lm",
			Name:      "calls_total",
			Help:      "Total capability calls by outcome",
		},
		[]string{"call", "outcome"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lmapi",
			Subsystem: "lm",
			Name:      "backend_duration_seconds",
			Help:      "Time spent in the model backend per capability call",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"call"},
	)
)

func init() {
	prometheus.MustRegister(callsTotal, callDuration)
}

func observeCall(call string, err error, dur time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	callsTotal.WithLabelValues(call, outcome).Inc()
	if dur > 0 {
		callDuration.WithLabelValues(call).Observe(dur.Seconds())
	}
}
