package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	activityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_activity_events_total",
			Help: "Activity events handed to Kafka, by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	activityWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_activity_write_duration_seconds",
			Help:    "Time spent writing one activity event to Kafka",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"topic"},
	)
)
