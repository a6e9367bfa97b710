package httpclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_remote_requests_total",
			Help: "Total number of requests sent to the commerce API",
		},
		[]string{"method", "status"},
	)

	remoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_remote_request_duration_seconds",
			Help:    "Commerce API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	remoteRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_remote_requests_in_flight",
			Help: "Current number of requests awaiting a commerce API answer",
		},
	)
)
