// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_routed_total",
			Help: "Total number of requests routed, by path and classification reason",
		},
		[]string{"path", "reason"},
	)

	RequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_failed_total",
			Help: "Total number of failed requests, by path and error kind",
		},
		[]string{"path", "kind"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "End-to-end request duration in seconds, by path",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
		[]string{"path"},
	)

	DataServiceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_data_service_calls_total",
			Help: "Total number of data service tool calls, by outcome",
		},
		[]string{"outcome"},
	)
)
