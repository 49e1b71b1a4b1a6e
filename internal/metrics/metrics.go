// Package metrics holds the service's Prometheus collectors. They register
// with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dxfnet_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dxfnet_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// ConversionsTotal counts finished conversions by outcome:
	// ok, input_error, invariant_error, canceled or error.
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dxfnet_conversions_total",
			Help: "Total number of conversions by outcome",
		},
		[]string{"outcome"},
	)

	ConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dxfnet_conversion_duration_seconds",
			Help:    "Wall time of one conversion, load to last artifact",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	SegmentsIn = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dxfnet_segments_in",
			Help:    "Segments per converted drawing",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	BranchesOut = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dxfnet_branches_out",
			Help:    "Branches left after merging",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dxfnet_queue_depth",
			Help: "Conversion jobs waiting for a worker",
		},
	)
)
