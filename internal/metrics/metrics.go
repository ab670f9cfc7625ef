// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ForecastRequests counts forecast executions by model and outcome.
	ForecastRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_requests_total",
		Help: "Forecast requests by model and result",
	}, []string{"model", "result"})

	// ForecastDuration observes the time to assemble a forecast.
	ForecastDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_duration_seconds",
		Help:    "Time to mix a forecast response",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"model"})

	// MixedReaders observes how many domain readers apply at a location.
	MixedReaders = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forecast_mixed_readers",
		Help:    "Number of domain readers mixed per forecast",
		Buckets: prometheus.LinearBuckets(1, 1, 6),
	})

	// CachePurges counts scheduled cache purges.
	CachePurges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forecast_cache_purges_total",
		Help: "Number of gridded store cache purges",
	})
)

// Result labels.
const (
	ResultOK           = "ok"
	ResultInvalid      = "invalid"
	ResultNotAvailable = "not_available"
	ResultError        = "error"
)
