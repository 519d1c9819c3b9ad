// Package metrics exposes Prometheus instrumentation for ingestion, training,
// inference and the dashboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	ReviewsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviews_ingested_total",
			Help: "Total number of reviews upserted into the store",
		},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of failed ingestions",
		},
		[]string{"stage"}, // "parse", "schema", "store"
	)

	// Inference
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of texts classified, by predicted label",
		},
		[]string{"label"},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "1 when a trained pipeline is loaded, 0 otherwise",
		},
	)

	// Dashboard cache
	CacheLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_loads_total",
			Help: "Total number of cache fills from disk",
		},
		[]string{"resource"}, // "corpus", "model"
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_invalidations_total",
			Help: "Total number of cache invalidations",
		},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordIngest records a finished ingestion. stage is ignored on success.
func RecordIngest(count int, stage string, err error) {
	if err != nil {
		IngestErrors.WithLabelValues(stage).Inc()
		return
	}
	ReviewsIngested.Add(float64(count))
}

// RecordPrediction counts one classified text.
func RecordPrediction(label string) {
	Predictions.WithLabelValues(label).Inc()
}

// SetModelLoaded updates the model gauge.
func SetModelLoaded(loaded bool) {
	if loaded {
		ModelLoaded.Set(1)
	} else {
		ModelLoaded.Set(0)
	}
}

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
