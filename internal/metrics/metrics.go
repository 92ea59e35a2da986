// Package metrics exposes Prometheus collectors for the HTTP layer and the
// graph engine. Collectors register on the default registry at init.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// OperationDuration times engine operations (follow, mutuals, recommend...).
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_operation_duration_seconds",
			Help:    "Graph engine operation duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"op", "result"},
	)

	// RecommendDepth records the depth a recommendation settled at.
	RecommendDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graph_recommend_depth",
			Help:    "Walk depth used to produce recommendations",
			Buckets: []float64{2, 3, 4},
		},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_events_published_total",
			Help: "Graph events handed to the publisher by type and result",
		},
		[]string{"type", "result"},
	)
)

var initOnce sync.Once

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, OperationDuration, RecommendDepth, EventsPublished)
	})
}

// RecordRequest records duration and count for an HTTP request. path should be
// the route template so cardinality stays bounded.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveOperation is meant to be deferred at the top of an engine call:
//
//	defer metrics.ObserveOperation("mutuals", time.Now(), &err)
func ObserveOperation(op string, start time.Time, errp *error) {
	result := "ok"
	if errp != nil && *errp != nil {
		result = "error"
	}
	OperationDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

func ObserveRecommendDepth(depth int) {
	RecommendDepth.Observe(float64(depth))
}

func IncEventsPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(eventType, result).Inc()
}
