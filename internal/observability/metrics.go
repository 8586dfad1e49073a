package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntegrityOperations counts engine operations by outcome ("ok" or an error code).
	IntegrityOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sazon_integrity_operations_total",
		Help: "Total number of integrity engine operations by outcome",
	}, []string{"operation", "outcome"})

	// IntegrityOperationLatency records end-to-end engine operation latency.
	IntegrityOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sazon_integrity_operation_seconds",
		Help:    "Integrity engine operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// CascadeRowsDeleted records how many rows of each kind one hard delete removed.
	CascadeRowsDeleted = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sazon_cascade_rows_deleted",
		Help:    "Rows removed per hard delete by entity kind",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"kind"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sazon_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sazon_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EventsPublished counts integrity events handed to the publisher.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sazon_events_published_total",
		Help: "Total integrity events published by kind and outcome",
	}, []string{"kind", "outcome"})
)

// ObserveOperation records the outcome and latency of one engine call.
func ObserveOperation(operation, outcome string, start time.Time) {
	IntegrityOperations.WithLabelValues(operation, outcome).Inc()
	IntegrityOperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveQuery records the latency of one statement.
func ObserveQuery(operation, table string, elapsed time.Duration) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}
