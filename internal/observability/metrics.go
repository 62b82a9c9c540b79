// Package observability holds Prometheus collectors and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_cache_lookups_total",
		Help: "Cache-aside lookups by key family and result",
	}, []string{"family", "result"})

	// ContentCreated counts created posts and comments.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_content_created_total",
		Help: "Total number of posts and comments created",
	}, []string{"kind"})

	// FollowActions counts follow and unfollow operations that changed state.
	FollowActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_actions_total",
		Help: "Follow graph mutations by action",
	}, []string{"action"})

	// ImageUploads counts accepted and rejected image uploads.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_image_uploads_total",
		Help: "Image uploads by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records repository call latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
