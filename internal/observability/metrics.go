package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command and key prefix.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkhub_redis_errors_total",
		Help: "Total number of failed Redis commands by command and keyspace",
	}, []string{"command", "keyspace"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "talkhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikeToggles counts like toggles by entity type and outcome (liked/unliked).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkhub_like_toggles_total",
		Help: "Total number of like toggles by entity type and outcome",
	}, []string{"entity_type", "outcome"})

	// LikeConflicts counts concurrent duplicate like inserts resolved as unlikes.
	LikeConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkhub_like_conflicts_total",
		Help: "Total number of duplicate like inserts converted to unlikes",
	}, []string{"entity_type"})

	// PostHits counts counted post views.
	PostHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talkhub_post_hits_total",
		Help: "Total number of counted post views",
	})

	// CacheRequests counts cache lookups by result (hit/miss/error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkhub_cache_requests_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// WebSocketConnections is the gauge of active feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "talkhub_websocket_connections",
		Help: "Number of active feed WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkhub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
