package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voidline_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voidline_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CounterAdjustments counts derived-counter mutations by entity and direction.
	CounterAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voidline_counter_adjustments_total",
		Help: "Derived counter adjustments applied inside mutation transactions",
	}, []string{"entity", "direction"})

	// EngagementRecomputes counts engagement score recomputations.
	EngagementRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voidline_engagement_recomputes_total",
		Help: "Total engagement score recomputations",
	})

	// VoidPostsSwept counts void posts physically reclaimed by the sweeper.
	VoidPostsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voidline_void_posts_swept_total",
		Help: "Total expired void posts deleted by the background sweeper",
	})

	// CheckoutRequests counts payment checkout handshakes by outcome.
	CheckoutRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voidline_checkout_requests_total",
		Help: "Payment checkout handshakes by outcome",
	}, []string{"outcome"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voidline_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voidline_websocket_backpressure_drops_total",
		Help: "WebSocket messages dropped due to client backpressure",
	}, []string{"hub", "reason"})

	// MessageThroughput counts chat messages processed per type.
	MessageThroughput = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voidline_message_throughput_total",
		Help: "Total number of chat messages processed",
	}, []string{"message_type"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
