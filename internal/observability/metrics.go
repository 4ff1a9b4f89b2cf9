package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharify_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by query family and outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharify_cache_lookups_total",
		Help: "Cache-aside lookups by query family and result (hit or miss)",
	}, []string{"family", "result"})

	// CacheInvalidations counts invalidated keys by query family.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharify_cache_invalidations_total",
		Help: "Cache keys invalidated by query family",
	}, []string{"family"})

	// WebSocketConnections is the gauge of active event-stream connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sharify_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts pushed events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharify_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharify_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// StorageUploads counts object uploads by bucket and outcome.
	StorageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharify_storage_uploads_total",
		Help: "Object storage uploads by bucket and status",
	}, []string{"bucket", "status"})
)

// InitMetrics creates the HTTP request metrics middleware for serviceName.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
