package metrics

import "github.com/prometheus/client_golang/prometheus"

// Tile data Prometheus metrics.
var (
	TileDataOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tiles",
			Subsystem: "tile",
			Name:      "data_operations_total",
			Help:      "Total number of tile data operations",
		},
		[]string{"mode", "op", "status"}, // mode: "transient" / "persistent"
	)

	TileDataDecodeFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tiles",
			Subsystem: "tile",
			Name:      "data_decode_fallback_total",
			Help:      "Request data that failed to decode and fell back to the last good or stored data",
		},
		[]string{"mode"},
	)

	TileDataCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tiles",
			Subsystem: "tile",
			Name:      "data_cache_total",
			Help:      "Tile data manager read cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	TileRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tiles",
			Subsystem: "tile",
			Name:      "renders_total",
			Help:      "Total number of tile renders",
		},
		[]string{"type", "view"},
	)
)

var tileMetricsRegistered bool

// RegisterTileMetrics registers Prometheus tile metrics. Must be called once from main.
func RegisterTileMetrics() {
	if tileMetricsRegistered {
		return
	}
	prometheus.MustRegister(TileDataOperationsTotal)
	prometheus.MustRegister(TileDataDecodeFallbackTotal)
	prometheus.MustRegister(TileDataCacheTotal)
	prometheus.MustRegister(TileRendersTotal)
	tileMetricsRegistered = true
}
