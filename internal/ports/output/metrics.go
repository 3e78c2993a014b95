package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncTileCount increments the served-tiles counter.
	IncTileCount(datasetID string, success bool)

	// ObserveTileDuration records tile query + encode duration.
	ObserveTileDuration(datasetID string, duration time.Duration)

	// ObserveTileSize records the encoded tile size in bytes.
	ObserveTileSize(datasetID string, bytes int)

	// SetDatasetsLoaded sets the number of loaded datasets.
	SetDatasetsLoaded(count int)

	// SetDatasetsReady sets the number of ready datasets.
	SetDatasetsReady(count int)

	// IncCacheHits increments the tile cache hit counter.
	IncCacheHits(datasetID string)

	// IncCacheMisses increments the tile cache miss counter.
	IncCacheMisses(datasetID string)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncTileCount implements MetricsCollector.
func (n *NoOpMetrics) IncTileCount(_ string, _ bool) {}

// ObserveTileDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveTileDuration(_ string, _ time.Duration) {}

// ObserveTileSize implements MetricsCollector.
func (n *NoOpMetrics) ObserveTileSize(_ string, _ int) {}

// SetDatasetsLoaded implements MetricsCollector.
func (n *NoOpMetrics) SetDatasetsLoaded(_ int) {}

// SetDatasetsReady implements MetricsCollector.
func (n *NoOpMetrics) SetDatasetsReady(_ int) {}

// IncCacheHits implements MetricsCollector.
func (n *NoOpMetrics) IncCacheHits(_ string) {}

// IncCacheMisses implements MetricsCollector.
func (n *NoOpMetrics) IncCacheMisses(_ string) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
