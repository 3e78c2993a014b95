// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	tileCounter         *prometheus.CounterVec
	tileDuration        *prometheus.HistogramVec
	tileSize            *prometheus.HistogramVec
	datasetsLoaded      prometheus.Gauge
	datasetsReady       prometheus.Gauge
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	storageOperations   *prometheus.CounterVec
	storageDuration     *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "tessera"
	}

	return &Collector{
		tileCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tiles_total",
				Help:      "Total number of tile requests",
			},
			[]string{"dataset", "status"},
		),

		tileDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tile_duration_seconds",
				Help:      "Tile query and encode duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"dataset"},
		),

		tileSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tile_size_bytes",
				Help:      "Encoded tile size in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
			},
			[]string{"dataset"},
		),

		datasetsLoaded: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "datasets_loaded",
				Help:      "Number of loaded datasets",
			},
		),

		datasetsReady: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "datasets_ready",
				Help:      "Number of ready datasets",
			},
		),

		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tile_cache_hits_total",
				Help:      "Total number of tile cache hits",
			},
			[]string{"dataset"},
		),

		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tile_cache_misses_total",
				Help:      "Total number of tile cache misses",
			},
			[]string{"dataset"},
		),

		storageOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),

		storageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// IncTileCount increments the tile request counter.
func (c *Collector) IncTileCount(datasetID string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.tileCounter.WithLabelValues(datasetID, status).Inc()
}

// ObserveTileDuration records tile query and encode duration.
func (c *Collector) ObserveTileDuration(datasetID string, duration time.Duration) {
	c.tileDuration.WithLabelValues(datasetID).Observe(duration.Seconds())
}

// ObserveTileSize records the encoded tile size.
func (c *Collector) ObserveTileSize(datasetID string, bytes int) {
	c.tileSize.WithLabelValues(datasetID).Observe(float64(bytes))
}

// SetDatasetsLoaded sets the number of loaded datasets.
func (c *Collector) SetDatasetsLoaded(count int) {
	c.datasetsLoaded.Set(float64(count))
}

// SetDatasetsReady sets the number of ready datasets.
func (c *Collector) SetDatasetsReady(count int) {
	c.datasetsReady.Set(float64(count))
}

// IncCacheHits increments the tile cache hit counter.
func (c *Collector) IncCacheHits(datasetID string) {
	c.cacheHits.WithLabelValues(datasetID).Inc()
}

// IncCacheMisses increments the tile cache miss counter.
func (c *Collector) IncCacheMisses(datasetID string) {
	c.cacheMisses.WithLabelValues(datasetID).Inc()
}

// IncStorageOperations increments storage operation counter.
func (c *Collector) IncStorageOperations(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.storageOperations.WithLabelValues(operation, status).Inc()
}

// ObserveStorageDuration records storage operation duration.
func (c *Collector) ObserveStorageDuration(operation string, duration time.Duration) {
	c.storageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncHTTPRequests increments the HTTP request counter.
func (c *Collector) IncHTTPRequests(method, path, status string) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveHTTPDuration records HTTP request duration.
func (c *Collector) ObserveHTTPDuration(method, path string, duration time.Duration) {
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns HTTP middleware for metrics collection.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		path := normalizePath(r.URL.Path)
		status := statusToString(wrapped.statusCode)

		c.IncHTTPRequests(r.Method, path, status)
		c.ObserveHTTPDuration(r.Method, path, duration)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes the URL path for metrics.
func normalizePath(path string) string {
	// Replace dynamic segments with placeholders
	// This prevents high cardinality metrics
	switch {
	case len(path) > 20:
		return path[:20] + "..."
	default:
		return path
	}
}

// statusToString converts HTTP status code to string category.
func statusToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
