// Package application contains the application services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jobrunner/tessera/internal/domain"
	"github.com/jobrunner/tessera/internal/ports/output"
)

// DatasetRegistry manages loaded GeoJSON datasets and their tile
// indexes.
type DatasetRegistry struct {
	mu        sync.RWMutex
	datasets  map[string]*datasetEntry
	builder   output.IndexBuilder
	storage   output.ObjectStorage
	cache     output.TileCache
	metrics   output.MetricsCollector
	logger    *slog.Logger
	localPath string
}

type datasetEntry struct {
	Dataset *domain.Dataset
	Index   output.TileIndex
	Status  domain.DatasetStatus
	Error   error
}

// NewDatasetRegistry creates a new dataset registry.
func NewDatasetRegistry(
	builder output.IndexBuilder,
	storage output.ObjectStorage,
	cache output.TileCache,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	localPath string,
) *DatasetRegistry {
	return &DatasetRegistry{
		datasets:  make(map[string]*datasetEntry),
		builder:   builder,
		storage:   storage,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		localPath: localPath,
	}
}

// LoadFile loads a GeoJSON dataset from the given path and registers it
// under its derived ID. Loading a key that already exists replaces the
// previous dataset; stale cached tiles are invalidated.
func (r *DatasetRegistry) LoadFile(ctx context.Context, path string) error {
	r.logger.Info("loading dataset", "path", path)

	ds, idx, err := r.builder.Build(ctx, path)
	if err != nil {
		r.logger.Error("failed to load dataset", "path", path, "error", err)
		return err
	}

	r.mu.Lock()
	_, replacing := r.datasets[ds.ID]
	r.datasets[ds.ID] = &datasetEntry{
		Dataset: ds,
		Index:   idx,
		Status:  domain.StatusReady,
	}
	r.mu.Unlock()

	if replacing {
		r.logger.Info("replaced existing dataset", "id", ds.ID)
		if err := r.cache.InvalidateDataset(ctx, ds.ID); err != nil {
			r.logger.Warn("failed to invalidate cached tiles", "id", ds.ID, "error", err)
		}
	}

	r.updateMetrics()
	r.logger.Info("dataset loaded", "id", ds.ID, "features", ds.FeatureCount)

	return nil
}

// Unload removes a dataset from the registry and drops its cached
// tiles. Unloading a key that is not registered is a silent no-op,
// matching map-erase semantics.
func (r *DatasetRegistry) Unload(ctx context.Context, datasetID string) error {
	r.mu.Lock()
	entry, ok := r.datasets[datasetID]
	if !ok {
		r.mu.Unlock()
		r.logger.Debug("unload of unknown dataset ignored", "id", datasetID)
		return nil
	}

	r.logger.Info("unloading dataset", "id", datasetID)
	entry.Status = domain.StatusUnloading
	delete(r.datasets, datasetID)
	r.mu.Unlock()

	if err := r.cache.InvalidateDataset(ctx, datasetID); err != nil {
		r.logger.Warn("failed to invalidate cached tiles", "id", datasetID, "error", err)
	}

	r.updateMetrics()
	return nil
}

// Index resolves the tile index for a dataset key.
func (r *DatasetRegistry) Index(datasetID string) (output.TileIndex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.datasets[datasetID]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, domain.ErrDatasetNotFound)
	}
	if entry.Status != domain.StatusReady {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, domain.ErrNotReady)
	}

	return entry.Index, nil
}

// ListDatasets returns all registered datasets.
func (r *DatasetRegistry) ListDatasets(_ context.Context) ([]domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	datasets := make([]domain.Dataset, 0, len(r.datasets))
	for _, entry := range r.datasets {
		datasets = append(datasets, *entry.Dataset)
	}

	return datasets, nil
}

// GetDataset returns a specific dataset by ID.
func (r *DatasetRegistry) GetDataset(_ context.Context, id string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.datasets[id]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", id, domain.ErrDatasetNotFound)
	}

	return entry.Dataset, nil
}

// GetDatasetStatus returns the status of a dataset.
func (r *DatasetRegistry) GetDatasetStatus(_ context.Context, id string) (domain.DatasetStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.datasets[id]
	if !ok {
		return "", fmt.Errorf("dataset %q: %w", id, domain.ErrDatasetNotFound)
	}

	return entry.Status, nil
}

// IsReady returns true if a dataset is ready for queries.
func (r *DatasetRegistry) IsReady(datasetID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.datasets[datasetID]
	if !ok {
		return false
	}

	return entry.Status == domain.StatusReady
}

// ReadyDatasetIDs returns IDs of all ready datasets.
func (r *DatasetRegistry) ReadyDatasetIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0)
	for id, entry := range r.datasets {
		if entry.Status == domain.StatusReady {
			ids = append(ids, id)
		}
	}
	return ids
}

// updateMetrics updates the metrics collector with current dataset counts.
func (r *DatasetRegistry) updateMetrics() {
	r.mu.RLock()
	total := len(r.datasets)
	ready := 0
	for _, entry := range r.datasets {
		if entry.Status == domain.StatusReady {
			ready++
		}
	}
	r.mu.RUnlock()

	r.metrics.SetDatasetsLoaded(total)
	r.metrics.SetDatasetsReady(ready)
}

// LoadAll loads all datasets from storage.
func (r *DatasetRegistry) LoadAll(ctx context.Context) error {
	r.logger.Info("loading all datasets from storage")

	objects, err := r.storage.List(ctx)
	if err != nil {
		return err
	}

	for _, obj := range objects {
		localPath := filepath.Join(r.localPath, obj.Key)
		if err := r.storage.Download(ctx, obj.Key, localPath); err != nil {
			r.logger.Error("failed to download dataset", "key", obj.Key, "error", err)
			continue
		}

		if err := r.LoadFile(ctx, localPath); err != nil {
			r.logger.Error("failed to load dataset", "path", localPath, "error", err)
		}
	}

	return nil
}

// IsLoaded returns true if a dataset with the given ID is already loaded.
func (r *DatasetRegistry) IsLoaded(datasetID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.datasets[datasetID]
	return ok
}

// DatasetCount returns the number of loaded datasets.
func (r *DatasetRegistry) DatasetCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.datasets)
}

// SyncStats contains statistics from a sync operation.
type SyncStats struct {
	Added   int
	Removed int
}

// Sync synchronizes with remote storage, downloading new datasets and
// removing datasets that no longer exist there.
func (r *DatasetRegistry) Sync(ctx context.Context) (SyncStats, error) {
	r.logger.Info("syncing datasets from storage")

	objects, err := r.storage.List(ctx)
	if err != nil {
		return SyncStats{}, err
	}

	// Build set of remote dataset IDs
	remoteDatasets := make(map[string]string) // datasetID -> objectKey
	for _, obj := range objects {
		remoteDatasets[deriveDatasetID(obj.Key)] = obj.Key
	}

	stats := SyncStats{}

	// Add new datasets
	for datasetID, objectKey := range remoteDatasets {
		if r.IsLoaded(datasetID) {
			r.logger.Debug("dataset already loaded, skipping", "id", datasetID)
			continue
		}

		localPath := filepath.Join(r.localPath, objectKey)
		if err := r.storage.Download(ctx, objectKey, localPath); err != nil {
			r.logger.Error("failed to download dataset", "key", objectKey, "error", err)
			continue
		}

		if err := r.LoadFile(ctx, localPath); err != nil {
			r.logger.Error("failed to load dataset", "path", localPath, "error", err)
			continue
		}

		stats.Added++
		r.logger.Info("new dataset synced", "id", datasetID)
	}

	// Remove datasets that no longer exist in remote storage
	for _, datasetID := range r.findDatasetsToRemove(remoteDatasets) {
		r.logger.Info("removing dataset not in remote storage", "id", datasetID)

		localPath := r.getDatasetPath(datasetID)

		_ = r.Unload(ctx, datasetID)

		if localPath != "" {
			if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
				r.logger.Warn("failed to delete local cache file", "path", localPath, "error", err)
			} else {
				r.logger.Debug("deleted local cache file", "path", localPath)
			}
		}

		stats.Removed++
	}

	r.logger.Info("sync completed", "added", stats.Added, "removed", stats.Removed, "total", r.DatasetCount())
	return stats, nil
}

// findDatasetsToRemove returns dataset IDs that are loaded but not in
// remote storage.
func (r *DatasetRegistry) findDatasetsToRemove(remoteDatasets map[string]string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var toRemove []string
	for datasetID := range r.datasets {
		if _, exists := remoteDatasets[datasetID]; !exists {
			toRemove = append(toRemove, datasetID)
		}
	}
	return toRemove
}

// getDatasetPath returns the local file path for a loaded dataset.
func (r *DatasetRegistry) getDatasetPath(datasetID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.datasets[datasetID]; ok && entry.Dataset != nil {
		return entry.Dataset.Path
	}
	return ""
}

// deriveDatasetID extracts a dataset ID from a file path or object key,
// dropping the .geojson or .geojson.gz extension.
func deriveDatasetID(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".geojson", ".json"} {
		if filepath.Ext(base) == ext {
			base = base[:len(base)-len(ext)]
		}
	}
	return base
}
