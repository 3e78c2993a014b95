package application

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jobrunner/tessera/internal/domain"
	"github.com/jobrunner/tessera/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRegistry() *DatasetRegistry {
	return NewDatasetRegistry(
		&mockBuilder{},
		&mockStorage{},
		newMockCache(),
		&output.NoOpMetrics{},
		testLogger(),
		"/tmp",
	)
}

func TestDatasetRegistryLoadUnload(t *testing.T) {
	builder := &mockBuilder{
		indexes: map[string]*mockIndex{
			"roads": {count: 3, bounds: [4]float64{-1, -1, 1, 1}},
		},
	}

	registry := NewDatasetRegistry(
		builder,
		&mockStorage{},
		newMockCache(),
		&output.NoOpMetrics{},
		testLogger(),
		"/tmp",
	)

	ctx := context.Background()

	err := registry.LoadFile(ctx, "/data/roads.geojson")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	datasets, err := registry.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("ListDatasets failed: %v", err)
	}
	if len(datasets) != 1 {
		t.Errorf("len(datasets) = %d, want 1", len(datasets))
	}

	ds, err := registry.GetDataset(ctx, "roads")
	if err != nil {
		t.Fatalf("GetDataset failed: %v", err)
	}
	if ds.ID != "roads" {
		t.Errorf("ds.ID = %q, want %q", ds.ID, "roads")
	}
	if ds.FeatureCount != 3 {
		t.Errorf("ds.FeatureCount = %d, want 3", ds.FeatureCount)
	}

	err = registry.Unload(ctx, "roads")
	if err != nil {
		t.Fatalf("Unload failed: %v", err)
	}

	datasets, _ = registry.ListDatasets(ctx)
	if len(datasets) != 0 {
		t.Errorf("len(datasets) = %d, want 0", len(datasets))
	}
}

func TestDatasetRegistryLoadReplacesExisting(t *testing.T) {
	cache := newMockCache()
	registry := NewDatasetRegistry(
		&mockBuilder{},
		&mockStorage{},
		cache,
		&output.NoOpMetrics{},
		testLogger(),
		"/tmp",
	)
	ctx := context.Background()

	if err := registry.LoadFile(ctx, "/data/roads.geojson"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := registry.LoadFile(ctx, "/other/roads.geojson"); err != nil {
		t.Fatalf("LoadFile (reload) failed: %v", err)
	}

	if got := registry.DatasetCount(); got != 1 {
		t.Errorf("DatasetCount() = %d, want 1", got)
	}

	ds, err := registry.GetDataset(ctx, "roads")
	if err != nil {
		t.Fatalf("GetDataset failed: %v", err)
	}
	if ds.Path != "/other/roads.geojson" {
		t.Errorf("ds.Path = %q, want the replacing path", ds.Path)
	}

	// Replacing a dataset drops its cached tiles.
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "roads" {
		t.Errorf("cache.invalidated = %v, want [roads]", cache.invalidated)
	}
}

func TestDatasetRegistryLoadError(t *testing.T) {
	wantErr := errors.New("corrupt file")
	registry := NewDatasetRegistry(
		&mockBuilder{buildErr: wantErr},
		&mockStorage{},
		newMockCache(),
		&output.NoOpMetrics{},
		testLogger(),
		"/tmp",
	)

	err := registry.LoadFile(context.Background(), "/data/bad.geojson")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}

	// No entry is created for a failed load.
	if got := registry.DatasetCount(); got != 0 {
		t.Errorf("DatasetCount() = %d, want 0", got)
	}
}

func TestDatasetRegistryGetDatasetNotFound(t *testing.T) {
	registry := newTestRegistry()

	_, err := registry.GetDataset(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Errorf("err = %v, want ErrDatasetNotFound", err)
	}
}

func TestDatasetRegistryIndex(t *testing.T) {
	registry := newTestRegistry()
	ctx := context.Background()

	if err := registry.LoadFile(ctx, "/data/roads.geojson"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	idx, err := registry.Index("roads")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if idx == nil {
		t.Fatalf("Index returned nil index")
	}

	_, err = registry.Index("nonexistent")
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Errorf("err = %v, want ErrDatasetNotFound", err)
	}
}

func TestDatasetRegistryGetDatasetStatus(t *testing.T) {
	registry := newTestRegistry()
	ctx := context.Background()

	if err := registry.LoadFile(ctx, "/data/roads.geojson"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	status, err := registry.GetDatasetStatus(ctx, "roads")
	if err != nil {
		t.Fatalf("GetDatasetStatus failed: %v", err)
	}
	if status != domain.StatusReady {
		t.Errorf("status = %s, want %s", status, domain.StatusReady)
	}

	_, err = registry.GetDatasetStatus(ctx, "nonexistent")
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Errorf("err = %v, want ErrDatasetNotFound", err)
	}
}

func TestDatasetRegistryIsReady(t *testing.T) {
	registry := newTestRegistry()
	ctx := context.Background()

	if err := registry.LoadFile(ctx, "/data/ready.geojson"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	registry.mu.Lock()
	registry.datasets["loading"] = &datasetEntry{
		Dataset: &domain.Dataset{ID: "loading"},
		Status:  domain.StatusLoading,
	}
	registry.mu.Unlock()

	tests := []struct {
		id   string
		want bool
	}{
		{"ready", true},
		{"loading", false},
		{"nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := registry.IsReady(tt.id); got != tt.want {
				t.Errorf("IsReady(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}

	ids := registry.ReadyDatasetIDs()
	if len(ids) != 1 || ids[0] != "ready" {
		t.Errorf("ReadyDatasetIDs() = %v, want [ready]", ids)
	}
}

func TestDatasetRegistryUnloadNonexistent(t *testing.T) {
	cache := newMockCache()
	registry := NewDatasetRegistry(
		&mockBuilder{},
		&mockStorage{},
		cache,
		&output.NoOpMetrics{},
		testLogger(),
		"/tmp",
	)

	// Unloading a key that was never loaded silently succeeds, like
	// erasing an absent map entry.
	if err := registry.Unload(context.Background(), "never-loaded"); err != nil {
		t.Errorf("Unload(never-loaded) = %v, want nil", err)
	}
	if len(cache.invalidated) != 0 {
		t.Errorf("cache.invalidated = %v, want none", cache.invalidated)
	}
}

func TestDatasetRegistryUnloadInvalidatesCache(t *testing.T) {
	cache := newMockCache()
	registry := NewDatasetRegistry(
		&mockBuilder{},
		&mockStorage{},
		cache,
		&output.NoOpMetrics{},
		testLogger(),
		"/tmp",
	)
	ctx := context.Background()

	if err := registry.LoadFile(ctx, "/data/roads.geojson"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := registry.Unload(ctx, "roads"); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}

	if len(cache.invalidated) != 1 || cache.invalidated[0] != "roads" {
		t.Errorf("cache.invalidated = %v, want [roads]", cache.invalidated)
	}
}

func TestDatasetRegistrySync(t *testing.T) {
	storage := &mockStorage{
		objects: []output.StorageObject{
			{Key: "roads.geojson", Size: 100},
			{Key: "buildings.geojson", Size: 200},
		},
	}
	registry := NewDatasetRegistry(
		&mockBuilder{},
		storage,
		newMockCache(),
		&output.NoOpMetrics{},
		testLogger(),
		t.TempDir(),
	)
	ctx := context.Background()

	stats, err := registry.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if stats.Added != 2 {
		t.Errorf("stats.Added = %d, want 2", stats.Added)
	}
	if stats.Removed != 0 {
		t.Errorf("stats.Removed = %d, want 0", stats.Removed)
	}

	// A second sync with one object gone removes the stale dataset.
	storage.objects = storage.objects[:1]
	stats, err = registry.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if stats.Added != 0 {
		t.Errorf("stats.Added = %d, want 0", stats.Added)
	}
	if stats.Removed != 1 {
		t.Errorf("stats.Removed = %d, want 1", stats.Removed)
	}
	if got := registry.DatasetCount(); got != 1 {
		t.Errorf("DatasetCount() = %d, want 1", got)
	}
}
