package application

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jobrunner/tessera/internal/domain"
	"github.com/jobrunner/tessera/internal/ports/output"
)

// mockIndex implements output.TileIndex for testing.
type mockIndex struct {
	features []domain.TileFeature
	count    int
	bounds   [4]float64
}

func (m *mockIndex) GetTile(_ domain.TileCoord) []domain.TileFeature {
	return m.features
}

func (m *mockIndex) FeatureCount() int {
	return m.count
}

func (m *mockIndex) Bounds() [4]float64 {
	return m.bounds
}

// mockBuilder implements output.IndexBuilder for testing.
type mockBuilder struct {
	indexes  map[string]*mockIndex
	buildErr error
}

func (m *mockBuilder) Build(_ context.Context, path string) (*domain.Dataset, output.TileIndex, error) {
	if m.buildErr != nil {
		return nil, nil, m.buildErr
	}

	id := filepath.Base(path)
	id = strings.TrimSuffix(id, ".gz")
	id = strings.TrimSuffix(id, ".geojson")

	idx := &mockIndex{}
	if m.indexes != nil {
		if mi, ok := m.indexes[id]; ok {
			idx = mi
		}
	}

	return &domain.Dataset{
		ID:           id,
		Name:         id,
		Path:         path,
		FeatureCount: idx.count,
		Bounds:       idx.bounds,
	}, idx, nil
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	objects     []output.StorageObject
	downloadErr error
	listErr     error
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, _, _ string) error {
	return m.downloadErr
}

func (m *mockStorage) GetReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, nil
}

func (m *mockStorage) Exists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// mockTileService implements input.TileService for testing.
type mockTileService struct {
	data    []byte
	err     error
	served  int64
	servedM sync.Mutex
}

func (m *mockTileService) GetTile(_ context.Context, _ string, _ domain.TileCoord) ([]byte, error) {
	m.servedM.Lock()
	m.served++
	m.servedM.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

// mockTileStore implements output.TileStore and records writes.
type mockTileStore struct {
	mu       sync.Mutex
	meta     domain.TilesetMetadata
	inited   bool
	tiles    map[string][]byte
	writeErr error
	closed   bool
}

func newMockTileStore() *mockTileStore {
	return &mockTileStore{tiles: make(map[string][]byte)}
}

func (m *mockTileStore) Init(_ context.Context, meta domain.TilesetMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = meta
	m.inited = true
	return nil
}

func (m *mockTileStore) WriteTile(_ context.Context, coord domain.TileCoord, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiles[coord.String()] = data
	return nil
}

func (m *mockTileStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockCache implements output.TileCache and records operations.
type mockCache struct {
	mu          sync.Mutex
	store       map[string][]byte
	getErr      error
	setErr      error
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func cacheKey(datasetID string, coord domain.TileCoord) string {
	return datasetID + ":" + coord.String()
}

func (m *mockCache) Get(_ context.Context, datasetID string, coord domain.TileCoord) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.store[cacheKey(datasetID, coord)]
	return data, ok, nil
}

func (m *mockCache) Set(_ context.Context, datasetID string, coord domain.TileCoord, data []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[cacheKey(datasetID, coord)] = data
	return nil
}

func (m *mockCache) InvalidateDataset(_ context.Context, datasetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, datasetID)
	prefix := datasetID + ":"
	for k := range m.store {
		if strings.HasPrefix(k, prefix) {
			delete(m.store, k)
		}
	}
	return nil
}
