package output

import (
	"context"

	"github.com/jobrunner/tessera/internal/domain"
)

// TileCache defines the secondary port for caching encoded tile bytes.
type TileCache interface {
	// Get returns the cached tile bytes, and whether the tile was found.
	Get(ctx context.Context, datasetID string, coord domain.TileCoord) ([]byte, bool, error)

	// Set stores the encoded tile bytes.
	Set(ctx context.Context, datasetID string, coord domain.TileCoord, data []byte) error

	// InvalidateDataset removes all cached tiles of a dataset. Called on
	// unload and reload.
	InvalidateDataset(ctx context.Context, datasetID string) error
}

// NoOpTileCache is a no-op implementation of TileCache, used when
// caching is disabled.
type NoOpTileCache struct{}

// Get implements TileCache.
func (n *NoOpTileCache) Get(_ context.Context, _ string, _ domain.TileCoord) ([]byte, bool, error) {
	return nil, false, nil
}

// Set implements TileCache.
func (n *NoOpTileCache) Set(_ context.Context, _ string, _ domain.TileCoord, _ []byte) error {
	return nil
}

// InvalidateDataset implements TileCache.
func (n *NoOpTileCache) InvalidateDataset(_ context.Context, _ string) error {
	return nil
}
