package output

import (
	"context"

	"github.com/jobrunner/tessera/internal/domain"
)

// TileIndex defines the secondary port for the spatial tile index built
// from one dataset. An index is immutable after construction; GetTile is
// safe for concurrent readers.
type TileIndex interface {
	// GetTile returns the clipped, simplified features of the requested
	// tile in tile-local integer coordinates. May be empty.
	GetTile(coord domain.TileCoord) []domain.TileFeature

	// FeatureCount returns the number of indexed features.
	FeatureCount() int

	// Bounds returns the WGS84 bounding box of the indexed data:
	// west, south, east, north.
	Bounds() [4]float64
}

// IndexBuilder defines the secondary port for parsing a dataset source
// and building its tile index.
type IndexBuilder interface {
	// Build reads the GeoJSON file at path (gzip-compressed sources are
	// supported) and builds the tile index for it.
	Build(ctx context.Context, path string) (*domain.Dataset, TileIndex, error)
}
