package output

import (
	"context"

	"github.com/jobrunner/tessera/internal/domain"
)

// TileStore defines the secondary port for persisting rendered tile
// pyramids, e.g. into an MBTiles file or a MySQL table.
type TileStore interface {
	// Init prepares the store (creates tables, writes tileset metadata).
	Init(ctx context.Context, meta domain.TilesetMetadata) error

	// WriteTile stores one encoded tile.
	WriteTile(ctx context.Context, coord domain.TileCoord, data []byte) error

	// Close flushes and releases the store.
	Close() error
}
