package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobrunner/tessera/internal/domain"
	"github.com/jobrunner/tessera/internal/mvt"
	"github.com/jobrunner/tessera/internal/ports/output"
)

// DefaultLayerName is the single layer every tile carries.
const DefaultLayerName = "default"

// TileOptions configure tile assembly.
type TileOptions struct {
	LayerName string
	Extent    uint32
}

// DefaultTileOptions returns the tile options used by the service.
func DefaultTileOptions() TileOptions {
	return TileOptions{
		LayerName: DefaultLayerName,
		Extent:    mvt.DefaultExtent,
	}
}

// TileQueryService serves encoded vector tiles from registered
// datasets.
type TileQueryService struct {
	registry *DatasetRegistry
	cache    output.TileCache
	metrics  output.MetricsCollector
	logger   *slog.Logger
	opts     TileOptions
}

// NewTileQueryService creates a new tile query service.
func NewTileQueryService(
	registry *DatasetRegistry,
	cache output.TileCache,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	opts TileOptions,
) *TileQueryService {
	if opts.LayerName == "" {
		opts.LayerName = DefaultLayerName
	}
	if opts.Extent == 0 {
		opts.Extent = mvt.DefaultExtent
	}
	return &TileQueryService{
		registry: registry,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
	}
}

// GetTile returns the encoded vector tile for a dataset and tile
// coordinate. An empty tile encodes to an empty byte slice, which is a
// valid tile without layers.
func (s *TileQueryService) GetTile(ctx context.Context, datasetID string, coord domain.TileCoord) ([]byte, error) {
	start := time.Now()

	if !coord.Valid() {
		s.metrics.IncTileCount(datasetID, false)
		return nil, &domain.ValidationError{
			Field:      "tile",
			Value:      coord.String(),
			Constraint: fmt.Sprintf("z <= %d, x and y < 2^z", domain.MaxZoomLimit),
			Message:    "invalid tile coordinate",
		}
	}

	if data, ok, err := s.cache.Get(ctx, datasetID, coord); err != nil {
		s.logger.Warn("tile cache get failed", "dataset", datasetID, "tile", coord.String(), "error", err)
	} else if ok {
		s.metrics.IncCacheHits(datasetID)
		s.metrics.IncTileCount(datasetID, true)
		s.metrics.ObserveTileDuration(datasetID, time.Since(start))
		return data, nil
	} else {
		s.metrics.IncCacheMisses(datasetID)
	}

	index, err := s.registry.Index(datasetID)
	if err != nil {
		s.metrics.IncTileCount(datasetID, false)
		return nil, err
	}

	data, err := s.encodeTile(index, datasetID, coord)
	if err != nil {
		s.metrics.IncTileCount(datasetID, false)
		return nil, err
	}

	if err := s.cache.Set(ctx, datasetID, coord, data); err != nil {
		s.logger.Warn("tile cache set failed", "dataset", datasetID, "tile", coord.String(), "error", err)
	}

	s.metrics.IncTileCount(datasetID, true)
	s.metrics.ObserveTileDuration(datasetID, time.Since(start))
	s.metrics.ObserveTileSize(datasetID, len(data))

	s.logger.Debug("tile served",
		"dataset", datasetID,
		"tile", coord.String(),
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return data, nil
}

// encodeTile queries the index and assembles the single-layer tile. Any
// feature that fails to encode fails the whole tile.
func (s *TileQueryService) encodeTile(index output.TileIndex, datasetID string, coord domain.TileCoord) ([]byte, error) {
	features := index.GetTile(coord)

	layer := mvt.NewLayerBuilder(s.opts.LayerName, s.opts.Extent)
	for _, f := range features {
		if err := layer.AddFeature(f); err != nil {
			return nil, &domain.EncodeError{
				DatasetID: datasetID,
				Coord:     coord,
				Err:       err,
			}
		}
	}

	tile := mvt.NewTileBuilder()
	tile.AddLayer(layer)

	data, err := tile.Marshal()
	if err != nil {
		return nil, &domain.EncodeError{
			DatasetID: datasetID,
			Coord:     coord,
			Err:       err,
		}
	}
	return data, nil
}
