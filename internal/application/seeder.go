package application

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/jobrunner/tessera/internal/domain"
	"github.com/jobrunner/tessera/internal/ports/input"
	"github.com/jobrunner/tessera/internal/ports/output"
)

// SeedOptions configure a seeding run.
type SeedOptions struct {
	MinZoom  uint32 // First zoom level to render
	MaxZoom  uint32 // Last zoom level to render
	Workers  int    // Concurrent render workers
	Progress bool   // Show a terminal progress bar
}

// SeedStats summarizes a completed seeding run.
type SeedStats struct {
	JobID        string
	TilesWritten int64
	TilesEmpty   int64
	Duration     time.Duration
}

// Seeder renders a dataset's tile pyramid into a tile store.
type Seeder struct {
	tiles    input.TileService
	registry *DatasetRegistry
	logger   *slog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(tiles input.TileService, registry *DatasetRegistry, logger *slog.Logger) *Seeder {
	return &Seeder{
		tiles:    tiles,
		registry: registry,
		logger:   logger,
	}
}

// Seed renders all tiles of a dataset between MinZoom and MaxZoom into
// the store. Tiles are gzipped at rest. Empty tiles are counted but not
// written.
func (s *Seeder) Seed(ctx context.Context, datasetID string, store output.TileStore, opts SeedOptions) (SeedStats, error) {
	if opts.MaxZoom < opts.MinZoom {
		return SeedStats{}, &domain.ValidationError{
			Field:      "max-zoom",
			Value:      opts.MaxZoom,
			Constraint: "max-zoom >= min-zoom",
			Message:    "invalid zoom range",
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	ds, err := s.registry.GetDataset(ctx, datasetID)
	if err != nil {
		return SeedStats{}, err
	}

	jobID := uuid.New().String()
	start := time.Now()
	s.logger.Info("seeding started",
		"job", jobID,
		"dataset", datasetID,
		"min_zoom", opts.MinZoom,
		"max_zoom", opts.MaxZoom,
		"workers", opts.Workers,
	)

	meta := domain.TilesetMetadata{
		Name:        ds.Name,
		Format:      "pbf",
		Bounds:      ds.Bounds,
		MinZoom:     opts.MinZoom,
		MaxZoom:     opts.MaxZoom,
		Attribution: ds.License.Attribution,
	}
	if err := store.Init(ctx, meta); err != nil {
		return SeedStats{}, err
	}

	coords := enumerateTiles(ds, opts.MinZoom, opts.MaxZoom)

	var bar *pb.ProgressBar
	if opts.Progress {
		bar = pb.StartNew(len(coords))
		defer bar.Finish()
	}

	jobs := make(chan domain.TileCoord)
	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		written int64
		empty   int64
		wg      sync.WaitGroup
	)

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for coord := range jobs {
				if err := s.renderTile(ctx, datasetID, coord, store, &written, &empty); err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}

feed:
	for _, coord := range coords {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- coord:
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errCh:
		return SeedStats{JobID: jobID}, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return SeedStats{JobID: jobID}, err
	}

	stats := SeedStats{
		JobID:        jobID,
		TilesWritten: atomic.LoadInt64(&written),
		TilesEmpty:   atomic.LoadInt64(&empty),
		Duration:     time.Since(start),
	}
	s.logger.Info("seeding finished",
		"job", jobID,
		"written", stats.TilesWritten,
		"empty", stats.TilesEmpty,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (s *Seeder) renderTile(ctx context.Context, datasetID string, coord domain.TileCoord, store output.TileStore, written, empty *int64) error {
	data, err := s.tiles.GetTile(ctx, datasetID, coord)
	if err != nil {
		return fmt.Errorf("render tile %s: %w", coord, err)
	}
	if len(data) == 0 {
		atomic.AddInt64(empty, 1)
		return nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compress tile %s: %w", coord, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress tile %s: %w", coord, err)
	}

	if err := store.WriteTile(ctx, coord, buf.Bytes()); err != nil {
		return fmt.Errorf("write tile %s: %w", coord, err)
	}
	atomic.AddInt64(written, 1)
	return nil
}

// enumerateTiles lists the tiles covering the dataset bounds for each
// zoom level. Without bounds the full pyramid is enumerated.
func enumerateTiles(ds *domain.Dataset, minZoom, maxZoom uint32) []domain.TileCoord {
	var coords []domain.TileCoord
	for z := minZoom; z <= maxZoom; z++ {
		x0, y0, x1, y1 := tileRange(ds, z)
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				coords = append(coords, domain.TileCoord{Z: z, X: x, Y: y})
			}
		}
	}
	return coords
}

// tileRange returns the inclusive tile range covering the dataset at
// one zoom level.
func tileRange(ds *domain.Dataset, z uint32) (x0, y0, x1, y1 uint32) {
	max := uint32(1<<z) - 1
	if !ds.HasBounds() {
		return 0, 0, max, max
	}

	// Bounds are [west, south, east, north]; tile rows grow southward.
	nw := maptile.Fraction(orb.Point{ds.Bounds[0], ds.Bounds[3]}, maptile.Zoom(z))
	se := maptile.Fraction(orb.Point{ds.Bounds[2], ds.Bounds[1]}, maptile.Zoom(z))

	x0 = clampTile(nw[0], max)
	y0 = clampTile(nw[1], max)
	x1 = clampTile(se[0], max)
	y1 = clampTile(se[1], max)
	return x0, y0, x1, y1
}

func clampTile(f float64, max uint32) uint32 {
	if f < 0 {
		return 0
	}
	v := uint32(f)
	if v > max {
		return max
	}
	return v
}
