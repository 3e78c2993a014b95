// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/tessera/internal/domain"
)

// TileService defines the primary port for tile queries.
type TileService interface {
	// GetTile returns the encoded vector tile for a dataset and tile
	// coordinate. The returned bytes are a complete Mapbox Vector Tile.
	GetTile(ctx context.Context, datasetID string, coord domain.TileCoord) ([]byte, error)
}

// DatasetRegistry defines the primary port for dataset management.
type DatasetRegistry interface {
	// ListDatasets returns all registered datasets.
	ListDatasets(ctx context.Context) ([]domain.Dataset, error)

	// GetDataset returns a specific dataset by ID.
	GetDataset(ctx context.Context, id string) (*domain.Dataset, error)

	// GetDatasetStatus returns the status of a dataset.
	GetDatasetStatus(ctx context.Context, id string) (domain.DatasetStatus, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy        bool              // Overall health status
	Ready          bool              // Ready to accept requests
	DatasetsLoaded int               // Number of loaded datasets
	DatasetsReady  int               // Number of ready datasets
	Components     map[string]string // Component statuses
}
