package application

import (
	"context"

	"github.com/jobrunner/tessera/internal/domain"
	"github.com/jobrunner/tessera/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	registry *DatasetRegistry
}

// NewHealthService creates a new health service.
func NewHealthService(registry *DatasetRegistry) *HealthService {
	return &HealthService{
		registry: registry,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(ctx context.Context) bool {
	return true // Basic health check
}

// IsReady returns true if the service is ready to accept requests.
func (s *HealthService) IsReady(ctx context.Context) bool {
	datasets, err := s.registry.ListDatasets(ctx)
	if err != nil {
		return false
	}

	// Ready if at least one dataset is ready
	if len(s.registry.ReadyDatasetIDs()) > 0 {
		return true
	}

	// Also ready if no datasets are configured (empty state)
	return len(datasets) == 0
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	loaded := s.registry.DatasetCount()
	ready := len(s.registry.ReadyDatasetIDs())

	components := map[string]string{
		"storage": "ok",
	}

	return input.HealthDetails{
		Healthy:        s.IsHealthy(ctx),
		Ready:          s.IsReady(ctx),
		DatasetsLoaded: loaded,
		DatasetsReady:  ready,
		Components:     components,
	}
}

// DatasetHealth contains health info for a single dataset.
type DatasetHealth struct {
	ID     string
	Status domain.DatasetStatus
	Ready  bool
}

// GetDatasetHealth returns health info for all datasets.
func (s *HealthService) GetDatasetHealth(ctx context.Context) []DatasetHealth {
	datasets, _ := s.registry.ListDatasets(ctx)

	health := make([]DatasetHealth, len(datasets))
	for i, ds := range datasets {
		status, _ := s.registry.GetDatasetStatus(ctx, ds.ID)
		health[i] = DatasetHealth{
			ID:     ds.ID,
			Status: status,
			Ready:  status == domain.StatusReady,
		}
	}

	return health
}
