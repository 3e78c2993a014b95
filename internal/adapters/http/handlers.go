package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jobrunner/tessera/internal/application"
	"github.com/jobrunner/tessera/internal/domain"
)

// contentTypeMVT is the media type of an encoded vector tile.
const contentTypeMVT = "application/vnd.mapbox-vector-tile"

// handleGetTile serves one encoded vector tile.
func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	datasetID := vars["dataset"]

	coord, err := parseTileCoord(vars)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.tiles.GetTile(r.Context(), datasetID, coord)
	if err != nil {
		s.handleTileError(w, datasetID, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeMVT)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// parseTileCoord parses the z/x/y path variables.
func parseTileCoord(vars map[string]string) (domain.TileCoord, error) {
	z, err := strconv.ParseUint(vars["z"], 10, 32)
	if err != nil {
		return domain.TileCoord{}, errors.New("invalid z parameter")
	}
	x, err := strconv.ParseUint(vars["x"], 10, 32)
	if err != nil {
		return domain.TileCoord{}, errors.New("invalid x parameter")
	}
	y, err := strconv.ParseUint(vars["y"], 10, 32)
	if err != nil {
		return domain.TileCoord{}, errors.New("invalid y parameter")
	}
	return domain.TileCoord{Z: uint32(z), X: uint32(x), Y: uint32(y)}, nil
}

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":          boolToStatus(details.Healthy),
		"ready":           details.Ready,
		"datasets_loaded": details.DatasetsLoaded,
		"datasets_ready":  details.DatasetsReady,
		"components":      details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleListDatasets returns all registered datasets.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.registry.ListDatasets(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list datasets")
		return
	}

	response := make([]map[string]interface{}, len(datasets))
	for i := range datasets {
		response[i] = s.formatDataset(&datasets[i])
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"datasets": response,
		"count":    len(datasets),
	})
}

// handleGetDataset returns a specific dataset.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	datasetID := vars["dataset"]

	ds, err := s.registry.GetDataset(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, domain.ErrDatasetNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("Dataset %q not found", datasetID))
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get dataset")
		return
	}

	s.writeJSON(w, http.StatusOK, s.formatDataset(ds))
}

// handleTileJSON returns a TileJSON 3.0.0 document for a dataset.
func (s *Server) handleTileJSON(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	datasetID := vars["dataset"]

	ds, err := s.registry.GetDataset(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, domain.ErrDatasetNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("Dataset %q not found", datasetID))
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get dataset")
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	tileURL := fmt.Sprintf("%s://%s/api/v1/tiles/%s/{z}/{x}/{y}.mvt", scheme, r.Host, ds.ID)

	tilejson := map[string]interface{}{
		"tilejson": "3.0.0",
		"name":     ds.Name,
		"format":   "pbf",
		"scheme":   "xyz",
		"tiles":    []string{tileURL},
		"minzoom":  0,
		"maxzoom":  domain.MaxZoomLimit,
		"vector_layers": []map[string]interface{}{
			{
				"id":     application.DefaultLayerName,
				"fields": map[string]string{},
			},
		},
	}
	if ds.HasBounds() {
		tilejson["bounds"] = ds.Bounds
	}
	if ds.License.Attribution != "" {
		tilejson["attribution"] = ds.License.Attribution
	}

	s.writeJSON(w, http.StatusOK, tilejson)
}

// handleOpenAPI returns the OpenAPI specification.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	spec, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to get OpenAPI spec", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(spec)
}

// formatDataset formats a dataset for JSON output.
func (s *Server) formatDataset(ds *domain.Dataset) map[string]interface{} {
	out := map[string]interface{}{
		"id":            ds.ID,
		"name":          ds.Name,
		"size":          ds.Size,
		"feature_count": ds.FeatureCount,
		"loaded_at":     ds.LoadedAt,
	}
	if ds.HasBounds() {
		out["bounds"] = ds.Bounds
	}
	if !ds.License.IsEmpty() {
		out["license"] = map[string]interface{}{
			"name":        ds.License.Name,
			"url":         ds.License.URL,
			"attribution": ds.License.Attribution,
		}
	}
	return out
}

// handleTileError maps tile errors to HTTP status codes.
func (s *Server) handleTileError(w http.ResponseWriter, datasetID string, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	if errors.Is(err, domain.ErrDatasetNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("Dataset %q not found", datasetID))
		return
	}

	if errors.Is(err, domain.ErrNotReady) {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Dataset %q is not ready", datasetID))
		return
	}

	s.logger.Error("tile error", "dataset", datasetID, "error", err)
	s.writeError(w, http.StatusInternalServerError, "Tile encoding failed")
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}

// handleSync handles the sync trigger endpoint.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncService == nil {
		s.writeError(w, http.StatusNotFound, "Sync service not available")
		return
	}

	result, err := s.syncService.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", "30")
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again in 30 seconds.")
			return
		}
		s.logger.Error("sync failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}
