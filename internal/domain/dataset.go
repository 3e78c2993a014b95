package domain

import "time"

// Dataset represents a registered GeoJSON dataset.
type Dataset struct {
	ID           string     // Unique identifier (caller-chosen, usually derived from filename)
	Name         string     // Display name
	Path         string     // Source file path
	Size         int64      // Source size in bytes
	FeatureCount int        // Number of indexed features
	Bounds       [4]float64 // WGS84 bounding box: west, south, east, north
	License      License    // License information
	LoadedAt     time.Time  // Load timestamp
}

// HasBounds returns true if the dataset covers a non-degenerate area.
func (d *Dataset) HasBounds() bool {
	return d.Bounds[0] != d.Bounds[2] || d.Bounds[1] != d.Bounds[3]
}

// DatasetStatus represents the lifecycle status of a dataset.
type DatasetStatus string

const (
	StatusLoading   DatasetStatus = "loading"
	StatusIndexing  DatasetStatus = "indexing"
	StatusReady     DatasetStatus = "ready"
	StatusError     DatasetStatus = "error"
	StatusUnloading DatasetStatus = "unloading"
)
