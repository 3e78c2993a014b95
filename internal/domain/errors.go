package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrDatasetNotFound      = fmt.Errorf("dataset: %w", ErrNotFound)
	ErrInvalidTile          = fmt.Errorf("tile coordinate: %w", ErrInvalidInput)
	ErrUnsupportedGeometry  = fmt.Errorf("geometry type: %w", ErrUnsupported)
	ErrUnknownAttributeType = fmt.Errorf("attribute type: %w", ErrUnsupported)
	ErrNotReady             = fmt.Errorf("service not ready: %w", ErrUnavailable)
	ErrStorageUnavailable   = fmt.Errorf("storage: %w", ErrUnavailable)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// LoadError represents a failure while loading and indexing a dataset.
// No registry entry is created when a load fails.
type LoadError struct {
	DatasetID string // Dataset identifier
	Source    string // File path or object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.DatasetID != "" {
		return fmt.Sprintf("load error for dataset %s from %s: %v", e.DatasetID, e.Source, e.Err)
	}
	return fmt.Sprintf("load error from %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// EncodeError represents an error during tile encoding. The whole tile
// encode is aborted; no partial tile bytes are returned.
type EncodeError struct {
	DatasetID string    // Dataset identifier
	Coord     TileCoord // Requested tile
	Err       error     // Underlying error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode error for dataset %s tile %s: %v", e.DatasetID, e.Coord, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}
