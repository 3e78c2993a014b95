// Package tilestore provides tile store adapters for seeded tile
// pyramids.
package tilestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/jobrunner/tessera/internal/application"
	"github.com/jobrunner/tessera/internal/domain"
)

// MBTilesStore implements the TileStore port backed by an MBTiles
// (SQLite) archive. Rows are written in the TMS scheme, as required by
// the MBTiles format.
type MBTilesStore struct {
	mu sync.Mutex // sqlite allows a single writer
	db *sql.DB
}

// NewMBTilesStore creates the MBTiles file and opens the database.
func NewMBTilesStore(path string) (*MBTilesStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA synchronous=0",
		"PRAGMA locking_mode=EXCLUSIVE",
		"PRAGMA journal_mode=DELETE",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &MBTilesStore{db: db}, nil
}

// Init creates the tiles and metadata tables and writes the tileset
// metadata rows.
func (s *MBTilesStore) Init(ctx context.Context, meta domain.TilesetMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []string{
		"create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob)",
		"create table if not exists metadata (name text, value text)",
		"create unique index if not exists metadata_name on metadata (name)",
		"create unique index if not exists tile_index on tiles (zoom_level, tile_column, tile_row)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for name, value := range metadataItems(meta) {
		_, err := s.db.ExecContext(ctx,
			"insert or replace into metadata (name, value) values (?, ?)", name, value)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTile stores one encoded tile, flipping the row to TMS.
func (s *MBTilesStore) WriteTile(ctx context.Context, coord domain.TileCoord, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"insert or replace into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?)",
		coord.Z, coord.X, coord.FlipY(), data)
	return err
}

// Close analyzes and closes the database.
func (s *MBTilesStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("ANALYZE"); err != nil {
		return err
	}
	return s.db.Close()
}

// metadataItems builds the metadata rows for a tileset.
func metadataItems(meta domain.TilesetMetadata) map[string]string {
	b := meta.Bounds
	centerLon := (b[0] + b[2]) / 2
	centerLat := (b[1] + b[3]) / 2
	centerZoom := (meta.MinZoom + meta.MaxZoom) / 2

	layersJSON, _ := json.Marshal(map[string]interface{}{
		"vector_layers": []map[string]interface{}{
			{
				"id":      application.DefaultLayerName,
				"fields":  map[string]string{},
				"minzoom": meta.MinZoom,
				"maxzoom": meta.MaxZoom,
			},
		},
	})

	return map[string]string{
		"name":        meta.Name,
		"format":      meta.Format,
		"type":        "overlay",
		"version":     "1",
		"bounds":      fmt.Sprintf("%f,%f,%f,%f", b[0], b[1], b[2], b[3]),
		"center":      fmt.Sprintf("%f,%f,%d", centerLon, centerLat, centerZoom),
		"minzoom":     strconv.FormatUint(uint64(meta.MinZoom), 10),
		"maxzoom":     strconv.FormatUint(uint64(meta.MaxZoom), 10),
		"attribution": meta.Attribution,
		"json":        string(layersJSON),
	}
}
