package tilestore

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql" // mysql driver

	"github.com/jobrunner/tessera/internal/domain"
)

// MySQLStore implements the TileStore port backed by a MySQL database,
// using the MBTiles table layout with mediumblob tile data.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against the given DSN.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	return &MySQLStore{db: db}, nil
}

// Init creates the tiles and metadata tables and writes the tileset
// metadata rows.
func (s *MySQLStore) Init(ctx context.Context, meta domain.TilesetMetadata) error {
	stmts := []string{
		"create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data mediumblob)",
		"create table if not exists metadata (name varchar(50), value mediumtext)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// Index creation fails when the index already exists, which is fine
	// for reruns against the same database.
	_, _ = s.db.ExecContext(ctx, "create unique index metadata_name on metadata (name)")
	_, _ = s.db.ExecContext(ctx, "create unique index tile_index on tiles (zoom_level, tile_column, tile_row)")

	for name, value := range metadataItems(meta) {
		_, err := s.db.ExecContext(ctx,
			"replace into metadata (name, value) values (?, ?)", name, value)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTile stores one encoded tile, flipping the row to TMS.
func (s *MySQLStore) WriteTile(ctx context.Context, coord domain.TileCoord, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"replace into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?)",
		coord.Z, coord.X, coord.FlipY(), data)
	return err
}

// Close closes the connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
