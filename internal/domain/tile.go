// Package domain contains the core domain types of the tile service.
package domain

import "fmt"

// MaxZoomLimit is the highest zoom level a tile coordinate may address.
// Beyond that the tile column/row no longer fits the 32-bit tile scheme.
const MaxZoomLimit = 30

// TileCoord addresses one tile in the standard XYZ quad-tree tiling scheme.
type TileCoord struct {
	Z uint32 // Zoom level
	X uint32 // Tile column
	Y uint32 // Tile row (XYZ scheme, row 0 at the north)
}

// Valid returns true if the column and row are within range for the zoom.
func (t TileCoord) Valid() bool {
	if t.Z > MaxZoomLimit {
		return false
	}
	max := uint32(1) << t.Z
	return t.X < max && t.Y < max
}

// FlipY returns the row in the TMS scheme (row 0 at the south), as used
// by MBTiles archives.
func (t TileCoord) FlipY() uint32 {
	return (uint32(1) << t.Z) - 1 - t.Y
}

// String returns the z/x/y path form of the coordinate.
func (t TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}
