package domain

import "testing"

func TestTileCoordValid(t *testing.T) {
	tests := []struct {
		name  string
		coord TileCoord
		want  bool
	}{
		{"origin at zoom 0", TileCoord{Z: 0, X: 0, Y: 0}, true},
		{"x out of range at zoom 0", TileCoord{Z: 0, X: 1, Y: 0}, false},
		{"y out of range at zoom 0", TileCoord{Z: 0, X: 0, Y: 1}, false},
		{"max valid at zoom 3", TileCoord{Z: 3, X: 7, Y: 7}, true},
		{"x out of range at zoom 3", TileCoord{Z: 3, X: 8, Y: 0}, false},
		{"typical mid zoom", TileCoord{Z: 14, X: 8508, Y: 5490}, true},
		{"zoom above limit", TileCoord{Z: 31, X: 0, Y: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTileCoordFlipY(t *testing.T) {
	tests := []struct {
		coord TileCoord
		want  uint32
	}{
		{TileCoord{Z: 0, X: 0, Y: 0}, 0},
		{TileCoord{Z: 1, X: 0, Y: 0}, 1},
		{TileCoord{Z: 1, X: 0, Y: 1}, 0},
		{TileCoord{Z: 14, X: 8508, Y: 5490}, 10893},
	}

	for _, tt := range tests {
		if got := tt.coord.FlipY(); got != tt.want {
			t.Errorf("FlipY(%s) = %d, want %d", tt.coord, got, tt.want)
		}
	}
}

func TestTileCoordString(t *testing.T) {
	c := TileCoord{Z: 14, X: 8508, Y: 5490}
	if got := c.String(); got != "14/8508/5490" {
		t.Errorf("String() = %q, want %q", got, "14/8508/5490")
	}
}
