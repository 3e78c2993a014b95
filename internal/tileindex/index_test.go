package tileindex

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/jobrunner/tessera/internal/domain"
)

func TestIndexFeatureCount(t *testing.T) {
	idx := New([]domain.TileFeature{
		{Geometry: orb.LineString{{0, 0}, {1, 1}}},
		{Geometry: nil},
		{Geometry: orb.Point{5, 5}},
	}, DefaultOptions())

	if got := idx.FeatureCount(); got != 2 {
		t.Errorf("FeatureCount() = %d, want 2", got)
	}
}

func TestIndexBounds(t *testing.T) {
	idx := New([]domain.TileFeature{
		{Geometry: orb.Polygon{{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}}},
	}, DefaultOptions())

	got := idx.Bounds()
	want := [4]float64{-1, -1, 1, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("Bounds()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestIndexBoundsEmpty(t *testing.T) {
	idx := New(nil, DefaultOptions())
	if got := idx.Bounds(); got != [4]float64{} {
		t.Errorf("Bounds() = %v, want zero", got)
	}
}

func TestGetTileTransformsToTileCoordinates(t *testing.T) {
	idx := New([]domain.TileFeature{
		{
			Geometry:   orb.LineString{{0, 0}, {90, 0}},
			Properties: map[string]interface{}{"name": "equator"},
		},
	}, DefaultOptions())

	features := idx.GetTile(domain.TileCoord{Z: 0, X: 0, Y: 0})
	if len(features) != 1 {
		t.Fatalf("GetTile() returned %d features, want 1", len(features))
	}

	ls, ok := features[0].Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("geometry is %T, want orb.LineString", features[0].Geometry)
	}

	// lon 0 sits at half the extent, lon 90 at three quarters.
	want := orb.LineString{{2048, 2048}, {3072, 2048}}
	if !ls.Equal(want) {
		t.Errorf("GetTile() geometry = %v, want %v", ls, want)
	}

	if got := features[0].Properties["name"]; got != "equator" {
		t.Errorf("properties lost: name = %v", got)
	}
}

func TestGetTileSkipsFarFeatures(t *testing.T) {
	idx := New([]domain.TileFeature{
		{Geometry: orb.LineString{{100, 40}, {101, 41}}},
	}, DefaultOptions())

	// A tile on the opposite side of the world.
	features := idx.GetTile(domain.TileCoord{Z: 5, X: 3, Y: 12})
	if len(features) != 0 {
		t.Errorf("GetTile() returned %d features, want 0", len(features))
	}
}

func TestGetTileSplitsMultiGeometries(t *testing.T) {
	idx := New([]domain.TileFeature{
		{
			Geometry: orb.MultiLineString{
				{{0, 0}, {10, 0}},
				{{0, 10}, {10, 10}},
			},
			Properties: map[string]interface{}{"name": "pair"},
		},
	}, DefaultOptions())

	features := idx.GetTile(domain.TileCoord{Z: 0, X: 0, Y: 0})
	if len(features) != 2 {
		t.Fatalf("GetTile() returned %d features, want 2", len(features))
	}
	for i, f := range features {
		if _, ok := f.Geometry.(orb.LineString); !ok {
			t.Errorf("feature %d geometry is %T, want orb.LineString", i, f.Geometry)
		}
		if got := f.Properties["name"]; got != "pair" {
			t.Errorf("feature %d lost properties", i)
		}
	}
}

func TestGetTilePointPassesThrough(t *testing.T) {
	// Points are not encodable downstream but the index does not judge
	// geometry types, it only transforms them.
	idx := New([]domain.TileFeature{
		{Geometry: orb.Point{0, 0}},
	}, DefaultOptions())

	features := idx.GetTile(domain.TileCoord{Z: 0, X: 0, Y: 0})
	if len(features) != 1 {
		t.Fatalf("GetTile() returned %d features, want 1", len(features))
	}
	if _, ok := features[0].Geometry.(orb.Point); !ok {
		t.Errorf("geometry is %T, want orb.Point", features[0].Geometry)
	}
}

func TestGetTileDeepZoom(t *testing.T) {
	// At a zoom at or above MaxZoom no simplification is applied and a
	// short line within the tile keeps both points.
	opts := DefaultOptions()
	idx := New([]domain.TileFeature{
		{Geometry: orb.LineString{{0.0001, 0.0001}, {0.0002, 0.0002}}},
	}, opts)

	z := opts.MaxZoom
	frac := maptile.Fraction(orb.Point{0.0001, 0.0001}, maptile.Zoom(z))

	features := idx.GetTile(domain.TileCoord{Z: z, X: uint32(frac[0]), Y: uint32(frac[1])})
	if len(features) != 1 {
		t.Fatalf("GetTile() returned %d features, want 1", len(features))
	}
	ls, ok := features[0].Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("geometry is %T, want orb.LineString", features[0].Geometry)
	}
	if len(ls) < 2 {
		t.Errorf("line reduced to %d points, want at least 2", len(ls))
	}
}
