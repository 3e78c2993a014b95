// Package tileindex holds datasets in a tile-query-friendly form.
//
// Features are projected into normalized spherical mercator once at
// build time. Each query transforms the candidate features into integer
// tile coordinates, clips them to the buffered tile square and
// simplifies them for the requested zoom.
package tileindex

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/orb/simplify"

	"github.com/jobrunner/tessera/internal/domain"
)

// Options tune index construction and tile generation.
type Options struct {
	Extent    uint32  // Tile coordinate extent, normally 4096
	Buffer    uint32  // Clip buffer around the tile, in tile coordinates
	Tolerance float64 // Simplification tolerance in tile coordinates
	MaxZoom   uint32  // Zoom at and above which no simplification happens
}

// DefaultOptions returns the options used by the service.
func DefaultOptions() Options {
	return Options{
		Extent:    4096,
		Buffer:    64,
		Tolerance: 3.0,
		MaxZoom:   18,
	}
}

type indexedFeature struct {
	geometry   orb.Geometry // normalized mercator, unit square
	bound      orb.Bound
	properties map[string]interface{}
}

// Index is an immutable in-memory tile index over one dataset. It is
// safe for concurrent queries.
type Index struct {
	opts     Options
	features []indexedFeature
	bound    orb.Bound
}

// New builds an index from GeoJSON-order features (lon/lat degrees).
func New(features []domain.TileFeature, opts Options) *Index {
	idx := &Index{
		opts:     opts,
		features: make([]indexedFeature, 0, len(features)),
		bound:    orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{0, 0}},
	}

	for _, f := range features {
		if f.Geometry == nil {
			continue
		}

		g := project.Geometry(orb.Clone(f.Geometry), toMercator)
		b := g.Bound()

		idx.features = append(idx.features, indexedFeature{
			geometry:   g,
			bound:      b,
			properties: f.Properties,
		})

		if len(idx.features) == 1 {
			idx.bound = b
		} else {
			idx.bound = idx.bound.Union(b)
		}
	}
	return idx
}

// GetTile returns the dataset features intersecting the given tile,
// transformed to integer tile coordinates. Multi geometries are split
// into one feature per part. An empty slice means an empty tile.
func (idx *Index) GetTile(coord domain.TileCoord) []domain.TileFeature {
	scale := float64(uint64(1) << coord.Z)
	extent := float64(idx.opts.Extent)
	buffer := float64(idx.opts.Buffer)

	// Tile square in normalized mercator, widened by the buffer.
	pad := buffer / (extent * scale)
	tileBound := orb.Bound{
		Min: orb.Point{float64(coord.X)/scale - pad, float64(coord.Y)/scale - pad},
		Max: orb.Point{float64(coord.X+1)/scale + pad, float64(coord.Y+1)/scale + pad},
	}

	clipBound := orb.Bound{
		Min: orb.Point{-buffer, -buffer},
		Max: orb.Point{extent + buffer, extent + buffer},
	}

	var out []domain.TileFeature
	for _, f := range idx.features {
		if !tileBound.Intersects(f.bound) {
			continue
		}

		g := project.Geometry(orb.Clone(f.geometry), func(p orb.Point) orb.Point {
			return orb.Point{
				(p[0]*scale - float64(coord.X)) * extent,
				(p[1]*scale - float64(coord.Y)) * extent,
			}
		})

		g = clip.Geometry(clipBound, g)
		if g == nil {
			continue
		}

		if coord.Z < idx.opts.MaxZoom && idx.opts.Tolerance > 0 {
			g = simplify.DouglasPeucker(idx.opts.Tolerance).Simplify(g)
			if g == nil {
				continue
			}
		}

		g = project.Geometry(g, roundPoint)

		for _, part := range flatten(g) {
			out = append(out, domain.TileFeature{
				Geometry:   part,
				Properties: f.properties,
			})
		}
	}
	return out
}

// FeatureCount returns the number of indexed features.
func (idx *Index) FeatureCount() int {
	return len(idx.features)
}

// Empty reports whether the index holds no features.
func (idx *Index) Empty() bool {
	return len(idx.features) == 0
}

// Bounds returns the dataset extent as [west, south, east, north] in
// degrees.
func (idx *Index) Bounds() [4]float64 {
	if idx.Empty() {
		return [4]float64{}
	}

	min := fromMercator(idx.bound.Min)
	max := fromMercator(idx.bound.Max)

	// Mercator y grows southward, so min/max latitudes swap.
	return [4]float64{min[0], max[1], max[0], min[1]}
}

// flatten splits multi geometries into single-part geometries. Single
// parts, including points, pass through unchanged.
func flatten(g orb.Geometry) []orb.Geometry {
	switch t := g.(type) {
	case orb.MultiLineString:
		parts := make([]orb.Geometry, 0, len(t))
		for _, ls := range t {
			parts = append(parts, ls)
		}
		return parts
	case orb.MultiPolygon:
		parts := make([]orb.Geometry, 0, len(t))
		for _, p := range t {
			parts = append(parts, p)
		}
		return parts
	case orb.MultiPoint:
		parts := make([]orb.Geometry, 0, len(t))
		for _, p := range t {
			parts = append(parts, p)
		}
		return parts
	case orb.Collection:
		var parts []orb.Geometry
		for _, sub := range t {
			parts = append(parts, flatten(sub)...)
		}
		return parts
	default:
		return []orb.Geometry{g}
	}
}

// toMercator projects lon/lat degrees onto the unit mercator square.
func toMercator(p orb.Point) orb.Point {
	return maptile.Fraction(p, 0)
}

// fromMercator is the inverse of toMercator.
func fromMercator(p orb.Point) orb.Point {
	lon := (p[0] - 0.5) * 360
	lat := math.Atan(math.Sinh(math.Pi*(1-2*p[1]))) * 180 / math.Pi
	return orb.Point{lon, lat}
}

func roundPoint(p orb.Point) orb.Point {
	return orb.Point{math.Round(p[0]), math.Round(p[1])}
}
