package mvt

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Geometry command identifiers of the MVT 2.1 wire format. A command
// integer packs (count << 3) | id.
const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// geomEncoder writes the command/point stream of one geometry. The
// cursor persists across rings so deltas are always relative to the
// previously written point.
type geomEncoder struct {
	prevX, prevY int32
	data         []uint32
}

func (e *geomEncoder) command(id, count uint32) {
	e.data = append(e.data, (count<<3)|id)
}

func (e *geomEncoder) point(p orb.Point) {
	x := int32(p[0]) - e.prevX
	y := int32(p[1]) - e.prevY

	e.prevX = int32(p[0])
	e.prevY = int32(p[1])

	e.data = append(e.data,
		uint32((x<<1)^(x>>31)),
		uint32((y<<1)^(y>>31)),
	)
}

// encodeLineString encodes a line string, emitting every point in order.
// A line string of zero total Euclidean length reports ok=false and the
// feature must be dropped entirely: no geometry, no attributes, no
// feature record.
func encodeLineString(ls orb.LineString) (data []uint32, ok bool) {
	if planar.Length(ls) == 0 {
		return nil, false
	}

	e := &geomEncoder{data: make([]uint32, 0, 2+2*len(ls))}
	e.command(cmdMoveTo, 1)
	e.point(ls[0])
	e.command(cmdLineTo, uint32(len(ls)-1))
	for _, p := range ls[1:] {
		e.point(p)
	}
	return e.data, true
}

// encodePolygon encodes a polygon ring by ring. Rings are deduplicated
// before any counts are written, so the declared counts always match the
// emitted point stream. A closed ring drops its repeated closing vertex
// and ends with ClosePath; decoding restores it.
func encodePolygon(poly orb.Polygon) []uint32 {
	e := &geomEncoder{}
	for _, r := range poly {
		ring := dedupRing(r)
		if len(ring) == 0 {
			continue
		}
		if len(ring) > 1 && samePoint(ring[0], ring[len(ring)-1]) {
			ring = ring[:len(ring)-1]
		}

		e.command(cmdMoveTo, 1)
		e.point(ring[0])
		e.command(cmdLineTo, uint32(len(ring)-1))
		for _, p := range ring[1:] {
			e.point(p)
		}
		e.command(cmdClosePath, 1)
	}
	return e.data
}

// dedupRing removes consecutive points with identical integer
// coordinates. The comparison point starts at an out-of-band sentinel
// offset from the first vertex, so the first vertex is always kept.
// Whenever a point differs from its predecessor, that predecessor was
// emitted, so comparing against the previous input point is the same as
// comparing against the previously emitted one.
func dedupRing(r orb.Ring) orb.Ring {
	if len(r) == 0 {
		return nil
	}

	out := make(orb.Ring, 0, len(r))
	previous := orb.Point{r[0][0] + 1, r[0][1] + 2}
	for _, p := range r {
		if !samePoint(p, previous) {
			out = append(out, p)
		}
		previous = p
	}
	return out
}

// samePoint compares two points on their integer tile coordinates.
func samePoint(a, b orb.Point) bool {
	return int32(a[0]) == int32(b[0]) && int32(a[1]) == int32(b[1])
}
