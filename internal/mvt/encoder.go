// Package mvt encodes tile features into the Mapbox Vector Tile wire
// format, version 2.1.
package mvt

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"sort"

	"github.com/gogo/protobuf/proto"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt/vectortile"

	"github.com/jobrunner/tessera/internal/domain"
)

const (
	// Version is the encoded vector tile specification version.
	Version = 2

	// DefaultExtent is the tile coordinate extent used across the service.
	DefaultExtent = 4096
)

// LayerBuilder accumulates features for a single named layer. Keys and
// values are interned layer-wide, per the wire format.
type LayerBuilder struct {
	name   string
	extent uint32

	features []*vectortile.Tile_Feature

	keys     []string
	keyIndex map[string]uint32

	values     []*vectortile.Tile_Value
	valueIndex map[string]uint32
}

// NewLayerBuilder returns a builder for one layer with the given extent.
func NewLayerBuilder(name string, extent uint32) *LayerBuilder {
	return &LayerBuilder{
		name:       name,
		extent:     extent,
		keyIndex:   make(map[string]uint32),
		valueIndex: make(map[string]uint32),
	}
}

// AddFeature encodes one feature into the layer. Geometry coordinates
// must already be integer tile coordinates within the layer extent.
//
// A zero-length line string is silently skipped. An unsupported geometry
// type or property value type fails the call and the feature is not
// added; the caller decides whether that fails the whole tile.
func (b *LayerBuilder) AddFeature(f domain.TileFeature) error {
	var (
		geom     []uint32
		geomType vectortile.Tile_GeomType
	)

	switch g := f.Geometry.(type) {
	case orb.LineString:
		data, ok := encodeLineString(g)
		if !ok {
			return nil
		}
		geom = data
		geomType = vectortile.Tile_LINESTRING
	case orb.Polygon:
		geom = encodePolygon(g)
		if len(geom) == 0 {
			return nil
		}
		geomType = vectortile.Tile_POLYGON
	default:
		return fmt.Errorf("geometry %s: %w", f.Geometry.GeoJSONType(), domain.ErrUnsupportedGeometry)
	}

	tags, err := b.encodeProperties(f.Properties)
	if err != nil {
		return err
	}

	b.features = append(b.features, &vectortile.Tile_Feature{
		Tags:     tags,
		Type:     &geomType,
		Geometry: geom,
	})
	return nil
}

// encodeProperties interns keys and values and returns the feature tag
// list. Keys are visited in sorted order so encoding is deterministic.
func (b *LayerBuilder) encodeProperties(props map[string]interface{}) ([]uint32, error) {
	if len(props) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]uint32, 0, 2*len(keys))
	for _, k := range keys {
		vi, err := b.internValue(k, props[k])
		if err != nil {
			return nil, err
		}
		tags = append(tags, b.internKey(k), vi)
	}
	return tags, nil
}

func (b *LayerBuilder) internKey(k string) uint32 {
	if i, ok := b.keyIndex[k]; ok {
		return i
	}
	i := uint32(len(b.keys))
	b.keys = append(b.keys, k)
	b.keyIndex[k] = i
	return i
}

func (b *LayerBuilder) internValue(key string, v interface{}) (uint32, error) {
	id := valueID(v)
	if i, ok := b.valueIndex[id]; ok {
		return i, nil
	}

	tv, err := encodeValue(key, v)
	if err != nil {
		return 0, err
	}

	i := uint32(len(b.values))
	b.values = append(b.values, tv)
	b.valueIndex[id] = i
	return i, nil
}

// valueID builds the interning key for a property value. The type
// prefix keeps e.g. uint64(1) and "1" distinct.
func valueID(v interface{}) string {
	switch t := v.(type) {
	case bool:
		return fmt.Sprintf("b:%t", t)
	case uint64:
		return fmt.Sprintf("u:%d", t)
	case float64:
		return fmt.Sprintf("d:%g", t)
	case string:
		return "s:" + t
	default:
		return fmt.Sprintf("?:%T:%v", v, v)
	}
}

// Empty reports whether no feature was added to the layer.
func (b *LayerBuilder) Empty() bool {
	return len(b.features) == 0
}

func (b *LayerBuilder) layer() *vectortile.Tile_Layer {
	version := uint32(Version)
	extent := b.extent
	name := b.name
	return &vectortile.Tile_Layer{
		Version:  &version,
		Name:     &name,
		Features: b.features,
		Keys:     b.keys,
		Values:   b.values,
		Extent:   &extent,
	}
}

// TileBuilder assembles layers into one tile message.
type TileBuilder struct {
	layers []*vectortile.Tile_Layer
}

// NewTileBuilder returns an empty tile builder.
func NewTileBuilder() *TileBuilder {
	return &TileBuilder{}
}

// AddLayer appends a finished layer. Empty layers are kept out of the
// tile so decoders never see a layer without features.
func (t *TileBuilder) AddLayer(b *LayerBuilder) {
	if b.Empty() {
		return
	}
	t.layers = append(t.layers, b.layer())
}

// Marshal serializes the tile into protobuf bytes. A tile with no
// layers marshals to an empty, still valid, byte slice.
func (t *TileBuilder) Marshal() ([]byte, error) {
	data, err := proto.Marshal(&vectortile.Tile{Layers: t.layers})
	if err != nil {
		return nil, fmt.Errorf("marshal tile: %w", err)
	}
	return data, nil
}

// MarshalGzipped serializes the tile and gzips the result, the form
// stored at rest in tile archives.
func (t *TileBuilder) MarshalGzipped() ([]byte, error) {
	data, err := t.Marshal()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip tile: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip tile: %w", err)
	}
	return buf.Bytes(), nil
}
