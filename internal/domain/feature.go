package domain

import "github.com/paulmach/orb"

// TileFeature is one feature of a tile query result. The geometry is
// expressed in tile-local integer pixel coordinates (0..extent, plus the
// clip buffer); the tile index produces it already clipped and simplified.
type TileFeature struct {
	Geometry   orb.Geometry           // Line string or polygon in tile space
	Properties map[string]interface{} // Attribute data
}

// GeometryType returns the GeoJSON type name of the geometry.
func (f *TileFeature) GeometryType() string {
	if f.Geometry == nil {
		return ""
	}
	return f.Geometry.GeoJSONType()
}

// GetProperty returns a property value by key.
func (f *TileFeature) GetProperty(key string) (interface{}, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[key]
	return v, ok
}

// GetStringProperty returns a property as string.
func (f *TileFeature) GetStringProperty(key string) string {
	if v, ok := f.GetProperty(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
