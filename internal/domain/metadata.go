package domain

// License contains license information for a dataset.
type License struct {
	Name        string // License name (e.g., "CC BY 4.0")
	URL         string // Link to the license text
	Attribution string // Attribution text to display
}

// IsEmpty returns true if no license information is set.
func (l *License) IsEmpty() bool {
	return l.Name == "" && l.URL == "" && l.Attribution == ""
}

// String returns the attribution text or license name.
func (l *License) String() string {
	if l.Attribution != "" {
		return l.Attribution
	}
	return l.Name
}

// TilesetMetadata describes a rendered tile pyramid, as written to the
// metadata table of an MBTiles or MySQL tile store.
type TilesetMetadata struct {
	Name        string     // Tileset name
	Format      string     // Tile format, always "pbf" for vector tiles
	Bounds      [4]float64 // WGS84 bounding box: west, south, east, north
	MinZoom     uint32     // First rendered zoom level
	MaxZoom     uint32     // Last rendered zoom level
	Attribution string     // Attribution text
}
