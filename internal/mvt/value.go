package mvt

import (
	"fmt"

	"github.com/paulmach/orb/encoding/mvt/vectortile"

	"github.com/jobrunner/tessera/internal/domain"
)

// encodeValue maps a property value onto the tile value message. The
// supported set is closed: bool, uint64, float64 and string. Anything
// else is a dataset defect and fails the whole tile.
func encodeValue(key string, v interface{}) (*vectortile.Tile_Value, error) {
	tv := &vectortile.Tile_Value{}
	switch t := v.(type) {
	case bool:
		tv.BoolValue = &t
	case uint64:
		tv.UintValue = &t
	case float64:
		tv.DoubleValue = &t
	case string:
		tv.StringValue = &t
	default:
		return nil, fmt.Errorf("property %q has type %T: %w", key, v, domain.ErrUnknownAttributeType)
	}
	return tv, nil
}
