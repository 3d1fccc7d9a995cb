package export

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/star/spacetrace/internal/layer"
)

// GeoJSON writes a layer as one FeatureCollection. The layer name is kept as
// the "name" member.
type GeoJSON struct{}

// Write implements Writer.
func (GeoJSON) Write(l *layer.Layer, path string) error {
	fc := l.FeatureCollection()
	fc.ExtraMembers = geojson.Properties{"name": l.Name}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
