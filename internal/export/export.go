// Package export persists layers to disk as ESRI shapefiles, GeoJSON or KML.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/star/spacetrace/internal/layer"
)

// ErrUnsupported reports an output path whose extension has no writer.
var ErrUnsupported = errors.New("unsupported output format")

// Writer persists one layer at path.
type Writer interface {
	Write(l *layer.Layer, path string) error
}

// ForPath picks a writer by the extension of path.
func ForPath(path string) (Writer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return Shapefile{}, nil
	case ".geojson", ".json":
		return GeoJSON{}, nil
	case ".kml":
		return KML{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want .shp, .geojson, .json or .kml)", ErrUnsupported, path)
	}
}

// LinePath derives the line output path by inserting "_line" before the
// extension of pointPath.
func LinePath(pointPath string) string {
	ext := filepath.Ext(pointPath)
	return strings.TrimSuffix(pointPath, ext) + "_line" + ext
}
