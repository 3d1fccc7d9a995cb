package export

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	kml "github.com/twpayne/go-kml"

	"github.com/star/spacetrace/internal/layer"
)

// KML writes a layer as a single-folder KML document. Attributes go into
// each placemark's description as "name: value" lines.
type KML struct{}

// Write implements Writer.
func (KML) Write(l *layer.Layer, path string) error {
	folder := kml.Folder(kml.Name(l.Name))
	for i, feat := range l.Features {
		geom, err := kmlGeometry(feat.Geometry)
		if err != nil {
			return fmt.Errorf("kml %s feature %d: %w", path, i, err)
		}
		folder.Add(kml.Placemark(
			kml.Name(fmt.Sprint(feat.Attributes[0])),
			kml.Description(describe(l, i)),
			geom,
		))
	}
	doc := kml.KML(kml.Document(kml.Name(l.Name), folder))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create kml: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("encode kml %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write kml %s: %w", path, err)
	}
	return f.Close()
}

func describe(l *layer.Layer, i int) string {
	var b strings.Builder
	for j, f := range l.Fields {
		if j > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, f.Export(l.Features[i].Attributes[j]))
	}
	return b.String()
}

func kmlGeometry(g orb.Geometry) (kml.Element, error) {
	switch g := g.(type) {
	case orb.Point:
		return kml.Point(kml.Coordinates(kml.Coordinate{Lon: g.Lon(), Lat: g.Lat()})), nil
	case orb.LineString:
		return kmlLine(g), nil
	case orb.MultiLineString:
		multi := kml.MultiGeometry()
		for _, ls := range g {
			multi.Add(kmlLine(ls))
		}
		return multi, nil
	default:
		return nil, fmt.Errorf("geometry %T has no KML mapping", g)
	}
}

func kmlLine(ls orb.LineString) kml.Element {
	coords := make([]kml.Coordinate, len(ls))
	for i, p := range ls {
		coords[i] = kml.Coordinate{Lon: p.Lon(), Lat: p.Lat()}
	}
	return kml.LineString(kml.Tessellate(true), kml.Coordinates(coords...))
}
