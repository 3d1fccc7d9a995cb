package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/star/spacetrace/internal/layer"
)

// Shapefile writes point or polyline shapefiles with a dBASE attribute table
// and a WGS-84 .prj sidecar.
type Shapefile struct{}

// Write implements Writer.
func (Shapefile) Write(l *layer.Layer, path string) error {
	var shapeType shp.ShapeType = shp.POINT
	if l.Kind == layer.Line {
		shapeType = shp.POLYLINE
	}

	w, err := shp.Create(path, shapeType)
	if err != nil {
		return fmt.Errorf("create shapefile %s: %w", path, err)
	}
	defer w.Close()

	fields := make([]shp.Field, len(l.Fields))
	for i, f := range l.Fields {
		fields[i] = dbfField(f)
	}
	if err := w.SetFields(fields); err != nil {
		return fmt.Errorf("shapefile %s fields: %w", path, err)
	}

	for _, feat := range l.Features {
		shape, err := toShape(feat.Geometry)
		if err != nil {
			return fmt.Errorf("shapefile %s: %w", path, err)
		}
		row := int(w.Write(shape))
		for j, f := range l.Fields {
			if err := w.WriteAttribute(row, j, f.Export(feat.Attributes[j])); err != nil {
				return fmt.Errorf("shapefile %s row %d field %s: %w", path, row, f.Name, err)
			}
		}
	}

	return WritePRJ(path)
}

func dbfField(f layer.Field) shp.Field {
	switch f.Type {
	case layer.Int:
		return shp.NumberField(f.Name, uint8(f.Length))
	case layer.Double:
		return shp.FloatField(f.Name, uint8(f.Length), uint8(f.Precision))
	default:
		return shp.StringField(f.Name, uint8(f.Length))
	}
}

func toShape(g orb.Geometry) (shp.Shape, error) {
	switch g := g.(type) {
	case orb.Point:
		return &shp.Point{X: g.Lon(), Y: g.Lat()}, nil
	case orb.LineString:
		return shp.NewPolyLine([][]shp.Point{shpPoints(g)}), nil
	case orb.MultiLineString:
		parts := make([][]shp.Point, len(g))
		for i, ls := range g {
			parts[i] = shpPoints(ls)
		}
		return shp.NewPolyLine(parts), nil
	default:
		return nil, fmt.Errorf("geometry %T has no shapefile mapping", g)
	}
}

func shpPoints(ls orb.LineString) []shp.Point {
	pts := make([]shp.Point, len(ls))
	for i, p := range ls {
		pts[i] = shp.Point{X: p.Lon(), Y: p.Lat()}
	}
	return pts
}

// ReadShapefile loads a point or polyline shapefile into a layer. Numeric
// columns without decimals become Int, numeric columns with decimals become
// Double and everything else is read as String.
func ReadShapefile(path string) (*layer.Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	kind := layer.Point
	if r.GeometryType == shp.POLYLINE {
		kind = layer.Line
	} else if r.GeometryType != shp.POINT {
		return nil, fmt.Errorf("shapefile %s: unsupported shape type %d", path, r.GeometryType)
	}

	// The reader opens the .dbf lazily and reports a missing table as no
	// fields, so check for it up front.
	dbfPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".dbf"
	if _, err := os.Stat(dbfPath); err != nil {
		return nil, fmt.Errorf("shapefile %s attribute table: %w", path, err)
	}
	dbf := r.Fields()
	if len(dbf) == 0 {
		return nil, fmt.Errorf("shapefile %s: attribute table %s has no fields", path, dbfPath)
	}
	fields := make([]layer.Field, len(dbf))
	for i, f := range dbf {
		fields[i] = layerField(f)
	}

	l := layer.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), kind, fields)
	for r.Next() {
		n, shape := r.Shape()
		geom, err := fromShape(shape)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s record %d: %w", path, n, err)
		}
		attrs := make([]any, len(fields))
		for j, f := range fields {
			if attrs[j], err = parseAttribute(f, r.ReadAttribute(n, j)); err != nil {
				return nil, fmt.Errorf("shapefile %s record %d field %s: %w", path, n, f.Name, err)
			}
		}
		if err := l.Add(geom, attrs...); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func layerField(f shp.Field) layer.Field {
	lf := layer.Field{Name: f.String(), Length: int(f.Size), Precision: int(f.Precision)}
	switch {
	case (f.Fieldtype == 'N' || f.Fieldtype == 'F') && f.Precision == 0:
		lf.Type = layer.Int
	case f.Fieldtype == 'N' || f.Fieldtype == 'F':
		lf.Type = layer.Double
	default:
		lf.Type = layer.String
	}
	return lf
}

func parseAttribute(f layer.Field, raw string) (any, error) {
	// dbf cells are padded with spaces or NULs depending on the writer.
	raw = strings.Trim(raw, "\x00 ")
	switch f.Type {
	case layer.Int:
		return strconv.Atoi(raw)
	case layer.Double:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

func fromShape(s shp.Shape) (orb.Geometry, error) {
	switch s := s.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}, nil
	case *shp.PolyLine:
		lines := make(orb.MultiLineString, s.NumParts)
		for i := range lines {
			start := int(s.Parts[i])
			end := len(s.Points)
			if i+1 < int(s.NumParts) {
				end = int(s.Parts[i+1])
			}
			ls := make(orb.LineString, 0, end-start)
			for _, p := range s.Points[start:end] {
				ls = append(ls, orb.Point{p.X, p.Y})
			}
			lines[i] = ls
		}
		if len(lines) == 1 {
			return lines[0], nil
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("shape %T is not supported", s)
	}
}
