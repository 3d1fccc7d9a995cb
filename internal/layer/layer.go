// Package layer holds vector layers in memory: a typed attribute schema, a
// geometry per feature and a fixed geographic CRS.
package layer

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CRS is the coordinate reference system of every layer.
const CRS = "EPSG:4326"

// DateTimeLayout is how DateTime values are rendered outside memory.
const DateTimeLayout = "2006-01-02 15:04:05"

// FieldType is the attribute type of a Field.
type FieldType int

const (
	Int FieldType = iota
	String
	Double
	DateTime
)

func (t FieldType) String() string {
	switch t {
	case Int:
		return "int"
	case String:
		return "string"
	case Double:
		return "double"
	case DateTime:
		return "datetime"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field describes one attribute column. Length and Precision follow the
// dBASE conventions the shapefile writer needs.
type Field struct {
	Name      string
	Type      FieldType
	Length    int
	Precision int
}

// Export converts an in-memory value to its persisted form: DateTime becomes
// a DateTimeLayout string and Double is rounded to Precision decimals.
func (f Field) Export(v any) any {
	switch f.Type {
	case DateTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(DateTimeLayout)
		}
	case Double:
		if x, ok := v.(float64); ok && f.Precision > 0 {
			p := math.Pow10(f.Precision)
			return math.Round(x*p) / p
		}
	}
	return v
}

// Feature is one geometry plus attribute values aligned with the layer's
// fields.
type Feature struct {
	Geometry   orb.Geometry
	Attributes []any
}

// GeometryKind is the geometry family a layer stores.
type GeometryKind string

const (
	Point GeometryKind = "Point"
	Line  GeometryKind = "LineString"
)

// Layer is an ordered collection of features sharing one schema.
type Layer struct {
	Name     string
	Kind     GeometryKind
	Fields   []Field
	Features []Feature
}

// New returns an empty layer.
func New(name string, kind GeometryKind, fields []Field) *Layer {
	return &Layer{Name: name, Kind: kind, Fields: fields}
}

// CRS returns the layer's coordinate reference system.
func (l *Layer) CRS() string { return CRS }

// Len returns the number of features.
func (l *Layer) Len() int { return len(l.Features) }

// Add appends a feature. The number of attributes must match the schema.
func (l *Layer) Add(geom orb.Geometry, attrs ...any) error {
	if len(attrs) != len(l.Fields) {
		return fmt.Errorf("layer %q: got %d attributes for %d fields", l.Name, len(attrs), len(l.Fields))
	}
	if err := l.checkGeometry(geom); err != nil {
		return err
	}
	l.Features = append(l.Features, Feature{Geometry: geom, Attributes: attrs})
	return nil
}

func (l *Layer) checkGeometry(geom orb.Geometry) error {
	switch geom.(type) {
	case orb.Point:
		if l.Kind == Point {
			return nil
		}
	case orb.LineString, orb.MultiLineString:
		if l.Kind == Line {
			return nil
		}
	}
	return fmt.Errorf("layer %q: %T does not fit a %s layer", l.Name, geom, l.Kind)
}

// FieldIndex returns the position of the named field, or -1.
func (l *Layer) FieldIndex(name string) int {
	for i, f := range l.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the raw attribute of feature i under the named field.
func (l *Layer) Value(i int, name string) (any, bool) {
	idx := l.FieldIndex(name)
	if idx < 0 || i < 0 || i >= len(l.Features) {
		return nil, false
	}
	return l.Features[i].Attributes[idx], true
}

// Properties returns the exported attribute values of feature i keyed by
// field name.
func (l *Layer) Properties(i int) map[string]any {
	props := make(map[string]any, len(l.Fields))
	for j, f := range l.Fields {
		props[f.Name] = f.Export(l.Features[i].Attributes[j])
	}
	return props
}

// FeatureCollection renders the layer as GeoJSON.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, feat := range l.Features {
		gf := geojson.NewFeature(feat.Geometry)
		gf.Properties = l.Properties(i)
		fc.Append(gf)
	}
	return fc
}
