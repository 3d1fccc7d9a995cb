package track

import (
	"github.com/paulmach/orb"

	"github.com/star/spacetrace/internal/layer"
)

// Point and line layer schemas. Altitude is in km.
var (
	PointFields = []layer.Field{
		{Name: "Point_ID", Type: layer.Int, Length: 10},
		{Name: "Date_Time", Type: layer.DateTime, Length: 19},
		{Name: "Latitude", Type: layer.Double, Length: 10, Precision: 6},
		{Name: "Longitude", Type: layer.Double, Length: 11, Precision: 6},
		{Name: "Altitude", Type: layer.Double, Length: 20, Precision: 3},
	}

	LineFields = []layer.Field{
		{Name: "ID", Type: layer.Int, Length: 10},
	}
)

// LineFeature is one output polyline and its 1-based identifier.
type LineFeature struct {
	ID       int
	Geometry orb.Geometry
}

// BuildLineFeatures turns segments into line features. SplitNone yields one
// multi-part feature; every other policy yields one feature per segment.
func BuildLineFeatures(segments []orb.LineString, policy SplitPolicy) []LineFeature {
	if policy == SplitNone {
		return []LineFeature{{ID: 1, Geometry: orb.MultiLineString(segments)}}
	}
	features := make([]LineFeature, len(segments))
	for i, seg := range segments {
		features[i] = LineFeature{ID: i + 1, Geometry: seg}
	}
	return features
}

// PointLayer builds the point layer, one feature per sample with a 0-based
// Point_ID.
func PointLayer(samples []Sample, name string) (*layer.Layer, error) {
	l := layer.New(name, layer.Point, PointFields)
	for i, s := range samples {
		if err := l.Add(orb.Point{s.Lon, s.Lat}, i, s.Time.UTC(), s.Lat, s.Lon, s.AltKm); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LineLayer builds the line layer from features.
func LineLayer(features []LineFeature, name string) (*layer.Layer, error) {
	l := layer.New(name, layer.Line, LineFields)
	for _, f := range features {
		if err := l.Add(f.Geometry, f.ID); err != nil {
			return nil, err
		}
	}
	return l, nil
}
