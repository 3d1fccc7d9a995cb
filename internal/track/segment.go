package track

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// SplitPolicy selects how a point sequence is cut into polylines.
type SplitPolicy string

const (
	// SplitNone emits the track as a single multi-part feature.
	SplitNone SplitPolicy = "none"
	// SplitAntimeridian starts a new segment on every longitude wrap.
	SplitAntimeridian SplitPolicy = "antimeridian"
	// SplitCustom cuts the track into a requested number of equal chunks.
	SplitCustom SplitPolicy = "custom"

	DefaultSplit = SplitAntimeridian
)

// ParseSplitPolicy accepts the policy names in any case. Empty selects
// DefaultSplit.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch p := SplitPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultSplit, nil
	case SplitNone, SplitAntimeridian, SplitCustom:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown split policy %q", ErrInput, s)
	}
}

// Segment partitions points into consecutive non-empty polylines. Joining the
// result in order gives back points exactly.
//
// SplitNone and SplitAntimeridian cut where the longitude jumps by more than
// 180° from the previous point. They differ only in how the segments are
// serialised. SplitCustom cuts fixed chunks of max(1, n/splitCount) points.
func Segment(points []orb.Point, policy SplitPolicy, splitCount int) ([]orb.LineString, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points to segment", ErrInput)
	}

	switch policy {
	case SplitNone, SplitAntimeridian:
		return splitOnWrap(points), nil
	case SplitCustom:
		if splitCount < 1 {
			return nil, fmt.Errorf("%w: custom split count must be at least 1, got %d", ErrInput, splitCount)
		}
		return splitChunks(points, max(1, len(points)/splitCount)), nil
	default:
		return nil, fmt.Errorf("%w: unknown split policy %q", ErrInput, policy)
	}
}

func splitOnWrap(points []orb.Point) []orb.LineString {
	var segments []orb.LineString
	current := orb.LineString{points[0]}
	for _, p := range points[1:] {
		if math.Abs(p.Lon()-current[len(current)-1].Lon()) > 180 {
			segments = append(segments, current)
			current = orb.LineString{}
		}
		current = append(current, p)
	}
	return append(segments, current)
}

func splitChunks(points []orb.Point, size int) []orb.LineString {
	segments := make([]orb.LineString, 0, (len(points)+size-1)/size)
	for start := 0; start < len(points); start += size {
		end := min(start+size, len(points))
		chunk := make(orb.LineString, end-start)
		copy(chunk, points[start:end])
		segments = append(segments, chunk)
	}
	return segments
}

// Points returns the (lon, lat) sequence of samples.
func Points(samples []Sample) []orb.Point {
	points := make([]orb.Point, len(samples))
	for i, s := range samples {
		points[i] = orb.Point{s.Lon, s.Lat}
	}
	return points
}
