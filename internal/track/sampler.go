package track

import (
	"errors"
	"fmt"
	"time"

	"github.com/star/spacetrace/internal/propagation"
)

const minutesPerDay = 24 * 60

// Sample is the satellite sub-point at one instant.
type Sample struct {
	Time  time.Time
	Lon   float64 // degrees
	Lat   float64 // degrees
	AltKm float64
}

// Propagator yields the geodetic sub-point of one satellite at t.
type Propagator interface {
	LonLatAlt(t time.Time) (lon, lat, altKm float64, err error)
}

// PropagatorFactory builds a Propagator from two element lines.
type PropagatorFactory func(line1, line2 string) (Propagator, error)

// SGP4Factory builds SGP4 propagators. Lines that fail validation are
// ErrInput; any other initialisation failure is ErrPropagation.
func SGP4Factory(line1, line2 string) (Propagator, error) {
	p, err := propagation.FromLines(line1, line2)
	if err != nil {
		if errors.Is(err, propagation.ErrInvalidTLE) {
			return nil, fmt.Errorf("%w: %w", ErrInput, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrPropagation, err)
	}
	return p, nil
}

// SampleCount is the number of samples one day yields at stepMinutes.
func SampleCount(stepMinutes int) int {
	if stepMinutes <= 0 {
		return 0
	}
	return (minutesPerDay + stepMinutes - 1) / stepMinutes
}

// Midnight returns 00:00:00 UTC of day's calendar date, read in day's own
// location.
func Midnight(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SampleDay propagates prop from midnight of day, inclusive, up to the next
// midnight, exclusive, every stepMinutes.
func SampleDay(prop Propagator, day time.Time, stepMinutes int) ([]Sample, error) {
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("%w: step must be a positive number of minutes, got %d", ErrInput, stepMinutes)
	}

	start := Midnight(day)
	step := time.Duration(stepMinutes) * time.Minute
	samples := make([]Sample, 0, SampleCount(stepMinutes))

	for i := 0; i < SampleCount(stepMinutes); i++ {
		at := start.Add(time.Duration(i) * step)
		lon, lat, alt, err := prop.LonLatAlt(at)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %w", ErrPropagation, at.Format(time.RFC3339), err)
		}
		samples = append(samples, Sample{Time: at, Lon: lon, Lat: lat, AltKm: alt})
	}
	return samples, nil
}
