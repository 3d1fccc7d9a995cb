// Package propagation computes satellite sub-points from two-line element
// sets using SGP4.
package propagation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/star/spacetrace/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go, explicit TEME output. Propagate() takes Satellite by value so SGP4
// error codes are not visible to the caller; failures are detected by
// checking output for NaN/Inf and unreasonable position magnitudes.

// ErrInvalidTLE reports element lines that fail format validation.
var ErrInvalidTLE = errors.New("invalid TLE")

// SGP4Propagator wraps the go-satellite library for a single satellite.
type SGP4Propagator struct {
	sat     satellite.Satellite
	noradID int
}

// NewSGP4Propagator creates an SGP4 propagator from TLE lines.
//
// The lines are validated before reaching the library, because go-satellite
// calls log.Fatal on malformed numeric fields.
func NewSGP4Propagator(line1, line2 string, noradID int) (*SGP4Propagator, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("%w for NORAD %d: %v", ErrInvalidTLE, noradID, err)
	}

	sat := satellite.TLEToSat(strings.TrimSpace(line1), strings.TrimSpace(line2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, noradID: noradID}, nil
}

// FromLines creates a propagator, taking the NORAD ID from line 1.
func FromLines(line1, line2 string) (*SGP4Propagator, error) {
	id := 0
	if l := strings.TrimSpace(line1); len(l) >= 7 {
		id, _ = strconv.Atoi(strings.TrimSpace(l[2:7]))
	}
	return NewSGP4Propagator(line1, line2, id)
}

// NORADID returns the catalog number the propagator was built for.
func (p *SGP4Propagator) NORADID() int {
	return p.noradID
}

// validateTLELines checks line shape and every numeric field go-satellite
// parses.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}

	if _, err := strconv.Atoi(strings.TrimSpace(line1[2:7])); err != nil {
		return fmt.Errorf("line1 catalog number %q", line1[2:7])
	}
	if _, err := strconv.Atoi(strings.TrimSpace(line2[2:7])); err != nil {
		return fmt.Errorf("line2 catalog number %q", line2[2:7])
	}

	floats := []struct {
		name  string
		value string
	}{
		{"epoch year", line1[18:20]},
		{"epoch day", line1[20:32]},
		{"ndot", line1[33:43]},
		{"nddot", line1[44:45] + "." + line1[45:50] + "e" + line1[50:52]},
		{"bstar", line1[53:54] + "." + line1[54:59] + "e" + line1[59:61]},
		{"inclination", line2[8:16]},
		{"raan", line2[17:25]},
		{"eccentricity", "." + line2[26:33]},
		{"argument of perigee", line2[34:42]},
		{"mean anomaly", line2[43:51]},
		{"mean motion", line2[52:63]},
	}
	for _, f := range floats {
		if _, err := strconv.ParseFloat(strings.Replace(f.value, " ", "", 2), 64); err != nil {
			return fmt.Errorf("%s %q is not numeric", f.name, f.value)
		}
	}
	return nil
}

// Propagate computes the satellite position at the given time.
// Returns position and velocity in TEME frame (km, km/s).
func (p *SGP4Propagator) Propagate(year, month, day, hour, min, sec int) (transform.PositionTEME, error) {
	pos, vel := satellite.Propagate(p.sat, year, month, day, hour, min, sec)

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.noradID)
	}

	// Position magnitude should be between ~6200km and ~50000km.
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", p.noradID, mag)
	}

	return transform.PositionTEME{
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}, nil
}

// LonLatAlt returns the geodetic sub-point at t: longitude and latitude in
// degrees, altitude above the WGS-84 ellipsoid in km.
func (p *SGP4Propagator) LonLatAlt(t time.Time) (lon, lat, altKm float64, err error) {
	t = t.UTC()
	teme, err := p.Propagate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	if err != nil {
		return 0, 0, 0, err
	}
	ecef := transform.TEMEToECEF(teme, t)
	geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)
	return geo.LonDeg, geo.LatDeg, geo.AltM / 1000.0, nil
}
