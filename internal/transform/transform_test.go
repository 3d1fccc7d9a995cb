package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

var sampleTimes = []time.Time{
	time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
	time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
	time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC),
}

func TestJulianDate(t *testing.T) {
	cases := map[string]struct {
		at   time.Time
		want float64
	}{
		"J2000":      {time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		"unix epoch": {time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440587.5},
		"february":   {time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 2460369.5},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := JulianDate(tc.at); math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("JulianDate(%v) = %.8f, want %.8f", tc.at, got, tc.want)
			}
		})
	}
}

// GMST must agree with go-satellite, which uses the same IAU-82 model.
func TestGMSTMatchesLibrary(t *testing.T) {
	for _, at := range sampleTimes {
		got := GMST(at)
		ref := satellite.GSTimeFromDate(at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
		if math.Abs(got-ref) > 1e-8 {
			t.Errorf("GMST(%v) = %.12f, go-satellite %.12f", at, got, ref)
		}
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("GMST(%v) = %f out of [0, 2π)", at, got)
		}
	}
}

func TestTEMEToECEFMatchesLibrary(t *testing.T) {
	teme := PositionTEME{X: 5094.18016, Y: 6127.64465, Z: 6380.34453, VX: -4.746131487, VY: 0.786598499, VZ: 5.531931288}

	for _, at := range sampleTimes {
		gmst := satellite.GSTimeFromDate(at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
		got := TEMEToECEFWithGMST(teme, gmst)
		ref := satellite.ECIToECEF(satellite.Vector3{X: teme.X, Y: teme.Y, Z: teme.Z}, gmst)

		if math.Abs(got.X-ref.X*1000) > 1 || math.Abs(got.Y-ref.Y*1000) > 1 || math.Abs(got.Z-ref.Z*1000) > 1 {
			t.Errorf("%v: ECEF [%.3f %.3f %.3f] m, go-satellite [%.3f %.3f %.3f] km",
				at, got.X, got.Y, got.Z, ref.X, ref.Y, ref.Z)
		}
	}
}

func TestTEMEToECEFEarthRotation(t *testing.T) {
	ecef := TEMEToECEFWithGMST(PositionTEME{X: 6778, VY: 7.5}, 0)

	if math.Abs(ecef.X-6778000) > 0.1 {
		t.Errorf("X = %.1f, want 6778000", ecef.X)
	}
	want := (7.5 - OmegaEarth*6778) * 1000
	if math.Abs(ecef.VY-want) > 0.1 {
		t.Errorf("VY = %.1f m/s, want %.1f", ecef.VY, want)
	}
}

func TestValidateECEF(t *testing.T) {
	cases := []struct {
		pos  PositionECEF
		want bool
	}{
		{PositionECEF{X: 6778000}, true},
		{PositionECEF{Z: 42164000}, true},
		{PositionECEF{X: 5000000}, false},
		{PositionECEF{Y: 60000000}, false},
		{PositionECEF{X: math.NaN()}, false},
		{PositionECEF{Z: math.Inf(-1)}, false},
		{PositionECEF{}, false},
	}
	for _, tc := range cases {
		if got := ValidateECEF(tc.pos); got != tc.want {
			t.Errorf("ValidateECEF(%+v) = %v, want %v", tc.pos, got, tc.want)
		}
	}
}

func TestECEFToGeodeticAxes(t *testing.T) {
	cases := []struct {
		name          string
		x, y, z       float64
		lat, lon, alt float64
	}{
		{"prime meridian", wgs84A + 400e3, 0, 0, 0, 0, 400e3},
		{"90 east", 0, wgs84A, 0, 0, 90, 0},
		{"antimeridian", -wgs84A, 0, 0, 0, 180, 0},
		{"north pole", 0, 0, 6356752.314245 + 1000, 90, 0, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ECEFToGeodetic(tc.x, tc.y, tc.z)
			if math.Abs(got.LatDeg-tc.lat) > 1e-9 || math.Abs(got.LonDeg-tc.lon) > 1e-9 || math.Abs(got.AltM-tc.alt) > 1e-3 {
				t.Errorf("got %+v, want lat=%v lon=%v alt=%v", got, tc.lat, tc.lon, tc.alt)
			}
		})
	}
}

func TestGeodeticRoundTrip(t *testing.T) {
	points := []GeodeticPoint{
		{LatDeg: 51.6, LonDeg: -0.1, AltM: 420e3},
		{LatDeg: -33.9, LonDeg: 151.2, AltM: 550e3},
		{LatDeg: 0, LonDeg: -179.99, AltM: 35786e3},
		{LatDeg: -89.5, LonDeg: 45, AltM: 800e3},
	}
	for _, p := range points {
		got := ECEFToGeodetic(GeodeticToECEF(p))
		if math.Abs(got.LatDeg-p.LatDeg) > 1e-8 || math.Abs(got.LonDeg-p.LonDeg) > 1e-8 || math.Abs(got.AltM-p.AltM) > 1e-3 {
			t.Errorf("round trip %+v -> %+v", p, got)
		}
	}
}
