package transform

import "math"

// WGS-84 ellipsoid.
const (
	wgs84A  = 6378137.0           // semi-major axis, m
	wgs84F  = 1.0 / 298.257223563 // flattening
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// GeodeticPoint is a WGS-84 geodetic position.
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts ECEF meters to geodetic coordinates with Bowring's
// iteration. Longitude is in (−180, 180].
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)
	p := math.Hypot(x, y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := primeVerticalRadius(sinLat)
		lat = math.Atan2(z+wgs84E2*n*sinLat, p)
	}

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n := primeVerticalRadius(sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		// Near the poles.
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltM:   alt,
	}
}

// GeodeticToECEF is the inverse of ECEFToGeodetic.
func GeodeticToECEF(p GeodeticPoint) (x, y, z float64) {
	lat := p.LatDeg * math.Pi / 180.0
	lon := p.LonDeg * math.Pi / 180.0
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n := primeVerticalRadius(sinLat)

	x = (n + p.AltM) * cosLat * math.Cos(lon)
	y = (n + p.AltM) * cosLat * math.Sin(lon)
	z = (n*(1-wgs84E2) + p.AltM) * sinLat
	return x, y, z
}

func primeVerticalRadius(sinLat float64) float64 {
	return wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
}
