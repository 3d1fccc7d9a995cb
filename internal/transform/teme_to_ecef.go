// Package transform converts SGP4 output into Earth-fixed and geodetic
// coordinates.
//
// TEME → ECEF uses a GMST-only rotation (TEME → PEF ≈ ECEF). Polar motion and
// the equation of the equinoxes are ignored, which costs tens of meters at
// most and is invisible at ground-track scale.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// PositionTEME is a position and velocity in the TEME frame.
type PositionTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// PositionECEF is a position and velocity in the ECEF frame.
type PositionECEF struct {
	X, Y, Z    float64 // meters
	VX, VY, VZ float64 // m/s
}

// TEMEToECEF rotates a TEME state (km, km/s) into ECEF (m, m/s) at UTC time t.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST is TEMEToECEF with a precomputed GMST angle in radians.
//
//	r_ECEF = R3(θ) r_TEME
//	v_ECEF = R3(θ) v_TEME − ω × r_ECEF
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	x, y := rotateZ(teme.X, teme.Y, gmst)
	vx, vy := rotateZ(teme.VX, teme.VY, gmst)

	// ω × r = [−ω y, ω x, 0]
	vx += OmegaEarth * y
	vy -= OmegaEarth * x

	const kmToM = 1000.0
	return PositionECEF{
		X:  x * kmToM,
		Y:  y * kmToM,
		Z:  teme.Z * kmToM,
		VX: vx * kmToM,
		VY: vy * kmToM,
		VZ: teme.VZ * kmToM,
	}
}

// rotateZ applies R3(θ) to the (x, y) components.
func rotateZ(x, y, theta float64) (float64, float64) {
	c, s := math.Cos(theta), math.Sin(theta)
	return x*c + y*s, -x*s + y*c
}

// ValidateECEF reports whether pos is a finite point between 6200 km and
// 50000 km from Earth's center, the envelope for Earth-orbiting satellites.
func ValidateECEF(pos PositionECEF) bool {
	for _, v := range [...]float64{pos.X, pos.Y, pos.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	const (
		minRadius = 6200.0e3
		maxRadius = 50000.0e3
	)
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	return mag >= minRadius && mag <= maxRadius
}
