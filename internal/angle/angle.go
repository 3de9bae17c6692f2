// Package angle provides the ecliptic angle arithmetic shared by every part of the
// wheel: normalization into [0, 360), shortest and directed arcs, circular means, and
// the projection of a bearing onto a circle.
//
// Bearings follow the chart convention: 0° points up (screen -Y) and angles grow
// clockwise. Every package projects through PointOnCircle so the whole wheel agrees
// on that convention.
package angle

import (
	"math"

	"github.com/jbeda/geom"
)

// FullCircle is one revolution in degrees.
const FullCircle = 360.0

// Normalize wraps any finite angle into [0, 360).
func Normalize(a float64) float64 {
	d := math.Mod(a, FullCircle)
	if d < 0 {
		d += FullCircle
	}
	// A tiny negative input can round up to exactly 360 after the shift.
	if d >= FullCircle {
		d = 0
	}
	return d
}

// Valid reports whether a is a finite angle already inside [0, 360).
func Valid(a float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0) && a >= 0 && a < FullCircle
}

// ShortestArc returns the unsigned distance between a and b going the short way
// around, in [0, 180].
func ShortestArc(a, b float64) float64 {
	d := Normalize(b - a)
	if d > FullCircle-d {
		return FullCircle - d
	}
	return d
}

// DirectedArc returns the clockwise distance from start to end, in [0, 360).
func DirectedArc(start, end float64) float64 {
	return Normalize(end - start)
}

// SignedArc returns the shortest arc from -> to with a sign, in (-180, 180].
// Positive means to lies clockwise of from.
func SignedArc(from, to float64) float64 {
	d := Normalize(to - from)
	if d > FullCircle/2 {
		d -= FullCircle
	}
	return d
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// PointOnCircle projects a bearing onto a circle of the given radius.
// Bearing 0 is straight up from center, 90 is to the right.
func PointOnCircle(center geom.Coord, radius, bearing float64) geom.Coord {
	rad := Radians(bearing - 90)
	return geom.Coord{
		X: center.X + radius*math.Cos(rad),
		Y: center.Y + radius*math.Sin(rad),
	}
}

// BearingOf is the inverse of PointOnCircle: the bearing of p as seen from center.
func BearingOf(center, p geom.Coord) float64 {
	return Normalize(Degrees(math.Atan2(p.Y-center.Y, p.X-center.X)) + 90)
}

// Mean returns the circular mean of the given angles, computed from the sum of their
// unit vectors so that clusters straddling 0° do not average to 180°.
// ok is false when there are no angles or the vectors cancel out.
func Mean(angles ...float64) (mean float64, ok bool) {
	if len(angles) == 0 {
		return 0, false
	}
	var sx, sy float64
	for _, a := range angles {
		r := Radians(a)
		sx += math.Cos(r)
		sy += math.Sin(r)
	}
	if math.Hypot(sx, sy) < 1e-9*float64(len(angles)) {
		return 0, false
	}
	return Normalize(Degrees(math.Atan2(sy, sx))), true
}
