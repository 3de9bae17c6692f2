// Package placement projects bodies onto the wheel and moves colliding glyphs apart.
//
// Each body has two points: Exact, the true projection of its longitude, and Anchor,
// where its glyph is drawn. Resolve only ever moves anchors.
package placement

import (
	"errors"
	"fmt"
	"math"

	"github.com/jbeda/geom"

	"github.com/talgya/astrowheel/internal/angle"
	"github.com/talgya/astrowheel/internal/aspects"
)

// DefaultMaxSpread caps how far a single cluster may fan out, in degrees.
const DefaultMaxSpread = 90.0

var ErrInvalidArgument = errors.New("invalid argument")

// ProjectedBody is a body placed on the wheel.
type ProjectedBody struct {
	aspects.Body
	Exact  geom.Coord `json:"exact"`
	Anchor geom.Coord `json:"anchor"`
	Radius float64    `json:"radius"`
	// AdjustedLongitude is set only when Resolve moved the anchor off the body's own
	// longitude.
	AdjustedLongitude *float64 `json:"adjusted_longitude,omitempty"`
}

// AnchorLongitude returns the longitude the anchor is drawn at.
func (p ProjectedBody) AnchorLongitude() float64 {
	if p.AdjustedLongitude != nil {
		return *p.AdjustedLongitude
	}
	return p.Longitude
}

// ProjectOptions places bodies on the wheel.
type ProjectOptions struct {
	Center geom.Coord
	// Radius carries the exact position markers.
	Radius float64
	// IconRadius carries the glyph anchors; zero means Radius.
	IconRadius float64
	// Rotation is added to every longitude to obtain its bearing.
	Rotation float64
}

// Project computes exact and anchor points for each body.
func Project(bodies []aspects.Body, opts ProjectOptions) []ProjectedBody {
	iconRadius := opts.IconRadius
	if iconRadius == 0 {
		iconRadius = opts.Radius
	}
	out := make([]ProjectedBody, len(bodies))
	for i, b := range bodies {
		bearing := angle.Normalize(b.Longitude + opts.Rotation)
		out[i] = ProjectedBody{
			Body:   b,
			Exact:  angle.PointOnCircle(opts.Center, opts.Radius, bearing),
			Anchor: angle.PointOnCircle(opts.Center, iconRadius, bearing),
			Radius: iconRadius,
		}
	}
	return out
}

// Options controls overlap resolution.
type Options struct {
	// MinDistance is the smallest allowed gap between two anchors, in pixels.
	MinDistance float64
	Center      geom.Coord
	// Radius is the circle anchors are laid out on.
	Radius float64
	// Rotation must match the rotation used when projecting.
	Rotation float64
	// MaxSpread caps a cluster's total fan-out in degrees; zero means DefaultMaxSpread.
	MaxSpread float64
}

func (o Options) validate() error {
	if math.IsNaN(o.MinDistance) || math.IsInf(o.MinDistance, 0) || o.MinDistance < 0 {
		return fmt.Errorf("%w: min distance %v must be a non-negative number", ErrInvalidArgument, o.MinDistance)
	}
	if math.IsNaN(o.Radius) || math.IsInf(o.Radius, 0) || o.Radius <= 0 {
		return fmt.Errorf("%w: radius %v must be positive", ErrInvalidArgument, o.Radius)
	}
	if o.MaxSpread < 0 || math.IsNaN(o.MaxSpread) {
		return fmt.Errorf("%w: max spread %v must be non-negative", ErrInvalidArgument, o.MaxSpread)
	}
	return nil
}

// MinAngle is the angular gap on radius that corresponds to minDistance pixels.
func MinAngle(minDistance, radius float64) float64 {
	return angle.Degrees(minDistance / radius)
}
