package aspects

import (
	"fmt"
	"math"

	"github.com/talgya/astrowheel/internal/angle"
)

// Detect finds every aspect formed between unordered pairs of bodies. A pair may
// match several definitions when their orbs overlap; each match is reported.
// Fewer than two bodies is not an error and yields an empty result.
func Detect(bodies []Body, settings Settings) ([]Aspect, error) {
	if len(bodies) < 2 {
		return []Aspect{}, nil
	}
	if err := checkBodies(bodies); err != nil {
		return nil, err
	}

	defs := settings.Definitions()
	out := []Aspect{}
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			out = appendMatches(out, bodies[i], bodies[j], defs, settings, false)
		}
	}
	return out, nil
}

// DetectCross compares every body of a against every body of b. Results are marked
// Cross and are never cached.
func DetectCross(a, b []Body, settings Settings) ([]Aspect, error) {
	if len(a) == 0 || len(b) == 0 {
		return []Aspect{}, nil
	}
	if err := checkBodies(a); err != nil {
		return nil, fmt.Errorf("first set: %w", err)
	}
	if err := checkBodies(b); err != nil {
		return nil, fmt.Errorf("second set: %w", err)
	}

	defs := settings.Definitions()
	out := []Aspect{}
	for _, x := range a {
		for _, y := range b {
			out = appendMatches(out, x, y, defs, settings, true)
		}
	}
	return out, nil
}

func appendMatches(out []Aspect, a, b Body, defs []Definition, settings Settings, cross bool) []Aspect {
	sep := angle.ShortestArc(a.Longitude, b.Longitude)
	for _, d := range defs {
		tol := settings.Tolerance(d)
		dev := math.Abs(sep - d.Angle)
		if dev > tol {
			continue
		}
		out = append(out, Aspect{
			A:          a.Name,
			B:          b.Name,
			LongitudeA: a.Longitude,
			LongitudeB: b.Longitude,
			Name:       d.Name,
			Angle:      d.Angle,
			Separation: sep,
			Deviation:  dev,
			Orb:        tol,
			Color:      d.Color,
			LineStyle:  d.LineStyle,
			Symbol:     d.Symbol,
			Visible:    settings.enabled() && d.Visible(),
			Cross:      cross,
		})
	}
	return out
}

func checkBodies(bodies []Body) error {
	seen := make(map[string]bool, len(bodies))
	for _, b := range bodies {
		if math.IsNaN(b.Longitude) || math.IsInf(b.Longitude, 0) {
			return fmt.Errorf("%w: body %q has longitude %v", ErrInvalidArgument, b.Name, b.Longitude)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: duplicate body %q", ErrInvalidArgument, b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// FilterVisible drops aspects whose type or relationship is hidden.
func FilterVisible(aspects []Aspect) []Aspect {
	out := make([]Aspect, 0, len(aspects))
	for _, a := range aspects {
		if a.Visible {
			out = append(out, a)
		}
	}
	return out
}
