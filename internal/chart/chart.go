package chart

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jbeda/geom"

	"github.com/talgya/astrowheel/internal/angle"
	"github.com/talgya/astrowheel/internal/aspects"
	"github.com/talgya/astrowheel/internal/houses"
	"github.com/talgya/astrowheel/internal/placement"
	"github.com/talgya/astrowheel/internal/zodiac"
)

// Keys of Wheel.Aspects.
const (
	RelPrimary   = "primary"
	RelSecondary = "secondary"
	RelCross     = "cross"
)

// Wheel is a fully laid-out chart.
type Wheel struct {
	System       houses.System               `json:"system"`
	Approximated bool                        `json:"approximated"`
	Size         float64                     `json:"size"`
	Center       geom.Coord                  `json:"center"`
	Rotation     float64                     `json:"rotation"`
	Rings        Rings                       `json:"rings"`
	Cusps        houses.CuspSet              `json:"cusps"`
	CuspLines    []CuspLine                  `json:"cusp_lines"`
	Signs        []SignSegment               `json:"signs"`
	Primary      []placement.ProjectedBody   `json:"primary"`
	Secondary    []placement.ProjectedBody   `json:"secondary,omitempty"`
	Positions    []Position                  `json:"positions"`
	Aspects      map[string][]aspects.Aspect `json:"aspects"`
	Bounds       geom.Rect                   `json:"bounds"`
}

// Position describes where a body falls in the zodiac and the houses.
type Position struct {
	Set       string  `json:"set"`
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	Degree    float64 `json:"degree"`
	DMS       string  `json:"dms"`
	House     int     `json:"house"`
}

// Builder builds wheels. It keeps one aspect cache per relationship and remembers the
// cusps of the last house settings it saw, so redrawing an unchanged chart does no
// recomputation. A Builder is safe for concurrent use.
type Builder struct {
	primary   *aspects.Detector
	secondary *aspects.Detector
	cross     *aspects.Detector

	mu        sync.Mutex
	houseKey  string
	houseSys  houses.System
	lastCusps houses.CuspSet
}

// NewBuilder returns a Builder with empty caches.
func NewBuilder() *Builder {
	return &Builder{
		primary:   aspects.NewDetector(aspects.NewCache()),
		secondary: aspects.NewDetector(aspects.NewCache()),
		cross:     aspects.NewDetector(nil),
	}
}

// Build lays out cfg.
func (b *Builder) Build(cfg Config) (*Wheel, error) {
	sys, cusps, err := b.cuspsFor(cfg.Houses)
	if err != nil {
		return nil, err
	}

	primary := Flatten(cfg.Primary)
	secondary := Flatten(cfg.Secondary)
	if err := checkLongitudes(primary); err != nil {
		return nil, err
	}
	if err := checkLongitudes(secondary); err != nil {
		return nil, err
	}

	geo := cfg.Geometry.withDefaults()
	biwheel := len(secondary) > 0
	rings := ringsFor(geo.Size, biwheel)
	center := geom.Coord{X: geo.Size / 2, Y: geo.Size / 2}
	rotation := angle.Normalize(AscendantBearing - cusps[0])

	w := &Wheel{
		System:       sys,
		Approximated: sys.Approximated(),
		Size:         geo.Size,
		Center:       center,
		Rotation:     rotation,
		Rings:        rings,
		Cusps:        cusps,
		CuspLines:    cuspLines(cusps, center, rings, rotation),
		Signs:        signSegments(center, rings, rotation),
		Aspects:      make(map[string][]aspects.Aspect, 3),
	}

	w.Primary, err = layout(primary, center, rings.Sign, rings.PrimaryIcon, rotation, geo.MinDistance)
	if err != nil {
		return nil, err
	}
	if biwheel {
		w.Secondary, err = layout(secondary, center, rings.Sign, rings.SecondaryIcon, rotation, geo.MinDistance)
		if err != nil {
			return nil, err
		}
	}
	w.Positions = append(positions(RelPrimary, primary, cusps), positions(RelSecondary, secondary, cusps)...)

	ps, ss, cs := cfg.AspectSets.Resolve(cfg.Aspects)
	if w.Aspects[RelPrimary], err = b.primary.Detect(primary, ps); err != nil {
		return nil, fmt.Errorf("primary aspects: %w", err)
	}
	if biwheel {
		if w.Aspects[RelSecondary], err = b.secondary.Detect(secondary, ss); err != nil {
			return nil, fmt.Errorf("secondary aspects: %w", err)
		}
		if w.Aspects[RelCross], err = b.cross.DetectCross(primary, secondary, cs); err != nil {
			return nil, fmt.Errorf("cross aspects: %w", err)
		}
	}

	w.Bounds = bounds(w)
	return w, nil
}

// cuspsFor returns the cusps for h, reusing the previous result when h is unchanged.
func (b *Builder) cuspsFor(h HouseSettings) (houses.System, houses.CuspSet, error) {
	sys, err := houses.ParseSystem(h.System)
	if err != nil {
		return 0, houses.CuspSet{}, err
	}
	key := h.key()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.houseKey != "" && b.houseKey == key {
		return b.houseSys, b.lastCusps, nil
	}
	cusps, err := houses.Calculate(h.Ascendant, sys, h.Params())
	if err != nil {
		return 0, houses.CuspSet{}, err
	}
	slog.Debug("house cusps computed", "system", sys.Name(), "ascendant", h.Ascendant)
	b.houseKey, b.houseSys, b.lastCusps = key, sys, cusps
	return sys, cusps, nil
}

func checkLongitudes(bodies []aspects.Body) error {
	for _, body := range bodies {
		if !angle.Valid(body.Longitude) {
			return fmt.Errorf("%w: %s longitude %v outside [0,360)", aspects.ErrInvalidArgument, body.Name, body.Longitude)
		}
	}
	return nil
}

func layout(bodies []aspects.Body, center geom.Coord, radius, iconRadius, rotation, minDistance float64) ([]placement.ProjectedBody, error) {
	projected := placement.Project(bodies, placement.ProjectOptions{
		Center:     center,
		Radius:     radius,
		IconRadius: iconRadius,
		Rotation:   rotation,
	})
	return placement.Resolve(projected, placement.Options{
		MinDistance: minDistance,
		Center:      center,
		Radius:      iconRadius,
		Rotation:    rotation,
	})
}

func positions(set string, bodies []aspects.Body, cusps houses.CuspSet) []Position {
	out := make([]Position, 0, len(bodies))
	for _, body := range bodies {
		sign, deg := zodiac.Position(body.Longitude)
		out = append(out, Position{
			Set:       set,
			Name:      body.Name,
			Longitude: body.Longitude,
			Sign:      sign.Name(),
			Degree:    deg,
			DMS:       zodiac.FormatDMS(body.Longitude),
			House:     cusps.HouseOf(body.Longitude),
		})
	}
	return out
}

func bounds(w *Wheel) geom.Rect {
	r := geom.Rect{Min: w.Center, Max: w.Center}
	for _, bearing := range []float64{0, 90, 180, 270} {
		r.ExpandToContainCoord(angle.PointOnCircle(w.Center, w.Rings.Outer, bearing))
	}
	for _, l := range w.CuspLines {
		r.ExpandToContainCoord(l.From)
		r.ExpandToContainCoord(l.To)
	}
	for _, s := range w.Signs {
		r.ExpandToContainCoord(s.Glyph)
	}
	for _, set := range [][]placement.ProjectedBody{w.Primary, w.Secondary} {
		for _, p := range set {
			r.ExpandToContainCoord(p.Exact)
			r.ExpandToContainCoord(p.Anchor)
		}
	}
	return r
}
