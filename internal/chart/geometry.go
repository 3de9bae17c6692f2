package chart

import (
	"github.com/jbeda/geom"

	"github.com/talgya/astrowheel/internal/angle"
	"github.com/talgya/astrowheel/internal/houses"
	"github.com/talgya/astrowheel/internal/zodiac"
)

// AscendantBearing is where the ascendant is drawn: the left edge of the wheel.
const AscendantBearing = 270.0

// Rings holds the radii of the wheel's concentric circles, outermost first.
type Rings struct {
	Outer         float64 `json:"outer"`
	Sign          float64 `json:"sign"`
	PrimaryIcon   float64 `json:"primary_icon"`
	SecondaryIcon float64 `json:"secondary_icon,omitempty"`
	Inner         float64 `json:"inner"`
}

// ringsFor derives the radii as fractions of size. A second body set gets its own
// icon ring and pushes the aspect circle inward.
func ringsFor(size float64, biwheel bool) Rings {
	r := Rings{
		Outer:       0.48 * size,
		Sign:        0.40 * size,
		PrimaryIcon: 0.34 * size,
		Inner:       0.26 * size,
	}
	if biwheel {
		r.SecondaryIcon = 0.28 * size
		r.Inner = 0.22 * size
	}
	return r
}

// CuspLine is a house boundary drawn from the aspect circle to the sign ring.
type CuspLine struct {
	House     int        `json:"house"`
	Label     string     `json:"label"`
	Longitude float64    `json:"longitude"`
	Angular   bool       `json:"angular"`
	From      geom.Coord `json:"from"`
	To        geom.Coord `json:"to"`
}

// SignSegment is one 30° slice of the sign ring.
type SignSegment struct {
	Name    string     `json:"name"`
	Symbol  string     `json:"symbol"`
	Element string     `json:"element"`
	Start   float64    `json:"start"`
	End     float64    `json:"end"`
	Glyph   geom.Coord `json:"glyph"`
}

func cuspLines(cusps houses.CuspSet, center geom.Coord, rings Rings, rotation float64) []CuspLine {
	out := make([]CuspLine, len(cusps))
	for i, lon := range cusps {
		bearing := angle.Normalize(lon + rotation)
		out[i] = CuspLine{
			House:     i + 1,
			Label:     houses.Label(i + 1),
			Longitude: lon,
			Angular:   i%3 == 0,
			From:      angle.PointOnCircle(center, rings.Inner, bearing),
			To:        angle.PointOnCircle(center, rings.Sign, bearing),
		}
	}
	return out
}

func signSegments(center geom.Coord, rings Rings, rotation float64) []SignSegment {
	mid := (rings.Outer + rings.Sign) / 2
	out := make([]SignSegment, 0, 12)
	for _, s := range zodiac.Signs() {
		start := s.Start()
		out = append(out, SignSegment{
			Name:    s.Name(),
			Symbol:  s.Symbol(),
			Element: s.Element().String(),
			Start:   start,
			End:     angle.Normalize(start + zodiac.SignWidth),
			Glyph:   angle.PointOnCircle(center, mid, angle.Normalize(start+zodiac.SignWidth/2+rotation)),
		})
	}
	return out
}
