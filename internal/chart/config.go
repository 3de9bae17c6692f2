// Package chart turns a chart configuration into a laid-out wheel: house cusps,
// sign segments, projected bodies and the aspects between them.
package chart

import (
	"fmt"
	"sort"

	"github.com/talgya/astrowheel/internal/aspects"
	"github.com/talgya/astrowheel/internal/houses"
)

// Default geometry used when a config leaves it zero.
const (
	DefaultSize        = 600.0
	DefaultMinDistance = 20.0
)

// Config is everything needed to build one wheel.
type Config struct {
	Houses    HouseSettings        `json:"houses"`
	Primary   map[string]BodyInput `json:"primary"`
	Secondary map[string]BodyInput `json:"secondary,omitempty"`
	// Aspects is the older single-relationship form; it applies to Primary only and
	// is ignored when AspectSets.Primary is set.
	Aspects    *aspects.Settings     `json:"aspects,omitempty"`
	AspectSets aspects.Relationships `json:"aspect_sets,omitempty"`
	Geometry   Geometry              `json:"geometry,omitempty"`
}

// HouseSettings selects the house system and supplies its inputs.
type HouseSettings struct {
	Ascendant float64  `json:"ascendant"`
	Midheaven *float64 `json:"midheaven,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	System    string   `json:"system"`
}

// Params converts the optional inputs for houses.Calculate.
func (h HouseSettings) Params() houses.Params {
	return houses.Params{Latitude: h.Latitude, Midheaven: h.Midheaven}
}

func (h HouseSettings) key() string {
	k := fmt.Sprintf("%s|%v", h.System, h.Ascendant)
	if h.Midheaven != nil {
		k += fmt.Sprintf("|mc=%v", *h.Midheaven)
	}
	if h.Latitude != nil {
		k += fmt.Sprintf("|lat=%v", *h.Latitude)
	}
	return k
}

// BodyInput is one body as supplied by the caller, keyed by name in Config.
type BodyInput struct {
	Longitude float64 `json:"longitude"`
	Color     string  `json:"color,omitempty"`
}

// Geometry sizes the wheel in pixels.
type Geometry struct {
	Size        float64 `json:"size,omitempty"`
	MinDistance float64 `json:"min_distance,omitempty"`
}

func (g Geometry) withDefaults() Geometry {
	if g.Size <= 0 {
		g.Size = DefaultSize
	}
	if g.MinDistance <= 0 {
		g.MinDistance = DefaultMinDistance
	}
	return g
}

// Flatten turns a name-keyed body map into a slice ordered by name, so that detection
// and layout are deterministic.
func Flatten(m map[string]BodyInput) []aspects.Body {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]aspects.Body, 0, len(names))
	for _, name := range names {
		b := m[name]
		out = append(out, aspects.Body{Name: name, Longitude: b.Longitude, Color: b.Color})
	}
	return out
}
