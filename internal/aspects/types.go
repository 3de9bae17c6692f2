// Package aspects detects angular relationships between bodies, within one body set
// or across two sets (synastry).
package aspects

import (
	"errors"
	"sort"
)

// DefaultOrb is the tolerance used when neither a definition nor its settings name one.
const DefaultOrb = 6.0

// ErrInvalidArgument reports a caller contract violation such as duplicate body names.
var ErrInvalidArgument = errors.New("invalid argument")

// Body is a named point on the ecliptic.
type Body struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Color     string  `json:"color,omitempty"`
}

// Definition describes one aspect type and how it is drawn.
type Definition struct {
	Name      string   `json:"name"`
	Angle     float64  `json:"angle"`
	Orb       *float64 `json:"orb,omitempty"`
	Color     string   `json:"color,omitempty"`
	LineStyle string   `json:"line_style,omitempty"`
	Symbol    string   `json:"symbol,omitempty"`
	Disabled  bool     `json:"disabled,omitempty"`
}

// Visible reports whether aspects of this type should be drawn. Hidden types are
// still detected.
func (d Definition) Visible() bool {
	return !d.Disabled && d.LineStyle != "none"
}

// Settings configures detection for one relationship between body sets.
type Settings struct {
	// Orb is the fallback tolerance for definitions without their own.
	Orb float64 `json:"orb,omitempty"`
	// Types overlays the built-in definitions by name.
	Types map[string]Definition `json:"types,omitempty"`
	// Enabled=false hides every aspect of the relationship without skipping detection.
	Enabled *bool `json:"enabled,omitempty"`
}

// Aspect is one detected relationship between two bodies.
type Aspect struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	LongitudeA float64 `json:"longitude_a"`
	LongitudeB float64 `json:"longitude_b"`
	Name       string  `json:"name"`
	Angle      float64 `json:"angle"`
	Separation float64 `json:"separation"`
	Deviation  float64 `json:"deviation"`
	Orb        float64 `json:"orb"`
	Color      string  `json:"color,omitempty"`
	LineStyle  string  `json:"line_style,omitempty"`
	Symbol     string  `json:"symbol,omitempty"`
	Visible    bool    `json:"visible"`
	Cross      bool    `json:"cross,omitempty"`
}

func orb(v float64) *float64 { return &v }

// DefaultDefinitions returns the built-in aspect table. Minor aspects are present but
// disabled.
func DefaultDefinitions() map[string]Definition {
	return map[string]Definition{
		"conjunction": {Name: "conjunction", Angle: 0, Orb: orb(8), Color: "#e6b800", LineStyle: "solid", Symbol: "☌"},
		"semisextile": {Name: "semisextile", Angle: 30, Orb: orb(2), Color: "#999999", LineStyle: "dotted", Symbol: "⚺", Disabled: true},
		"sextile":     {Name: "sextile", Angle: 60, Orb: orb(4), Color: "#3366cc", LineStyle: "dashed", Symbol: "⚹"},
		"square":      {Name: "square", Angle: 90, Orb: orb(7), Color: "#cc3333", LineStyle: "solid", Symbol: "□"},
		"trine":       {Name: "trine", Angle: 120, Orb: orb(8), Color: "#33a02c", LineStyle: "solid", Symbol: "△"},
		"quincunx":    {Name: "quincunx", Angle: 150, Orb: orb(3), Color: "#999999", LineStyle: "dotted", Symbol: "⚻", Disabled: true},
		"opposition":  {Name: "opposition", Angle: 180, Orb: orb(8), Color: "#cc3333", LineStyle: "solid", Symbol: "☍"},
	}
}

// Definitions returns the effective table: the defaults overlaid by s.Types, sorted by
// angle then name. Zero fields of an override are taken from the default of the same
// name, so {"square": {Color: "red"}} only recolours squares.
func (s Settings) Definitions() []Definition {
	table := DefaultDefinitions()
	for key, override := range s.Types {
		name := override.Name
		if name == "" {
			name = key
		}
		base, ok := table[name]
		if !ok {
			override.Name = name
			table[name] = override
			continue
		}
		table[name] = merge(base, override)
	}

	out := make([]Definition, 0, len(table))
	for _, d := range table {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Angle != out[j].Angle {
			return out[i].Angle < out[j].Angle
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Tolerance returns the orb in effect for d under s.
func (s Settings) Tolerance(d Definition) float64 {
	if d.Orb != nil {
		return *d.Orb
	}
	if s.Orb > 0 {
		return s.Orb
	}
	return DefaultOrb
}

func (s Settings) enabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func merge(base, o Definition) Definition {
	if o.Angle != 0 {
		base.Angle = o.Angle
	}
	if o.Orb != nil {
		base.Orb = o.Orb
	}
	if o.Color != "" {
		base.Color = o.Color
	}
	if o.LineStyle != "" {
		base.LineStyle = o.LineStyle
	}
	if o.Symbol != "" {
		base.Symbol = o.Symbol
	}
	base.Disabled = o.Disabled
	return base
}

// Relationships holds the settings for each pairing of body sets.
type Relationships struct {
	Primary   *Settings `json:"primary,omitempty"`
	Secondary *Settings `json:"secondary,omitempty"`
	Cross     *Settings `json:"cross,omitempty"`
}

// Resolve fills unset relationships. A legacy single settings object stands in for the
// primary relationship; anything still unset gets zero Settings (the defaults).
func (r Relationships) Resolve(legacy *Settings) (primary, secondary, cross Settings) {
	if r.Primary != nil {
		primary = *r.Primary
	} else if legacy != nil {
		primary = *legacy
	}
	if r.Secondary != nil {
		secondary = *r.Secondary
	}
	if r.Cross != nil {
		cross = *r.Cross
	}
	return primary, secondary, cross
}
