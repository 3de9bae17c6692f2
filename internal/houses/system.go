// Package houses derives the twelve house cusps of a chart from its ascendant,
// midheaven and geographic latitude.
//
// Equal, Whole Sign and Porphyry are computed exactly. The remaining quadrant systems
// share Porphyry's proportional-arc trisection of each quadrant instead of their
// spherical definitions; System.Approximated reports which ones those are.
package houses

import (
	"fmt"
	"strings"
)

// System identifies a house division method.
type System uint8

const (
	Placidus      System = iota // Time trisection of the diurnal arc (approximated)
	Koch                        // Birthplace system (approximated)
	Equal                       // 30° houses from the ascendant
	WholeSign                   // Each sign is one house, starting at the ascendant's sign
	Porphyry                    // Quadrants trisected along the ecliptic
	Regiomontanus               // Celestial equator division (approximated)
	Campanus                    // Prime vertical division (approximated)
	Morinus                     // Equator projected from the ecliptic pole (approximated)
	Topocentric                 // Polich-Page (approximated)

	systemCount
)

// Requirement is a bitmask of the auxiliary parameters a system needs.
type Requirement uint8

const (
	NeedsLatitude Requirement = 1 << iota
	NeedsMidheaven
)

var systemNames = [systemCount]string{
	Placidus:      "Placidus",
	Koch:          "Koch",
	Equal:         "Equal",
	WholeSign:     "WholeSign",
	Porphyry:      "Porphyry",
	Regiomontanus: "Regiomontanus",
	Campanus:      "Campanus",
	Morinus:       "Morinus",
	Topocentric:   "Topocentric",
}

// Systems returns every supported house system in declaration order.
func Systems() []System {
	out := make([]System, 0, systemCount)
	for s := System(0); s < systemCount; s++ {
		out = append(out, s)
	}
	return out
}

// Name returns the canonical system name.
func (s System) Name() string {
	if s < systemCount {
		return systemNames[s]
	}
	return fmt.Sprintf("System(%d)", s)
}

func (s System) String() string { return s.Name() }

// Valid reports whether s is one of the enumerated systems.
func (s System) Valid() bool {
	return s < systemCount
}

// Requires returns the auxiliary parameters s needs beyond the ascendant.
func (s System) Requires() Requirement {
	switch s {
	case Equal, WholeSign:
		return 0
	case Porphyry, Morinus:
		return NeedsMidheaven
	default:
		return NeedsLatitude | NeedsMidheaven
	}
}

// Approximated reports whether s is computed with the proportional-arc trisection in
// place of its own astronomical definition.
func (s System) Approximated() bool {
	switch s {
	case Equal, WholeSign, Porphyry:
		return false
	default:
		return s.Valid()
	}
}

// ParseSystem resolves a system name. Matching ignores case, spaces, hyphens and
// underscores, so "whole sign", "Whole-Sign" and "WHOLE_SIGN" all resolve.
func ParseSystem(name string) (System, error) {
	key := canonical(name)
	for s := System(0); s < systemCount; s++ {
		if canonical(systemNames[s]) == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedSystem, name)
}

func canonical(name string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(name)))
}

// MarshalText encodes the canonical name.
func (s System) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSystem, uint8(s))
	}
	return []byte(s.Name()), nil
}

// UnmarshalText accepts any spelling ParseSystem accepts.
func (s *System) UnmarshalText(b []byte) error {
	parsed, err := ParseSystem(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
