// Package zodiac maps ecliptic longitudes onto the twelve 30° signs.
package zodiac

import (
	"fmt"
	"math"

	"github.com/talgya/astrowheel/internal/angle"
)

// SignWidth is the arc covered by each sign.
const SignWidth = 30.0

// Sign is one of the twelve tropical zodiac signs, in ecliptic order.
type Sign uint8

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// Element groups signs by triplicity.
type Element uint8

const (
	Fire Element = iota
	Earth
	Air
	Water
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signSymbols = [12]string{
	"♈", "♉", "♊", "♋", "♌", "♍", "♎", "♏", "♐", "♑", "♒", "♓",
}

var elementNames = [4]string{"fire", "earth", "air", "water"}

// Signs returns all twelve signs starting from Aries.
func Signs() []Sign {
	out := make([]Sign, 12)
	for i := range out {
		out[i] = Sign(i)
	}
	return out
}

// Name returns the English sign name.
func (s Sign) Name() string {
	if int(s) < len(signNames) {
		return signNames[s]
	}
	return fmt.Sprintf("Sign(%d)", s)
}

// Symbol returns the Unicode glyph for the sign.
func (s Sign) Symbol() string {
	if int(s) < len(signSymbols) {
		return signSymbols[s]
	}
	return "?"
}

// Element returns the sign's triplicity. Elements cycle fire, earth, air, water.
func (s Sign) Element() Element {
	return Element(uint8(s) % 4)
}

// Start returns the longitude at which the sign begins.
func (s Sign) Start() float64 {
	return float64(s) * SignWidth
}

// String returns the element name.
func (e Element) String() string {
	if int(e) < len(elementNames) {
		return elementNames[e]
	}
	return fmt.Sprintf("Element(%d)", e)
}

// SignOf returns the sign containing longitude.
func SignOf(longitude float64) Sign {
	s, _ := Position(longitude)
	return s
}

// Position splits a longitude into its sign and the degrees travelled within it.
func Position(longitude float64) (Sign, float64) {
	lon := angle.Normalize(longitude)
	idx := int(math.Floor(lon / SignWidth))
	if idx > 11 {
		idx = 11
	}
	return Sign(idx), lon - float64(idx)*SignWidth
}

// FormatDMS renders a longitude as degrees, minutes and seconds within its sign,
// e.g. 45.5 -> 15°30'00" Taurus.
func FormatDMS(longitude float64) string {
	s, within := Position(longitude)
	total := int(math.Round(within * 3600))
	// Rounding up to the next sign boundary.
	if total >= int(SignWidth)*3600 {
		total = 0
		s = Sign((uint8(s) + 1) % 12)
	}
	deg := total / 3600
	min := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%d°%02d'%02d\" %s", deg, min, sec, s.Name())
}
