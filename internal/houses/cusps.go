package houses

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/talgya/astrowheel/internal/angle"
)

// CuspSet holds the twelve cusp longitudes. Index 0 is the 1st house cusp, 3 the 4th
// (IC for quadrant systems), 6 the 7th and 9 the 10th (MC).
type CuspSet [12]float64

// Cusp returns the cusp opening the given 1-based house. Other numbers wrap, so 0 is
// the 12th house and 13 the 1st.
func (c CuspSet) Cusp(house int) float64 {
	return c[((house-1)%12+12)%12]
}

// HouseOf returns the 1-based house containing longitude: the house whose cusp lies
// the shortest clockwise distance behind it.
func (c CuspSet) HouseOf(longitude float64) int {
	best, bestArc := 0, angle.FullCircle
	for i, cusp := range c {
		if arc := angle.DirectedArc(cusp, longitude); arc < bestArc {
			best, bestArc = i, arc
		}
	}
	return best + 1
}

// Monotonic reports whether walking the cusps from the 10th house round to the 9th
// covers the zodiac exactly once. The proportional-arc systems usually satisfy this
// but do not guarantee it.
func (c CuspSet) Monotonic() bool {
	total := 0.0
	for i := range c {
		from := c[(mcIndex+i)%12]
		to := c[(mcIndex+i+1)%12]
		total += angle.DirectedArc(from, to)
	}
	return total > angle.FullCircle-1e-6 && total < angle.FullCircle+1e-6
}

// Label renders a 1-based house number as e.g. "10th house".
func Label(house int) string {
	return fmt.Sprintf("%s house", humanize.Ordinal(house))
}
