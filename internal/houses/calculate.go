package houses

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/astrowheel/internal/angle"
)

// PolarLatitude is the latitude at and beyond which Placidus is undefined.
const PolarLatitude = 66.5

// Indices of the angular cusps within a CuspSet.
const (
	ascIndex = 0
	icIndex  = 3
	dscIndex = 6
	mcIndex  = 9
)

// Params carries the auxiliary inputs some systems need. Nil means not supplied.
type Params struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Midheaven *float64 `json:"midheaven,omitempty"`
}

// WithLatitude returns a copy of p with the latitude set.
func (p Params) WithLatitude(lat float64) Params {
	p.Latitude = &lat
	return p
}

// WithMidheaven returns a copy of p with the midheaven set.
func (p Params) WithMidheaven(mc float64) Params {
	p.Midheaven = &mc
	return p
}

// Calculate returns the twelve cusps for ascendant under system.
//
// Systems that need a midheaven or latitude fail with ErrMissingParameter when it is
// absent. Placidus at |latitude| >= PolarLatitude, or whenever its subdivision
// degenerates, silently yields the Porphyry cusps instead.
func Calculate(ascendant float64, system System, params Params) (CuspSet, error) {
	if !angle.Valid(ascendant) {
		return CuspSet{}, fmt.Errorf("%w: ascendant %v outside [0,360)", ErrInvalidInput, ascendant)
	}
	if !system.Valid() {
		return CuspSet{}, fmt.Errorf("%w: %d", ErrUnsupportedSystem, uint8(system))
	}
	if err := validate(system, params); err != nil {
		return CuspSet{}, err
	}

	switch system {
	case Equal:
		return equal(ascendant), nil
	case WholeSign:
		return wholeSign(ascendant), nil
	case Porphyry:
		return porphyry(ascendant, *params.Midheaven), nil
	case Placidus:
		return placidus(ascendant, *params.Midheaven, *params.Latitude), nil
	case Koch, Regiomontanus, Campanus, Morinus, Topocentric:
		return porphyry(ascendant, *params.Midheaven), nil
	default:
		return CuspSet{}, fmt.Errorf("%w: %s", ErrUnsupportedSystem, system.Name())
	}
}

// CalculateNamed is Calculate with the system given by name.
func CalculateNamed(ascendant float64, system string, params Params) (CuspSet, error) {
	s, err := ParseSystem(system)
	if err != nil {
		return CuspSet{}, err
	}
	return Calculate(ascendant, s, params)
}

func validate(system System, params Params) error {
	req := system.Requires()
	if req&NeedsMidheaven != 0 && params.Midheaven == nil {
		return fmt.Errorf("%w: %s requires midheaven", ErrMissingParameter, system.Name())
	}
	if req&NeedsLatitude != 0 && params.Latitude == nil {
		return fmt.Errorf("%w: %s requires latitude", ErrMissingParameter, system.Name())
	}
	if params.Midheaven != nil && !angle.Valid(*params.Midheaven) {
		return fmt.Errorf("%w: midheaven %v outside [0,360)", ErrInvalidInput, *params.Midheaven)
	}
	if params.Latitude != nil {
		lat := *params.Latitude
		if math.IsNaN(lat) || lat < -90 || lat > 90 {
			return fmt.Errorf("%w: latitude %v outside [-90,90]", ErrInvalidInput, lat)
		}
	}
	return nil
}

func equal(asc float64) CuspSet {
	var c CuspSet
	for i := range c {
		c[i] = angle.Normalize(asc + 30*float64(i))
	}
	return c
}

func wholeSign(asc float64) CuspSet {
	var c CuspSet
	sign := int(math.Floor(asc / 30))
	for i := range c {
		c[i] = angle.Normalize(30 * float64((sign+i)%12))
	}
	return c
}

// porphyry trisects each quadrant along the ecliptic, always walking forward from
// the angle that opens the quadrant.
func porphyry(asc, mc float64) CuspSet {
	var c CuspSet
	setAngles(&c, asc, mc)
	trisect(&c, mcIndex, ascIndex)
	trisect(&c, ascIndex, icIndex)
	trisect(&c, icIndex, dscIndex)
	trisect(&c, dscIndex, mcIndex)
	return c
}

func setAngles(c *CuspSet, asc, mc float64) {
	c[ascIndex] = asc
	c[mcIndex] = mc
	c[dscIndex] = angle.Normalize(asc + 180)
	c[icIndex] = angle.Normalize(mc + 180)
}

// trisect fills the two cusps following index from with the 1/3 and 2/3 points of
// the directed arc to the cusp at index to.
func trisect(c *CuspSet, from, to int) {
	start := c[from]
	arc := angle.DirectedArc(start, c[to])
	c[(from+1)%12] = angle.Normalize(start + arc/3)
	c[(from+2)%12] = angle.Normalize(start + 2*arc/3)
}

func placidus(asc, mc, lat float64) CuspSet {
	if math.Abs(lat) >= PolarLatitude {
		slog.Debug("placidus undefined at polar latitude, using porphyry", "latitude", lat)
		return porphyry(asc, mc)
	}
	c, err := placidusSubdivision(asc, mc)
	if err != nil {
		slog.Debug("placidus subdivision failed, using porphyry", "error", err)
		return porphyry(asc, mc)
	}
	return c
}

// placidusSubdivision is the latitude-sensitive quadrant division. It currently
// trisects each quadrant like Porphyry but rejects geometry where a quadrant
// collapses, which a semi-arc division cannot handle.
func placidusSubdivision(asc, mc float64) (CuspSet, error) {
	eastern := angle.DirectedArc(mc, asc)
	if eastern == 0 || eastern == 180 {
		return CuspSet{}, fmt.Errorf("%w: ascendant %v and midheaven %v leave an empty quadrant",
			errDegenerateGeometry, asc, mc)
	}

	var c CuspSet
	setAngles(&c, asc, mc)
	for _, q := range [4][2]int{{mcIndex, ascIndex}, {ascIndex, icIndex}, {icIndex, dscIndex}, {dscIndex, mcIndex}} {
		trisect(&c, q[0], q[1])
	}
	for i, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return CuspSet{}, fmt.Errorf("%w: cusp %d is %v", errDegenerateGeometry, i+1, v)
		}
	}
	return c, nil
}
