package placement

import (
	"math"
	"sort"

	"github.com/talgya/astrowheel/internal/angle"
)

// Resolve spreads out anchors that sit closer than opts.MinDistance.
//
// Bodies whose anchors are transitively too close form a cluster. A lone body has its
// anchor pinned back onto its own longitude. A cluster whose natural span is too tight
// is laid out at even spacing around its circular mean, in the same clockwise order
// as the bodies' longitudes. Exact points are never touched and the input is never
// modified. Zero or one body is returned as is.
func Resolve(projected []ProjectedBody, opts Options) ([]ProjectedBody, error) {
	if len(projected) <= 1 {
		return projected, nil
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	out := make([]ProjectedBody, len(projected))
	copy(out, projected)

	for _, cluster := range clusters(out, opts.MinDistance) {
		if len(cluster) == 1 {
			pin(&out[cluster[0]], opts)
			continue
		}
		spread(out, cluster, opts)
	}
	return out, nil
}

// clusters groups indices into connected components of the "anchors closer than
// minDistance" relation. Components are returned in order of their first member.
func clusters(bodies []ProjectedBody, minDistance float64) [][]int {
	parent := make([]int, len(bodies))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if bodies[i].Anchor.DistanceFrom(bodies[j].Anchor) < minDistance {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	index := make(map[int]int)
	var groups [][]int
	for i := range bodies {
		root := find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func pin(b *ProjectedBody, opts Options) {
	b.Anchor = angle.PointOnCircle(opts.Center, opts.Radius, angle.Normalize(b.Longitude+opts.Rotation))
	b.AdjustedLongitude = nil
}

func spread(out []ProjectedBody, cluster []int, opts Options) {
	lons := make([]float64, len(cluster))
	for i, idx := range cluster {
		lons[i] = out[idx].Longitude
	}
	mean, ok := angle.Mean(lons...)
	if !ok {
		mean = lons[0]
	}

	// Order by signed offset from the mean so a cluster straddling 0° keeps its
	// clockwise order.
	offsets := make(map[int]float64, len(cluster))
	for _, idx := range cluster {
		offsets[idx] = angle.SignedArc(mean, out[idx].Longitude)
	}
	ordered := append([]int(nil), cluster...)
	sort.SliceStable(ordered, func(i, j int) bool {
		oi, oj := offsets[ordered[i]], offsets[ordered[j]]
		if oi != oj {
			return oi < oj
		}
		return out[ordered[i]].Name < out[ordered[j]].Name
	})

	n := len(ordered)
	minAngle := MinAngle(opts.MinDistance, opts.Radius)
	span := offsets[ordered[n-1]] - offsets[ordered[0]]
	if span >= float64(n-1)*minAngle {
		for _, idx := range ordered {
			pin(&out[idx], opts)
		}
		return
	}

	maxSpread := opts.MaxSpread
	if maxSpread == 0 {
		maxSpread = DefaultMaxSpread
	}
	total := float64(n-1) * minAngle
	capped := total > maxSpread
	if capped {
		total = maxSpread
	}
	step := total / float64(n-1)
	lons = evenlySpaced(mean, step, n)
	// Wrapping through 0° can round a gap just below minAngle; widen the step until
	// every neighbouring pair clears it.
	if !capped && minAngle < 180 {
		bump := math.Nextafter(step, math.Inf(1)) - step
		for i := 0; i < 64 && !separated(lons, minAngle); i++ {
			step += bump
			bump *= 2
			lons = evenlySpaced(mean, step, n)
		}
	}
	for i, idx := range ordered {
		lon := lons[i]
		out[idx].Anchor = angle.PointOnCircle(opts.Center, opts.Radius, angle.Normalize(lon+opts.Rotation))
		out[idx].AdjustedLongitude = &lon
	}
}

// evenlySpaced returns n longitudes step apart, centred on mean.
func evenlySpaced(mean, step float64, n int) []float64 {
	lons := make([]float64, n)
	for i := range lons {
		lons[i] = angle.Normalize(mean + (float64(i)-float64(n-1)/2)*step)
	}
	return lons
}

func separated(lons []float64, minAngle float64) bool {
	for i := 0; i+1 < len(lons); i++ {
		if angle.ShortestArc(lons[i], lons[i+1]) < minAngle {
			return false
		}
	}
	return true
}
