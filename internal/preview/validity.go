package preview

import (
	"github.com/paulmach/orb"
)

// Valid reports whether a geometry is acceptable for preview output.
//
// The check is intentionally cheap: rings must be closed with at least
// four points and must not self-intersect, lines must have at least two
// points. It exists to catch shapes broken by simplification, not to be a
// full OGC validity predicate.
func Valid(g orb.Geometry) bool {
	switch v := g.(type) {
	case nil:
		return false
	case orb.Point, orb.MultiPoint:
		return true
	case orb.LineString:
		return len(v) >= 2
	case orb.MultiLineString:
		for _, ls := range v {
			if len(ls) < 2 {
				return false
			}
		}
		return true
	case orb.Ring:
		return ringValid(v)
	case orb.Polygon:
		for _, r := range v {
			if !ringValid(r) {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, p := range v {
			if !Valid(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, sub := range v {
			if !Valid(sub) {
				return false
			}
		}
		return true
	case orb.Bound:
		return true
	default:
		return false
	}
}

// ringValid checks closure, minimum size and self-intersection.
func ringValid(r orb.Ring) bool {
	if len(r) < 4 {
		return false
	}
	if r[0] != r[len(r)-1] {
		return false
	}

	// Compare every pair of non-adjacent segments. The ring has n-1
	// segments; segment i runs r[i]..r[i+1]. The first and last segments
	// are adjacent through the closing point.
	n := len(r) - 1
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return false
			}
		}
	}
	return true
}

// segmentsIntersect reports whether segments pq and rs intersect,
// including touches and collinear overlap.
func segmentsIntersect(p, q, r, s orb.Point) bool {
	d1 := cross(r, s, p)
	d2 := cross(r, s, q)
	d3 := cross(p, q, r)
	d4 := cross(p, q, s)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(r, s, p):
		return true
	case d2 == 0 && onSegment(r, s, q):
		return true
	case d3 == 0 && onSegment(p, q, r):
		return true
	case d4 == 0 && onSegment(p, q, s):
		return true
	}
	return false
}

// cross returns the cross product of (b-a) x (c-a).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether point c, known collinear with ab, lies on ab.
func onSegment(a, b, c orb.Point) bool {
	return min(a[0], b[0]) <= c[0] && c[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= c[1] && c[1] <= max(a[1], b[1])
}
