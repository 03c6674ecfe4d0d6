// Package reproject converts geometries from a layer's native spatial
// reference system into WGS84 longitude/latitude (EPSG:4326), the single
// system all previews are normalized into.
//
// Supported source systems:
//
//   - EPSG:4326 - identity
//   - EPSG:3857 / 900913 - spherical Web Mercator, via orb/project
//   - EPSG:25828-25838 - ETRS89 / UTM zones 28N-38N (GRS80 ellipsoid)
//   - EPSG:32601-32660 - WGS84 / UTM northern zones
//   - EPSG:32701-32760 - WGS84 / UTM southern zones
//
// A layer with an unknown or unset srs_id is assumed to already be in
// lon/lat; callers log that fallback so it is visible, not silent.
package reproject

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// ellipsoid parameters for the UTM inverse.
type ellipsoid struct {
	a float64 // semi-major axis
	f float64 // flattening
}

var (
	wgs84 = ellipsoid{a: 6378137.0, f: 1 / 298.257223563}
	grs80 = ellipsoid{a: 6378137.0, f: 1 / 298.257222101}
)

// For returns the point transform for a source srs_id and whether the
// system is known. Unknown systems get the identity transform.
func For(srsID int) (orb.Projection, bool) {
	switch {
	case srsID == 4326:
		return identity, true
	case srsID == 3857 || srsID == 900913:
		return project.Mercator.ToWGS84, true
	case srsID >= 25828 && srsID <= 25838:
		return utmInverse(srsID-25800, true, grs80), true
	case srsID >= 32601 && srsID <= 32660:
		return utmInverse(srsID-32600, true, wgs84), true
	case srsID >= 32701 && srsID <= 32760:
		return utmInverse(srsID-32700, false, wgs84), true
	default:
		return identity, false
	}
}

// Geometry applies the transform to every coordinate of a geometry.
func Geometry(g orb.Geometry, proj orb.Projection) orb.Geometry {
	return project.Geometry(g, proj)
}

func identity(p orb.Point) orb.Point { return p }

// utmInverse builds the inverse transverse Mercator transform for a UTM
// zone: easting/northing to lon/lat in degrees.
//
// Series expansion per Snyder, "Map Projections - A Working Manual",
// eqs. 8-17..8-25 and 3-26. Accuracy is well under a millimeter inside a
// zone, far below preview tolerance.
func utmInverse(zone int, north bool, e ellipsoid) orb.Projection {
	const (
		k0           = 0.9996
		falseEasting = 500000.0
	)
	falseNorthing := 0.0
	if !north {
		falseNorthing = 10000000.0
	}
	lon0 := float64(zone)*6.0 - 183.0 // central meridian in degrees

	a := e.a
	e2 := e.f * (2 - e.f)
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	return func(p orb.Point) orb.Point {
		x := p[0] - falseEasting
		y := p[1] - falseNorthing

		// Footpoint latitude from the meridian arc.
		m := y / k0
		mu := m / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))
		phi1 := mu +
			(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
			(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
			(151*e1*e1*e1/96)*math.Sin(6*mu) +
			(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

		sinPhi1 := math.Sin(phi1)
		cosPhi1 := math.Cos(phi1)
		tanPhi1 := math.Tan(phi1)

		c1 := ep2 * cosPhi1 * cosPhi1
		t1 := tanPhi1 * tanPhi1
		n1 := a / math.Sqrt(1-e2*sinPhi1*sinPhi1)
		r1 := a * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
		d := x / (n1 * k0)

		phi := phi1 - (n1*tanPhi1/r1)*(d*d/2-
			(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
			(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)
		lon := (d -
			(1+2*t1+c1)*d*d*d/6 +
			(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120) / cosPhi1

		return orb.Point{
			lon0 + lon*180/math.Pi,
			phi * 180 / math.Pi,
		}
	}
}
