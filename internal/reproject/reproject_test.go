package reproject

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

// utmForward is the forward transverse Mercator (lon/lat to easting/
// northing), used to generate expected values for inverse tests.
// Snyder eqs. 8-9..8-15.
func utmForward(zone int, north bool, ell ellipsoid, lon, lat float64) orb.Point {
	const k0 = 0.9996
	lon0 := (float64(zone)*6.0 - 183.0) * math.Pi / 180
	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180

	a := ell.a
	e2 := ell.f * (2 - ell.f)
	ep2 := e2 / (1 - e2)

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := a / math.Sqrt(1-e2*sinPhi*sinPhi)
	tt := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	aa := cosPhi * (lam - lon0)

	m := a * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))

	x := 500000 + k0*n*(aa+(1-tt+c)*aa*aa*aa/6+
		(5-18*tt+tt*tt+72*c-58*ep2)*aa*aa*aa*aa*aa/120)
	y := k0 * (m + n*tanPhi*(aa*aa/2+(5-tt+9*c+4*c*c)*aa*aa*aa*aa/24+
		(61-58*tt+tt*tt+600*c-330*ep2)*aa*aa*aa*aa*aa*aa/720))
	if !north {
		y += 10000000
	}
	return orb.Point{x, y}
}

func TestForIdentity(t *testing.T) {
	proj, known := For(4326)
	if !known {
		t.Fatal("4326 should be known")
	}
	p := proj(orb.Point{10.75, 59.91})
	if p != (orb.Point{10.75, 59.91}) {
		t.Errorf("identity changed the point: %v", p)
	}
}

func TestForUnknownFallsBackToIdentity(t *testing.T) {
	proj, known := For(0)
	if known {
		t.Error("srs 0 should be unknown")
	}
	p := proj(orb.Point{1, 2})
	if p != (orb.Point{1, 2}) {
		t.Errorf("unknown srs transform changed the point: %v", p)
	}
}

func TestMercatorOrigin(t *testing.T) {
	proj, known := For(3857)
	if !known {
		t.Fatal("3857 should be known")
	}
	p := proj(orb.Point{0, 0})
	if math.Abs(p[0]) > 1e-9 || math.Abs(p[1]) > 1e-9 {
		t.Errorf("mercator origin = %v, want (0, 0)", p)
	}
}

func TestUTMCentralMeridianAnchor(t *testing.T) {
	// On the central meridian at the equator, easting is exactly the
	// false easting and northing is zero.
	proj, known := For(32633) // UTM 33N, central meridian 15
	if !known {
		t.Fatal("32633 should be known")
	}
	p := proj(orb.Point{500000, 0})
	if math.Abs(p[0]-15) > 1e-9 {
		t.Errorf("lon = %.12f, want 15", p[0])
	}
	if math.Abs(p[1]) > 1e-9 {
		t.Errorf("lat = %.12f, want 0", p[1])
	}
}

func TestUTMRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		srsID    int
		zone     int
		north    bool
		ell      ellipsoid
		lon, lat float64
	}{
		{"etrs89 utm33 oslo", 25833, 33, true, grs80, 10.75, 59.91},
		{"etrs89 utm32 bergen", 25832, 32, true, grs80, 5.32, 60.39},
		{"wgs84 utm33n", 32633, 33, true, wgs84, 14.2, 48.0},
		{"wgs84 utm60n edge", 32660, 60, true, wgs84, 176.9, -0.5},
		{"wgs84 utm33s southern", 32733, 33, false, wgs84, 16.5, -22.57},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proj, known := For(tc.srsID)
			if !known {
				t.Fatalf("srs %d should be known", tc.srsID)
			}
			en := utmForward(tc.zone, tc.north, tc.ell, tc.lon, tc.lat)
			got := proj(en)

			// 5e-7 degrees is a few centimeters on the ground.
			if math.Abs(got[0]-tc.lon) > 5e-7 {
				t.Errorf("lon = %.12f, want %.12f", got[0], tc.lon)
			}
			if math.Abs(got[1]-tc.lat) > 5e-7 {
				t.Errorf("lat = %.12f, want %.12f", got[1], tc.lat)
			}
		})
	}
}

func TestGeometryLiftsTransform(t *testing.T) {
	proj, _ := For(4326)
	ls := orb.LineString{{1, 2}, {3, 4}}
	g := Geometry(ls, proj)
	if _, ok := g.(orb.LineString); !ok {
		t.Fatalf("geometry type changed: %T", g)
	}
}
