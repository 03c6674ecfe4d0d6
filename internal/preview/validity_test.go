package preview

import (
	"testing"

	"github.com/paulmach/orb"
)

func square() orb.Ring {
	return orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
}

func bowtie() orb.Ring {
	return orb.Ring{{0, 0}, {4, 4}, {4, 0}, {0, 4}, {0, 0}}
}

func TestRingValidity(t *testing.T) {
	if !Valid(square()) {
		t.Error("square ring should be valid")
	}
	if Valid(bowtie()) {
		t.Error("self-intersecting ring should be invalid")
	}
	if Valid(orb.Ring{{0, 0}, {1, 1}, {0, 0}}) {
		t.Error("degenerate ring should be invalid")
	}
	if Valid(orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}) {
		t.Error("unclosed ring should be invalid")
	}
}

func TestPolygonValidity(t *testing.T) {
	hole := orb.Ring{{1, 1}, {2, 1}, {2, 2}, {1, 2}, {1, 1}}
	if !Valid(orb.Polygon{square(), hole}) {
		t.Error("polygon with hole should be valid")
	}
	if Valid(orb.Polygon{square(), bowtie()}) {
		t.Error("polygon with self-intersecting hole should be invalid")
	}
	if !Valid(orb.MultiPolygon{{square()}, {hole}}) {
		t.Error("multipolygon of valid parts should be valid")
	}
}

func TestLineAndPointValidity(t *testing.T) {
	if !Valid(orb.Point{1, 2}) {
		t.Error("point should be valid")
	}
	if !Valid(orb.LineString{{0, 0}, {1, 1}}) {
		t.Error("two point line should be valid")
	}
	if Valid(orb.LineString{{0, 0}}) {
		t.Error("one point line should be invalid")
	}
	// A line may self-cross; only rings are checked for intersection.
	if !Valid(orb.LineString{{0, 0}, {4, 4}, {4, 0}, {0, 4}}) {
		t.Error("self-crossing line is acceptable for previews")
	}
	if Valid(nil) {
		t.Error("nil geometry should be invalid")
	}
}
