// Package preview derives simplified map previews from spatial layers.
//
// For each spatial layer the builder reads a capped, evenly-strided sample
// of features, reprojects them to WGS84, computes the extent over the
// original (pre-simplification) coordinates, and reduces vertex count with
// Douglas-Peucker at a tolerance derived from the extent diagonal. A
// feature whose simplified shape fails the validity check is emitted
// unsimplified instead of broken.
package preview

import (
	"context"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"go.uber.org/zap"

	"github.com/beetlebugorg/gpkgprof/internal/reproject"
	"github.com/beetlebugorg/gpkgprof/internal/schema"
)

// Source reads the geometries of a layer. *gpkg.Dataset satisfies it.
type Source interface {
	Geometries(ctx context.Context, table, column string, limit int) ([]orb.Geometry, int64, int, error)
}

// Config controls preview generation.
type Config struct {
	// ToleranceFraction sets the simplification tolerance as a fraction of
	// the layer extent's diagonal.
	ToleranceFraction float64
	// FeatureCap bounds the number of features in a preview; 0 disables
	// capping.
	FeatureCap int

	Logger *zap.SugaredLogger
}

// Preview is the derived map preview of one spatial layer, in WGS84.
type Preview struct {
	Layer      string
	Geometries orb.Collection

	// Extent is computed over the reprojected coordinates before
	// simplification, so aggressive simplification cannot shrink it.
	Extent orb.Bound

	// Total is the layer's true feature count; Shown is how many features
	// made it into the preview after capping.
	Total  int64
	Shown  int
	Capped bool

	// GeometryTypes are the distinct GeoJSON type names observed, sorted.
	GeometryTypes []string

	SimplifyFallbacks int
	DecodeErrors      int

	// CRSAssumed is set when the layer had no usable srs_id and its
	// coordinates were assumed to already be lon/lat.
	CRSAssumed bool
}

// Build produces the preview for one spatial layer.
func Build(ctx context.Context, src Source, layer schema.Layer, cfg Config) (*Preview, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	geoms, total, decodeErrs, err := src.Geometries(ctx, layer.Name, layer.GeometryColumn, cfg.FeatureCap)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Layer:        layer.Name,
		Total:        total,
		Shown:        len(geoms),
		Capped:       cfg.FeatureCap > 0 && total > int64(cfg.FeatureCap),
		DecodeErrors: decodeErrs,
	}

	proj, known := reproject.For(layer.SRSID)
	if !known {
		p.CRSAssumed = true
		if layer.SRSID > 0 {
			// A declared srs we cannot convert is a recoverable condition,
			// not the documented missing-metadata fallback.
			log.Warnw("srs unsupported, assuming lon/lat", "layer", layer.Name, "srs_id", layer.SRSID)
		} else {
			log.Debugw("srs missing, assuming lon/lat", "layer", layer.Name)
		}
	}

	types := make(map[string]bool)
	projected := make(orb.Collection, 0, len(geoms))
	for _, g := range geoms {
		pg := reproject.Geometry(g, proj)
		projected = append(projected, pg)
		types[pg.GeoJSONType()] = true
		p.Extent = extend(p.Extent, pg.Bound(), len(projected) == 1)
	}

	for t := range types {
		p.GeometryTypes = append(p.GeometryTypes, t)
	}
	sort.Strings(p.GeometryTypes)

	tolerance := cfg.ToleranceFraction * diagonal(p.Extent)
	p.Geometries = make(orb.Collection, 0, len(projected))
	for _, g := range projected {
		p.Geometries = append(p.Geometries, simplifyGeometry(g, tolerance, p))
	}

	return p, ctx.Err()
}

// simplifyGeometry simplifies one feature, falling back to the original
// when the result fails the validity check.
func simplifyGeometry(g orb.Geometry, tolerance float64, p *Preview) orb.Geometry {
	if tolerance <= 0 {
		return g
	}
	sg := simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(g))
	if sg == nil || !Valid(sg) {
		p.SimplifyFallbacks++
		return g
	}
	return sg
}

func extend(b, other orb.Bound, first bool) orb.Bound {
	if first {
		return other
	}
	return b.Union(other)
}

func diagonal(b orb.Bound) float64 {
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	return math.Sqrt(w*w + h*h)
}
