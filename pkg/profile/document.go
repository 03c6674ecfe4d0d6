package profile

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/beetlebugorg/gpkgprof/internal/assemble"
	"github.com/beetlebugorg/gpkgprof/internal/codelist"
	"github.com/beetlebugorg/gpkgprof/internal/schema"
)

// Document is the assembled profiling result for one dataset. It is the
// engine's output contract: the presentation layer depends structurally on
// its field order, code list bindings, preview coordinate system (always
// WGS84 lon/lat) and metadata mapping. Treat it as immutable.
type Document struct {
	// Name is the dataset name: source file base name without extension.
	Name string
	// SourceFile is the path the dataset was profiled from.
	SourceFile string
	// Generated records when the document was assembled.
	Generated time.Time

	// Layers holds the regular layers in catalog order. Code tables are
	// excluded; they surface only through CodeLists.
	Layers []Layer

	// CodeLists holds resolved vocabularies: code-table lists first in
	// catalog order, then inferred lists in layer/field order.
	CodeLists []CodeList

	// Metadata is the descriptive mapping supplied by the metadata
	// collaborator. Empty, never nil, when no entry matched.
	Metadata Metadata

	Warnings []string
	Stats    Stats
}

// Layer describes one regular layer of the dataset.
type Layer struct {
	Name string
	// Kind is "spatial" or "attribute-only".
	Kind string
	// SRSID is the layer's native spatial reference system id; previews
	// are always reprojected out of it into WGS84.
	SRSID int
	// FeatureCount is the true row count of spatial layers, recorded even
	// when the preview is capped.
	FeatureCount int64
	// GeometryTypes lists the distinct GeoJSON geometry type names
	// observed in the preview sample, sorted.
	GeometryTypes []string

	Fields []Field

	// Preview is nil for attribute-only layers and for spatial layers
	// whose preview could not be built.
	Preview *GeometryPreview

	// Note carries a preview remark, e.g. that capping applied.
	Note string
}

// Field describes one column with its inferred semantic type and samples.
type Field struct {
	Name string
	// Type is one of: integer, real, text, boolean, datetime, binary,
	// geometry.
	Type     string
	Nullable bool
	// Samples are the first values observed in storage order, rendered
	// with their value kind. Geometry fields carry no samples.
	Samples []SampleValue
}

// SampleValue is one sampled value with the kind it was ingested as.
type SampleValue struct {
	Kind  string
	Value string
}

// CodeList is a resolved controlled vocabulary bound to one or more fields.
type CodeList struct {
	// Source is "code-table" or "inferred".
	Source string
	// Table is the source code table name; empty for inferred lists.
	Table string
	// Pairs holds (code, label) in first-occurrence order; labels are
	// empty for inferred lists.
	Pairs []CodePair
	// Targets are the bound fields, in layer/field order.
	Targets []FieldRef
}

// CodePair is one (code, label) entry.
type CodePair struct {
	Code  string
	Label string
}

// FieldRef names a field within a layer of the same dataset.
type FieldRef struct {
	Layer string
	Field string
}

// GeometryPreview is the simplified map preview of one spatial layer.
type GeometryPreview struct {
	// Geometries is the simplified feature sample in WGS84 lon/lat.
	Geometries orb.Collection
	// Extent is the bounding box over the pre-simplification coordinates.
	Extent Extent
	// Shown is the number of features in the preview; Capped reports
	// whether the feature cap truncated the layer.
	Shown  int
	Capped bool
}

// Extent is a geographic bounding box in WGS84.
type Extent struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Union returns the smallest extent covering both.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		MinLon: min(e.MinLon, o.MinLon),
		MinLat: min(e.MinLat, o.MinLat),
		MaxLon: max(e.MaxLon, o.MaxLon),
		MaxLat: max(e.MaxLat, o.MaxLat),
	}
}

// Stats counts the recoverable conditions observed while profiling, so
// detection quality can be audited without failing the run.
type Stats struct {
	LayersSkipped     int
	AmbiguousBindings int
	InferredCodeLists int
	SimplifyFallbacks int
	DecodeErrors      int
}

// Extent returns the union of the document's layer preview extents, and
// whether the document has any spatial extent at all.
func (d *Document) Extent() (Extent, bool) {
	var ext Extent
	found := false
	for _, l := range d.Layers {
		if l.Preview == nil || l.Preview.Shown == 0 {
			continue
		}
		if !found {
			ext = l.Preview.Extent
			found = true
			continue
		}
		ext = ext.Union(l.Preview.Extent)
	}
	return ext, found
}

// convertDocument converts the internal document model into the public
// contract. Conversion happens once, at the API boundary.
func convertDocument(doc *assemble.Document) *Document {
	meta := make(Metadata, 0, len(doc.Metadata))
	for _, e := range doc.Metadata {
		meta = append(meta, MetaEntry{Key: e.Key, Value: e.Value})
	}

	out := &Document{
		Name:       doc.Name,
		SourceFile: doc.SourceFile,
		Generated:  doc.Generated,
		Layers:     make([]Layer, 0, len(doc.Layers)),
		CodeLists:  make([]CodeList, 0, len(doc.CodeLists)),
		Metadata:   meta,
		Warnings:   doc.Warnings,
		Stats: Stats{
			LayersSkipped:     doc.Stats.LayersSkipped,
			AmbiguousBindings: doc.Stats.AmbiguousBindings,
			InferredCodeLists: doc.Stats.InferredCodeLists,
			SimplifyFallbacks: doc.Stats.SimplifyFallbacks,
			DecodeErrors:      doc.Stats.DecodeErrors,
		},
	}

	for _, l := range doc.Layers {
		out.Layers = append(out.Layers, convertLayer(l))
	}
	for _, cl := range doc.CodeLists {
		out.CodeLists = append(out.CodeLists, convertCodeList(cl))
	}
	return out
}

func convertLayer(l assemble.Layer) Layer {
	layer := Layer{
		Name:         l.Name,
		Kind:         l.Kind.String(),
		SRSID:        l.SRSID,
		FeatureCount: l.RowCount,
		Fields:       make([]Field, 0, len(l.Fields)),
		Note:         l.Note,
	}
	for _, f := range l.Fields {
		layer.Fields = append(layer.Fields, convertField(f))
	}
	if l.Preview != nil {
		layer.GeometryTypes = l.Preview.GeometryTypes
		layer.Preview = &GeometryPreview{
			Geometries: l.Preview.Geometries,
			Extent: Extent{
				MinLon: l.Preview.Extent.Min[0],
				MinLat: l.Preview.Extent.Min[1],
				MaxLon: l.Preview.Extent.Max[0],
				MaxLat: l.Preview.Extent.Max[1],
			},
			Shown:  l.Preview.Shown,
			Capped: l.Preview.Capped,
		}
	}
	return layer
}

func convertField(f schema.Field) Field {
	out := Field{
		Name:     f.Name,
		Type:     f.Type.String(),
		Nullable: f.Nullable,
	}
	for _, v := range f.Samples {
		out.Samples = append(out.Samples, SampleValue{
			Kind:  v.Kind.String(),
			Value: v.Display(),
		})
	}
	return out
}

func convertCodeList(cl codelist.CodeList) CodeList {
	out := CodeList{
		Source: cl.Origin.String(),
		Table:  cl.Table,
		Pairs:  make([]CodePair, 0, len(cl.Pairs)),
	}
	for _, p := range cl.Pairs {
		out.Pairs = append(out.Pairs, CodePair{Code: p.Code, Label: p.Label})
	}
	for _, t := range cl.Targets {
		out.Targets = append(out.Targets, FieldRef{Layer: t.Layer, Field: t.Field})
	}
	return out
}
