// Package assemble joins the outputs of the schema extractor, the code
// list resolver and the preview builder into one immutable document per
// dataset. This is the pipeline's only join point; nothing here touches
// the container.
package assemble

import (
	"fmt"
	"time"

	"github.com/beetlebugorg/gpkgprof/internal/codelist"
	"github.com/beetlebugorg/gpkgprof/internal/preview"
	"github.com/beetlebugorg/gpkgprof/internal/schema"
)

// MetaEntry is one descriptive key/value pair, order-preserving.
type MetaEntry struct {
	Key   string
	Value string
}

// Layer is a regular (non-code-table) layer with its optional preview.
type Layer struct {
	schema.Layer

	Preview *preview.Preview

	// Note is a human-readable remark about the preview, e.g. that the
	// feature count exceeded the cap.
	Note string
}

// Stats aggregates the recoverable conditions observed for one dataset.
type Stats struct {
	LayersSkipped     int
	AmbiguousBindings int
	InferredCodeLists int
	SimplifyFallbacks int
	DecodeErrors      int
}

// Document is the assembled, immutable profiling result for one dataset.
type Document struct {
	Name       string
	SourceFile string
	Generated  time.Time

	// Layers holds the regular layers in extraction order. Code tables
	// are excluded; they surface only through CodeLists.
	Layers    []Layer
	CodeLists []codelist.CodeList

	// Metadata is the externally supplied descriptive mapping. Empty,
	// never nil, when no entry matched the dataset.
	Metadata []MetaEntry

	Warnings []string
	Stats    Stats
}

// Build joins the pipeline outputs for one dataset.
//
// previews is keyed by layer name; metadata may be nil. Ordering in the
// result is deterministic: layers as extracted, fields in declaration
// order, code lists in resolver order.
func Build(cat *schema.Catalog, lists *codelist.Result, previews map[string]*preview.Preview, metadata []MetaEntry) *Document {
	doc := &Document{
		Name:       cat.Dataset,
		SourceFile: cat.Path,
		Generated:  time.Now(),
		CodeLists:  lists.CodeLists,
		Metadata:   make([]MetaEntry, 0, len(metadata)),
		Warnings:   cat.Warnings,
		Stats: Stats{
			LayersSkipped:     cat.LayersSkipped,
			AmbiguousBindings: lists.AmbiguousBindings,
			InferredCodeLists: lists.Inferred,
		},
	}
	doc.Metadata = append(doc.Metadata, metadata...)

	for _, l := range cat.Layers {
		if lists.CodeTables[l.Name] {
			continue
		}
		layer := Layer{Layer: l}
		if p, ok := previews[l.Name]; ok {
			layer.Preview = p
			doc.Stats.SimplifyFallbacks += p.SimplifyFallbacks
			doc.Stats.DecodeErrors += p.DecodeErrors
			if p.Capped {
				layer.Note = fmt.Sprintf("Preview shows %d of %d features.", p.Shown, p.Total)
			}
		}
		doc.Layers = append(doc.Layers, layer)
	}
	return doc
}
