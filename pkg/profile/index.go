package profile

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// DocumentIndex provides fast spatial queries over profiled documents.
//
// The index stores each document under the union extent of its layer
// previews in an R-tree, so "which datasets cover this region" is
// O(log N) instead of a linear scan over every document's extent.
//
// Example:
//
//	idx := profile.NewDocumentIndex(docs...)
//	covering := idx.Query(profile.Extent{
//	    MinLon: 4.0, MaxLon: 31.5,
//	    MinLat: 57.5, MaxLat: 71.5,
//	})
type DocumentIndex struct {
	docs  []*Document
	rtree *rtreego.Rtree
}

// indexEntry adapts a document extent to the rtreego.Spatial interface.
type indexEntry struct {
	doc    *Document
	extent Extent
}

// Bounds method for the rtreego.Spatial interface.
func (e indexEntry) Bounds() rtreego.Rect {
	point := rtreego.Point{e.extent.MinLon, e.extent.MinLat}
	lengths := []float64{
		e.extent.MaxLon - e.extent.MinLon,
		e.extent.MaxLat - e.extent.MinLat,
	}
	// rtreego rejects zero-size rectangles; inflate degenerate extents
	// (a single point layer) to a hair above zero.
	for i, l := range lengths {
		if l <= 0 {
			lengths[i] = 1e-9
		}
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// NewDocumentIndex builds an index over the given documents. Documents
// without any spatial extent are kept in All but not indexed spatially.
func NewDocumentIndex(docs ...*Document) *DocumentIndex {
	idx := &DocumentIndex{
		rtree: rtreego.NewTree(2, 25, 50),
	}
	for _, doc := range docs {
		idx.Insert(doc)
	}
	return idx
}

// Insert adds one document to the index.
func (idx *DocumentIndex) Insert(doc *Document) {
	idx.docs = append(idx.docs, doc)
	if ext, ok := doc.Extent(); ok {
		idx.rtree.Insert(indexEntry{doc: doc, extent: ext})
	}
}

// Query returns the documents whose extent intersects the given extent,
// sorted by dataset name for deterministic output.
func (idx *DocumentIndex) Query(ext Extent) []*Document {
	rect := indexEntry{extent: ext}.Bounds()

	var out []*Document
	for _, hit := range idx.rtree.SearchIntersect(rect) {
		out = append(out, hit.(indexEntry).doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All returns every inserted document in insertion order.
func (idx *DocumentIndex) All() []*Document {
	return idx.docs
}

// Len returns the number of inserted documents.
func (idx *DocumentIndex) Len() int {
	return len(idx.docs)
}
