// Package codelist resolves controlled vocabularies for a dataset.
//
// Detection is two-tier. Tier 1 trusts the naming convention: a layer whose
// name starts with the configured prefix (default "code_") is a code table
// whose rows are (code, label) pairs, bound by name to fields elsewhere in
// the dataset. Tier 2 is a statistical fallback for fields tier 1 left
// unbound: a short, low-cardinality text field is flagged as an inferred
// vocabulary with the distinct observed values as its codes.
//
// Explicit code tables are authoritative and always win; the fallback
// exists because many packaged datasets encode vocabularies as plain
// low-cardinality text without a companion lookup table.
package codelist

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/beetlebugorg/gpkgprof/internal/gpkg"
	"github.com/beetlebugorg/gpkgprof/internal/schema"
)

// Origin records how a code list was discovered.
type Origin int

const (
	// OriginCodeTable means the list comes from a prefix-named lookup table.
	OriginCodeTable Origin = iota
	// OriginInferred means the list was inferred from observed field values.
	OriginInferred
)

func (o Origin) String() string {
	if o == OriginInferred {
		return "inferred"
	}
	return "code-table"
}

// Target is one (layer, field) a code list is bound to.
type Target struct {
	Layer string
	Field string
}

// CodeList is one resolved vocabulary with its bindings.
type CodeList struct {
	Origin  Origin
	Table   string // source code table name; empty when inferred
	Pairs   []gpkg.CodePair
	Targets []Target
}

// Config holds the resolver thresholds. Zero values are not usable;
// callers normally start from the defaults in pkg/profile.
type Config struct {
	// Prefix marks code tables, e.g. "code_".
	Prefix string

	// MaxTextLength is the longest observed value length a field may have
	// and still qualify for the statistical tier.
	MaxTextLength int64
	// MaxCardinalityRatio is the highest distinct/non-null ratio allowed.
	MaxCardinalityRatio float64
	// MaxDistinctValues is the absolute cap on distinct values.
	MaxDistinctValues int64

	Logger *zap.SugaredLogger
}

// RowSource reads code table rows and distinct field values.
// *gpkg.Dataset satisfies it.
type RowSource interface {
	CodeRows(ctx context.Context, table string) ([]gpkg.CodePair, error)
	DistinctValues(ctx context.Context, table, column string, limit int) ([]string, error)
}

// Result is the resolver output for one dataset.
type Result struct {
	CodeLists []CodeList

	// CodeTables flags the layers that were consumed as code tables and
	// must not appear as regular layers in the document.
	CodeTables map[string]bool

	// AmbiguousBindings counts bindings resolved by the documented
	// tie-break rather than a unique match.
	AmbiguousBindings int
	// Inferred counts tier 2 code lists.
	Inferred int
}

// codeTable is one tier 1 candidate with its prefix-stripped name.
type codeTable struct {
	layer    string
	stripped string
}

// Resolve runs both detection tiers over an extracted catalog.
func Resolve(ctx context.Context, cat *schema.Catalog, src RowSource, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	res := &Result{CodeTables: make(map[string]bool)}

	var tables []codeTable
	for _, layer := range cat.Layers {
		if cfg.Prefix != "" && strings.HasPrefix(layer.Name, cfg.Prefix) {
			res.CodeTables[layer.Name] = true
			tables = append(tables, codeTable{
				layer:    layer.Name,
				stripped: strings.TrimPrefix(layer.Name, cfg.Prefix),
			})
		}
	}

	// Tier 1: one code list per code table, in catalog order. An empty
	// table still yields an (empty) list.
	listIndex := make(map[string]int, len(tables))
	for _, t := range tables {
		rows, err := src.CodeRows(ctx, t.layer)
		if err != nil {
			// An unreadable code table stays a code table (it never shows
			// up as a regular layer) but contributes an empty list.
			log.Warnw("code table unreadable", "dataset", cat.Dataset, "table", t.layer, "error", err)
			rows = nil
		}
		res.CodeLists = append(res.CodeLists, CodeList{
			Origin: OriginCodeTable,
			Table:  t.layer,
			Pairs:  dedupePairs(rows),
		})
		listIndex[t.layer] = len(res.CodeLists) - 1
	}

	// Bind fields of regular layers to code tables by name.
	bound := make(map[Target]bool)
	for _, layer := range cat.Layers {
		if res.CodeTables[layer.Name] {
			continue
		}
		for _, f := range layer.Fields {
			if f.Type == schema.TypeGeometry {
				continue
			}
			table, ambiguous := resolveBinding(f.Name, tables)
			if table == "" {
				continue
			}
			if ambiguous {
				res.AmbiguousBindings++
				log.Warnw("ambiguous code list binding",
					"dataset", cat.Dataset, "layer", layer.Name, "field", f.Name, "chosen", table)
			}
			tgt := Target{Layer: layer.Name, Field: f.Name}
			i := listIndex[table]
			res.CodeLists[i].Targets = append(res.CodeLists[i].Targets, tgt)
			bound[tgt] = true
		}
	}

	// Tier 2: statistical fallback for fields tier 1 left unbound.
	for _, layer := range cat.Layers {
		if res.CodeTables[layer.Name] {
			continue
		}
		for _, f := range layer.Fields {
			if bound[Target{Layer: layer.Name, Field: f.Name}] {
				continue
			}
			if !qualifiesInferred(f, cfg) {
				continue
			}
			values, err := src.DistinctValues(ctx, layer.Name, f.Name, int(cfg.MaxDistinctValues))
			if err != nil {
				log.Debugw("distinct values unavailable",
					"layer", layer.Name, "field", f.Name, "error", err)
				continue
			}
			sort.Strings(values)
			pairs := make([]gpkg.CodePair, len(values))
			for i, v := range values {
				pairs[i] = gpkg.CodePair{Code: v}
			}
			res.CodeLists = append(res.CodeLists, CodeList{
				Origin:  OriginInferred,
				Pairs:   pairs,
				Targets: []Target{{Layer: layer.Name, Field: f.Name}},
			})
			res.Inferred++
		}
	}

	return res, ctx.Err()
}

// qualifiesInferred applies the statistical thresholds to a field.
// A field with fewer than two distinct values is a constant, not a
// vocabulary, and is never flagged.
func qualifiesInferred(f schema.Field, cfg Config) bool {
	if f.Type != schema.TypeText || f.Stats == nil {
		return false
	}
	s := f.Stats
	if s.NonNull == 0 || s.Distinct < 2 {
		return false
	}
	if s.MaxLength > cfg.MaxTextLength {
		return false
	}
	if s.Distinct > cfg.MaxDistinctValues {
		return false
	}
	ratio := float64(s.Distinct) / float64(s.NonNull)
	return ratio <= cfg.MaxCardinalityRatio
}

// resolveBinding picks the code table a field binds to, if any.
//
// An exact match of the field name against a table's prefix-stripped name
// beats a trailing-s singular/plural variant. If more than one table
// matches at the winning precedence the tie is broken deterministically:
// shortest stripped name first, then lexicographically smallest table
// name. The tie-break is a documented policy, not an accident.
func resolveBinding(field string, tables []codeTable) (table string, ambiguous bool) {
	var exact, variant []codeTable
	for _, t := range tables {
		switch {
		case t.stripped == field:
			exact = append(exact, t)
		case t.stripped+"s" == field || t.stripped == field+"s":
			variant = append(variant, t)
		}
	}

	candidates := exact
	if len(candidates) == 0 {
		candidates = variant
	}
	if len(candidates) == 0 {
		return "", false
	}
	if len(candidates) == 1 {
		return candidates[0].layer, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].stripped) != len(candidates[j].stripped) {
			return len(candidates[i].stripped) < len(candidates[j].stripped)
		}
		return candidates[i].layer < candidates[j].layer
	})
	return candidates[0].layer, true
}

// dedupePairs keeps pairs in first-occurrence order, collapsing duplicate
// codes to the first label seen.
func dedupePairs(rows []gpkg.CodePair) []gpkg.CodePair {
	seen := make(map[string]bool, len(rows))
	out := make([]gpkg.CodePair, 0, len(rows))
	for _, p := range rows {
		if seen[p.Code] {
			continue
		}
		seen[p.Code] = true
		out = append(out, p)
	}
	return out
}
