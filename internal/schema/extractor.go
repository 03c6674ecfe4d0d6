// Package schema extracts the layer and field catalog of a GeoPackage.
//
// Extraction is best-effort in the same sense as the rest of the pipeline:
// a layer that cannot be read is skipped with a warning, a field that
// cannot be read keeps a text type and an empty sample set, and no
// condition here fails the dataset as a whole.
package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/beetlebugorg/gpkgprof/internal/gpkg"
)

// Source is the read surface the extractor needs from an open dataset.
// *gpkg.Dataset satisfies it.
type Source interface {
	Name() string
	Path() string
	Layers() []gpkg.LayerInfo
	Columns(ctx context.Context, table string) ([]gpkg.ColumnInfo, error)
	RowCount(ctx context.Context, table string) (int64, error)
	SampleValues(ctx context.Context, table, column string, k int) ([]any, error)
	ColumnStats(ctx context.Context, table, column string) (gpkg.ColumnStats, error)
}

// Config controls extraction.
type Config struct {
	// SampleCount is the number of non-null values retained per field.
	SampleCount int

	Logger *zap.SugaredLogger
}

// Extract builds the catalog for one open dataset.
func Extract(ctx context.Context, src Source, cfg Config) (*Catalog, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cat := &Catalog{
		Dataset: src.Name(),
		Path:    src.Path(),
	}

	for _, info := range src.Layers() {
		layer, err := extractLayer(ctx, src, info, cfg, log)
		if err != nil {
			cat.LayersSkipped++
			cat.Warnings = append(cat.Warnings,
				fmt.Sprintf("layer %s skipped: %v", info.Name, err))
			log.Warnw("layer skipped", "dataset", src.Name(), "layer", info.Name, "error", err)
			continue
		}
		cat.Layers = append(cat.Layers, layer)
	}
	return cat, ctx.Err()
}

func extractLayer(ctx context.Context, src Source, info gpkg.LayerInfo, cfg Config, log *zap.SugaredLogger) (Layer, error) {
	cols, err := src.Columns(ctx, info.Name)
	if err != nil {
		return Layer{}, err
	}
	if len(cols) == 0 {
		return Layer{}, &gpkg.ErrLayerUnreadable{Layer: info.Name, Err: fmt.Errorf("no columns")}
	}

	layer := Layer{
		Name:           info.Name,
		Kind:           KindAttribute,
		SRSID:          info.SRSID,
		GeometryColumn: info.GeometryColumn,
		GeometryType:   info.GeometryType,
	}
	if info.Spatial() {
		layer.Kind = KindSpatial
		n, err := src.RowCount(ctx, info.Name)
		if err != nil {
			return Layer{}, err
		}
		layer.RowCount = n
	}

	for _, col := range cols {
		layer.Fields = append(layer.Fields, extractField(ctx, src, info, col, cfg, log))
	}
	return layer, nil
}

func extractField(ctx context.Context, src Source, info gpkg.LayerInfo, col gpkg.ColumnInfo, cfg Config, log *zap.SugaredLogger) Field {
	f := Field{
		Name:     col.Name,
		Type:     InferFieldType(col.DeclaredType),
		Nullable: !col.NotNull && !col.PrimaryKey,
	}
	if col.Name == info.GeometryColumn {
		f.Type = TypeGeometry
	}

	// Geometry fields are handled by the preview builder, not sampled here.
	if f.Type == TypeGeometry {
		return f
	}

	raw, err := src.SampleValues(ctx, info.Name, col.Name, cfg.SampleCount)
	if err != nil {
		// Unreadable field: keep it visible with a text type and no samples.
		log.Warnw("field unreadable", "layer", info.Name, "field", col.Name, "error", err)
		f.Type = TypeText
		f.Samples = nil
		return f
	}
	for _, v := range raw {
		f.Samples = append(f.Samples, ConvertValue(v, f.Type))
	}

	if f.Type == TypeText {
		stats, err := src.ColumnStats(ctx, info.Name, col.Name)
		if err != nil {
			log.Debugw("column stats unavailable", "layer", info.Name, "field", col.Name, "error", err)
		} else {
			f.Stats = &stats
		}
	}
	return f
}
