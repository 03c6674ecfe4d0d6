// Package profile provides the public API for profiling GeoPackage
// datasets.
//
// A Profiler opens a dataset, extracts its layer and field catalog,
// resolves controlled vocabularies, builds simplified WGS84 map previews,
// and assembles everything into one immutable Document per dataset.
//
// Example:
//
//	profiler := profile.NewProfiler()
//	doc, err := profiler.Profile(ctx, "roads.gpkg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, layer := range doc.Layers {
//	    fmt.Printf("%s: %d fields\n", layer.Name, len(layer.Fields))
//	}
package profile

import (
	"context"
	"strings"
	"sync"

	"github.com/beetlebugorg/gpkgprof/internal/assemble"
	"github.com/beetlebugorg/gpkgprof/internal/codelist"
	"github.com/beetlebugorg/gpkgprof/internal/gpkg"
	"github.com/beetlebugorg/gpkgprof/internal/preview"
	"github.com/beetlebugorg/gpkgprof/internal/schema"
)

// Profiler profiles GeoPackage datasets into Documents.
//
// Create one with NewProfiler. A Profiler is stateless and safe for
// concurrent use.
type Profiler interface {
	// Profile profiles one dataset with DefaultOptions.
	Profile(ctx context.Context, path string) (*Document, error)

	// ProfileWithOptions profiles one dataset with custom options.
	ProfileWithOptions(ctx context.Context, path string, opts Options) (*Document, error)
}

// NewProfiler creates a profiler with default settings.
func NewProfiler() Profiler {
	return &profiler{}
}

type profiler struct{}

func (p *profiler) Profile(ctx context.Context, path string) (*Document, error) {
	return p.ProfileWithOptions(ctx, path, DefaultOptions())
}

func (p *profiler) ProfileWithOptions(ctx context.Context, path string, opts Options) (*Document, error) {
	log := opts.logger()

	ds, err := gpkg.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	cat, err := schema.Extract(ctx, ds, schema.Config{
		SampleCount: opts.SampleCount,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	// The code list resolver and the preview builders are independent of
	// each other; they run concurrently and join at the assembler. The
	// shared *sql.DB handle is pooled and safe for concurrent readers.
	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		lists           *codelist.Result
		listsErr        error
		previews        = make(map[string]*preview.Preview)
		previewWarnings []string
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		lists, listsErr = codelist.Resolve(ctx, cat, ds, codelist.Config{
			Prefix:              opts.CodeTablePrefix,
			MaxTextLength:       int64(opts.MaxTextLength),
			MaxCardinalityRatio: opts.MaxCardinalityRatio,
			MaxDistinctValues:   int64(opts.MaxDistinctValues),
			Logger:              log,
		})
	}()

	for _, layer := range cat.Layers {
		if layer.Kind != schema.KindSpatial {
			continue
		}
		if opts.CodeTablePrefix != "" && strings.HasPrefix(layer.Name, opts.CodeTablePrefix) {
			continue
		}
		wg.Add(1)
		go func(layer schema.Layer) {
			defer wg.Done()
			pv, err := preview.Build(ctx, ds, layer, preview.Config{
				ToleranceFraction: opts.SimplifyToleranceFraction,
				FeatureCap:        opts.FeatureCap,
				Logger:            log,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				previewWarnings = append(previewWarnings,
					"preview unavailable for layer "+layer.Name+": "+err.Error())
				log.Warnw("preview unavailable", "dataset", ds.Name(), "layer", layer.Name, "error", err)
				return
			}
			previews[layer.Name] = pv
		}(layer)
	}

	wg.Wait()
	if listsErr != nil {
		return nil, listsErr
	}
	cat.Warnings = append(cat.Warnings, previewWarnings...)

	var meta []assemble.MetaEntry
	if opts.Metadata != nil {
		for _, e := range opts.Metadata.Lookup(ds.Name()) {
			meta = append(meta, assemble.MetaEntry{Key: e.Key, Value: e.Value})
		}
	}

	return convertDocument(assemble.Build(cat, lists, previews, meta)), nil
}
