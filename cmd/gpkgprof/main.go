// Command gpkgprof generates a JSON product sheet for each GeoPackage
// dataset it is given.
//
// The command is a thin shell around the profile package: it discovers
// datasets, loads descriptive metadata, runs the profiling pipeline in
// parallel, and writes one JSON document per dataset with map previews
// serialized as GeoJSON. All schema inference, code list detection and
// geometry simplification happens in the library.
//
// Usage:
//
//	gpkgprof [flags] [dataset.gpkg ...]
//
// With no arguments, all *.gpkg files in the current directory are
// profiled.
//
// Descriptive metadata comes from a CSV file (-meta): the first column
// must be named "dataset" and holds the dataset name (file name without
// extension); the remaining columns become ordered key/value pairs on the
// matching document. Datasets without a metadata row are still profiled,
// with an empty descriptive mapping.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/beetlebugorg/gpkgprof/pkg/profile"
)

func main() {
	var (
		flagMeta    = flag.String("meta", "", "CSV file with descriptive metadata (first column: dataset)")
		flagOut     = flag.String("out", ".", "output directory for JSON product sheets")
		flagWorkers = flag.Int("workers", 0, "number of parallel workers (0 = number of CPUs)")
		flagSerial  = flag.Bool("serial", false, "profile datasets one at a time")
		flagVerbose = flag.Bool("v", false, "verbose (development) logging")
	)
	flag.Parse()

	logger, err := buildLogger(*flagVerbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	paths := flag.Args()
	if len(paths) == 0 {
		paths, err = filepath.Glob("*.gpkg")
		if err != nil {
			log.Fatalw("glob failed", "error", err)
		}
	}

	opts := profile.DefaultOptions()
	opts.Logger = log
	if *flagMeta != "" {
		f, err := os.Open(*flagMeta)
		if err != nil {
			log.Fatalw("open metadata", "path", *flagMeta, "error", err)
		}
		meta, err := loadMetadataCSV(f)
		f.Close()
		if err != nil {
			log.Fatalw("read metadata", "path", *flagMeta, "error", err)
		}
		opts.Metadata = meta
	}

	run := profile.DefaultRunOptions()
	run.Options = opts
	run.Workers = *flagWorkers
	run.Parallel = !*flagSerial
	run.ErrorLog = os.Stderr
	run.Progress = func(done, total int) {
		log.Infow("dataset finished", "done", done, "total", total)
	}

	docs, errs := profile.ProfileDatasetsParallel(context.Background(), paths, profile.NewProfiler(), run)
	for _, err := range errs {
		log.Warnw("dataset failed", "error", err)
	}
	if len(docs) == 0 {
		log.Fatalw("no datasets profiled", "paths", len(paths), "errors", len(errs))
	}

	for _, doc := range docs {
		out := filepath.Join(*flagOut, safeFilename(outputTitle(doc))+".json")
		if err := writeDocument(doc, out); err != nil {
			log.Errorw("write product sheet", "dataset", doc.Name, "path", out, "error", err)
			continue
		}
		log.Infow("product sheet written", "dataset", doc.Name, "path", out)
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// outputTitle prefers the metadata title over the raw dataset name.
func outputTitle(doc *profile.Document) string {
	if title, ok := doc.Metadata.Get("title"); ok && title != "" {
		return title
	}
	return doc.Name
}

// safeFilename keeps letters, digits, spaces and "-_()"; everything else
// becomes an underscore.
func safeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '(' || r == ')':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimSpace(b.String())
}

// loadMetadataCSV parses the metadata table. The header's first column is
// the dataset key; remaining columns become ordered key/value pairs.
// Empty cells are omitted from a dataset's mapping.
func loadMetadataCSV(r io.Reader) (profile.StaticMetadata, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 1 || header[0] != "dataset" {
		return nil, fmt.Errorf("first metadata column must be %q, got %q", "dataset", header)
	}

	meta := make(profile.StaticMetadata)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		var m profile.Metadata
		for i := 1; i < len(row) && i < len(header); i++ {
			if row[i] == "" {
				continue
			}
			m = append(m, profile.MetaEntry{Key: header[i], Value: row[i]})
		}
		meta[row[0]] = m
	}
	return meta, nil
}

// Output document shape. Previews are serialized as GeoJSON feature
// collections so any map client can render them directly.

type documentOut struct {
	Name       string             `json:"name"`
	SourceFile string             `json:"source_file"`
	Generated  time.Time          `json:"generated"`
	Metadata   []metaOut          `json:"metadata"`
	Layers     []layerOut         `json:"layers"`
	CodeLists  []profile.CodeList `json:"code_lists"`
	Warnings   []string           `json:"warnings,omitempty"`
	Stats      profile.Stats      `json:"stats"`
}

type metaOut struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type layerOut struct {
	Name          string          `json:"name"`
	Kind          string          `json:"kind"`
	SRSID         int             `json:"srs_id,omitempty"`
	FeatureCount  int64           `json:"feature_count,omitempty"`
	GeometryTypes []string        `json:"geometry_types,omitempty"`
	Fields        []profile.Field `json:"fields"`
	Note          string          `json:"note,omitempty"`
	Preview       *previewOut     `json:"preview,omitempty"`
}

type previewOut struct {
	Extent   profile.Extent             `json:"extent"`
	Shown    int                        `json:"shown"`
	Capped   bool                       `json:"capped"`
	Features *geojson.FeatureCollection `json:"features"`
}

func writeDocument(doc *profile.Document, path string) error {
	out := documentOut{
		Name:       doc.Name,
		SourceFile: doc.SourceFile,
		Generated:  doc.Generated,
		Metadata:   make([]metaOut, 0, len(doc.Metadata)),
		Layers:     make([]layerOut, 0, len(doc.Layers)),
		CodeLists:  doc.CodeLists,
		Warnings:   doc.Warnings,
		Stats:      doc.Stats,
	}
	for _, e := range doc.Metadata {
		out.Metadata = append(out.Metadata, metaOut{Key: e.Key, Value: e.Value})
	}
	for _, l := range doc.Layers {
		lo := layerOut{
			Name:          l.Name,
			Kind:          l.Kind,
			SRSID:         l.SRSID,
			FeatureCount:  l.FeatureCount,
			GeometryTypes: l.GeometryTypes,
			Fields:        l.Fields,
			Note:          l.Note,
		}
		if l.Preview != nil {
			fc := geojson.NewFeatureCollection()
			for _, g := range l.Preview.Geometries {
				fc.Append(geojson.NewFeature(g))
			}
			lo.Preview = &previewOut{
				Extent:   l.Preview.Extent,
				Shown:    l.Preview.Shown,
				Capped:   l.Preview.Capped,
				Features: fc,
			}
		}
		out.Layers = append(out.Layers, lo)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
