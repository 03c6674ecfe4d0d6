package profile_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb"

	"github.com/beetlebugorg/gpkgprof/internal/gpkg/gpkgtest"
	"github.com/beetlebugorg/gpkgprof/pkg/profile"
)

func pointFixture(t *testing.T, dir, name string, pt orb.Point) string {
	t.Helper()
	path := filepath.Join(dir, name+".gpkg")
	b := gpkgtest.New(t, path)
	defer b.Close()
	b.Exec(`CREATE TABLE "` + name + `" (fid INTEGER PRIMARY KEY, geom BLOB)`)
	b.RegisterFeatures(name, "geom", "POINT", 4326)
	b.InsertGeometries(name, 4326, pt)
	return path
}

func TestProfileDatasetsParallel(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		pointFixture(t, dir, "alpha", orb.Point{1, 1}),
		pointFixture(t, dir, "bravo", orb.Point{2, 2}),
		pointFixture(t, dir, "charlie", orb.Point{3, 3}),
	}

	var (
		mu       sync.Mutex
		progress []int
	)
	opts := profile.DefaultRunOptions()
	opts.Workers = 2
	opts.Progress = func(done, total int) {
		mu.Lock()
		progress = append(progress, done)
		mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d", total)
		}
	}

	docs, errs := profile.ProfileDatasetsParallel(context.Background(), paths, profile.NewProfiler(), opts)
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d documents", len(docs))
	}
	// Completion order is free; output order follows input order.
	for i, want := range []string{"alpha", "bravo", "charlie"} {
		if docs[i].Name != want {
			t.Errorf("docs[%d] = %q, want %q", i, docs[i].Name, want)
		}
	}
	if len(progress) != 3 || progress[len(progress)-1] != 3 {
		t.Errorf("progress calls = %v", progress)
	}
}

func TestProfileDatasetsParallelSkipErrors(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		pointFixture(t, dir, "good", orb.Point{1, 1}),
		filepath.Join(dir, "missing.gpkg"),
	}

	var errLog bytes.Buffer
	opts := profile.DefaultRunOptions()
	opts.ErrorLog = &errLog

	docs, errs := profile.ProfileDatasetsParallel(context.Background(), paths, profile.NewProfiler(), opts)
	if len(docs) != 1 || docs[0].Name != "good" {
		t.Fatalf("docs = %v", docs)
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "missing.gpkg") {
		t.Fatalf("errs = %v", errs)
	}
	if !strings.Contains(errLog.String(), "missing.gpkg") {
		t.Errorf("error log = %q", errLog.String())
	}
}

func TestProfileDatasetsParallelFailFast(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "missing.gpkg"),
		pointFixture(t, dir, "good", orb.Point{1, 1}),
	}

	opts := profile.DefaultRunOptions()
	opts.SkipErrors = false
	opts.Parallel = false

	docs, errs := profile.ProfileDatasetsParallel(context.Background(), paths, profile.NewProfiler(), opts)
	if docs != nil {
		t.Errorf("docs = %v", docs)
	}
	if len(errs) != 1 {
		t.Fatalf("errs = %v", errs)
	}
}

func TestProfileDatasetsParallelNoInput(t *testing.T) {
	docs, errs := profile.ProfileDatasetsParallel(context.Background(), nil, profile.NewProfiler(), profile.DefaultRunOptions())
	if docs != nil {
		t.Errorf("docs = %v", docs)
	}
	if len(errs) != 1 || !errors.Is(errs[0], profile.ErrNoDatasets) {
		t.Fatalf("errs = %v", errs)
	}
}

func TestProfileDatasetsSerial(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		pointFixture(t, dir, "one", orb.Point{1, 1}),
		pointFixture(t, dir, "two", orb.Point{2, 2}),
	}

	opts := profile.DefaultRunOptions()
	opts.Parallel = false

	docs, errs := profile.ProfileDatasetsParallel(context.Background(), paths, profile.NewProfiler(), opts)
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(docs) != 2 || docs[0].Name != "one" || docs[1].Name != "two" {
		t.Errorf("docs = %v", names(docs))
	}
}
