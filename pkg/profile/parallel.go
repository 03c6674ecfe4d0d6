package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
)

// ErrNoDatasets is returned when no dataset paths were supplied at all.
// This is the only condition fatal to a whole run; individual dataset
// failures are collected and skipped.
var ErrNoDatasets = errors.New("no datasets to profile")

// RunOptions controls parallel profiling behavior and error handling.
type RunOptions struct {
	// Parallel enables concurrent dataset profiling.
	Parallel bool

	// Workers specifies the number of worker goroutines.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// SkipErrors causes profiling to continue when individual datasets
	// fail. Failed datasets get no document and their errors are
	// collected. When false, the first error stops the run.
	SkipErrors bool

	// Profiling options applied to every dataset.
	Options Options

	// Progress is an optional callback invoked after each dataset
	// finishes (successfully or with error), with (done, total).
	Progress func(done, total int)

	// ErrorLog is an optional writer for per-dataset error details.
	ErrorLog io.Writer
}

// DefaultRunOptions returns run options with sensible defaults.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
		Options:    DefaultOptions(),
	}
}

// ProfileDatasetsParallel profiles multiple datasets using a worker pool.
//
// Datasets share no state and are processed independently; there is no
// completion-order guarantee, but the returned documents are in input
// order (failed datasets omitted), so output identity is deterministic.
//
// Returns ErrNoDatasets (as the sole collected error) when paths is empty.
func ProfileDatasetsParallel(ctx context.Context, paths []string, p Profiler, opts RunOptions) ([]*Document, []error) {
	if len(paths) == 0 {
		return nil, []error{ErrNoDatasets}
	}

	if !opts.Parallel {
		return profileSerial(ctx, paths, p, opts)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	type result struct {
		index int
		doc   *Document
		err   error
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(paths))
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				if runCtx.Err() != nil {
					results <- result{index: index, err: runCtx.Err()}
					continue
				}
				doc, err := p.ProfileWithOptions(runCtx, paths[index], opts.Options)
				results <- result{index: index, doc: doc, err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	byIndex := make(map[int]*Document)
	var errs []error
	done := 0

	for r := range results {
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(paths))
		}

		if r.err != nil {
			err := fmt.Errorf("%s: %w", paths[r.index], r.err)
			if opts.ErrorLog != nil {
				fmt.Fprintf(opts.ErrorLog, "error profiling dataset: %v\n", err)
			}
			errs = append(errs, err)
			if !opts.SkipErrors {
				// Stop handing out work; drain whatever is in flight.
				cancel()
			}
			continue
		}
		byIndex[r.index] = r.doc
	}

	if !opts.SkipErrors && len(errs) > 0 {
		return nil, errs[:1]
	}

	docs := make([]*Document, 0, len(byIndex))
	for i := range paths {
		if doc, ok := byIndex[i]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, errs
}

func profileSerial(ctx context.Context, paths []string, p Profiler, opts RunOptions) ([]*Document, []error) {
	var (
		docs []*Document
		errs []error
	)
	for i, path := range paths {
		doc, err := p.ProfileWithOptions(ctx, path, opts.Options)
		if opts.Progress != nil {
			opts.Progress(i+1, len(paths))
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", path, err)
			if opts.ErrorLog != nil {
				fmt.Fprintf(opts.ErrorLog, "error profiling dataset: %v\n", err)
			}
			if !opts.SkipErrors {
				return nil, []error{err}
			}
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}
