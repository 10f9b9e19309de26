// Package extractor runs the extraction pipeline: discovery, per-file
// function extraction on a worker pool, and storage of the resulting records.
package extractor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/storage"
)

// RecordStore is the write side of the dataset store.
type RecordStore interface {
	WriteRecords(kind dataset.Kind, runID string, records []dataset.Record) error
	WriteRecordsIncremental(kind dataset.Kind, runID string, sources []string, records []dataset.Record) error
	DeleteSources(kind dataset.Kind, sources []string) error
}

// RunTracker records extraction runs.
type RunTracker interface {
	BeginRun(kind dataset.Kind) (string, error)
	FinishRun(id string, stats storage.RunStats) error
	FailRun(id string, stats storage.RunStats, cause error) error
}

// Extractor ties discovery, processing and storage together.
type Extractor struct {
	discovery *FileDiscovery
	processor *Processor
	store     RecordStore
	runs      RunTracker
	progress  ProgressReporter
}

// New creates an Extractor. runs may be nil.
func New(discovery *FileDiscovery, processor *Processor, store RecordStore, runs RunTracker, progress ProgressReporter) *Extractor {
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	return &Extractor{
		discovery: discovery,
		processor: processor,
		store:     store,
		runs:      runs,
		progress:  progress,
	}
}

// Run discovers every file, extracts records of kind and replaces the stored
// dataset of that kind. A run that fails after it was recorded is closed with
// its error.
func (e *Extractor) Run(ctx context.Context, kind dataset.Kind) (_ *Stats, _ []FileResult, err error) {
	start := time.Now()
	stats := &Stats{Kind: kind}

	e.progress.OnDiscoveryStart()
	phaseStart := time.Now()
	files, err := e.discovery.DiscoverFiles()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesDiscovered = len(files)
	e.progress.OnDiscoveryComplete(len(files))
	log.Printf("[TIMING] Discover files: %v (%d files)\n", time.Since(phaseStart), len(files))

	if e.runs != nil {
		if stats.RunID, err = e.runs.BeginRun(kind); err != nil {
			return nil, nil, err
		}
		defer func() {
			if err == nil {
				return
			}
			if ferr := e.runs.FailRun(stats.RunID, stats.runStats(), err); ferr != nil {
				log.Printf("Warning: failed to record run failure: %v", ferr)
			}
		}()
	}

	phaseStart = time.Now()
	results, err := e.processor.ProcessFiles(ctx, files, kind)
	if err != nil {
		return nil, nil, err
	}
	stats.tally(results)
	log.Printf("[TIMING] Extract functions: %v (%d files -> %d records, cache hit ratio %.2f)\n",
		time.Since(phaseStart), len(files), stats.Records, e.processor.cache.hitRatio())

	records := collectRecords(results)
	dataset.Sort(records)

	phaseStart = time.Now()
	e.progress.OnWritingRecords(len(records))
	if err := e.store.WriteRecords(kind, stats.RunID, records); err != nil {
		return nil, nil, fmt.Errorf("failed to write records: %w", err)
	}
	log.Printf("[TIMING] Write records: %v\n", time.Since(phaseStart))

	if e.runs != nil {
		if err := e.runs.FinishRun(stats.RunID, stats.runStats()); err != nil {
			return nil, nil, err
		}
	}

	stats.Duration = time.Since(start)
	e.progress.OnComplete(stats)
	return stats, results, nil
}

// Update re-extracts the given paths and replaces only their records.
// Paths that no longer exist are removed from the store.
func (e *Extractor) Update(ctx context.Context, kind dataset.Kind, paths []string) (*Stats, error) {
	start := time.Now()
	stats := &Stats{Kind: kind}

	var present, sources []string
	for _, path := range paths {
		if !e.discovery.Matches(path) {
			continue
		}
		sources = append(sources, e.processor.SourceID(path))
		if fileExists(path) {
			present = append(present, path)
		}
	}
	if len(sources) == 0 {
		return stats, nil
	}
	stats.FilesDiscovered = len(present)

	results, err := e.processor.ProcessFiles(ctx, present, kind)
	if err != nil {
		return nil, err
	}
	stats.tally(results)

	records := collectRecords(results)
	dataset.Sort(records)

	if err := e.store.WriteRecordsIncremental(kind, "", sources, records); err != nil {
		return nil, fmt.Errorf("failed to write records: %w", err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func collectRecords(results []FileResult) []dataset.Record {
	var records []dataset.Record
	for _, r := range results {
		if r.Status == StatusOK {
			records = append(records, r.Records...)
		}
	}
	return records
}

func (s *Stats) runStats() storage.RunStats {
	return storage.RunStats{
		FilesTotal:   s.FilesDiscovered,
		FilesSkipped: s.FilesSkipped,
		Records:      s.Records,
	}
}
