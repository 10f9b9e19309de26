package extractor

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/openvulns/internal/annotation"
	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/features"
	"github.com/mvp-joe/openvulns/internal/rules"
	"github.com/mvp-joe/openvulns/internal/scanner"
)

// DefaultWorkers is the pool size when Options.Workers is unset.
const DefaultWorkers = 4

// Options configures a Processor.
type Options struct {
	RepoDir     string
	RepoURL     string
	Rules       *rules.Rules
	MaxBackward int
	Workers     int
	CacheSize   int
	Progress    ProgressReporter
}

// Processor turns source files into dataset records. It is safe for
// concurrent use.
type Processor struct {
	repoDir     string
	repoURL     string
	workers     int
	scanner     *scanner.Scanner
	annotations *annotation.Scanner
	features    *features.Extractor
	cache       *resultCache
	progress    ProgressReporter
}

// NewProcessor creates a Processor.
func NewProcessor(opts Options) (*Processor, error) {
	r := opts.Rules
	if r == nil {
		r = rules.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	progress := opts.Progress
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	cache, err := newResultCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Processor{
		repoDir:     opts.RepoDir,
		repoURL:     opts.RepoURL,
		workers:     workers,
		scanner:     scanner.New(scanner.Options{Rules: r, MaxBackward: opts.MaxBackward}),
		annotations: annotation.New(r),
		features:    features.New(r),
		cache:       cache,
		progress:    progress,
	}, nil
}

// Close releases the result cache.
func (p *Processor) Close() {
	p.cache.close()
}

// Scanner returns the boundary scanner used by the processor.
func (p *Processor) Scanner() *scanner.Scanner {
	return p.scanner
}

// Features computes the feature vector of a file's text.
func (p *Processor) Features(text string) features.Vector {
	return p.features.Extract(text)
}

// SourceID maps a path to its dataset identifier.
func (p *Processor) SourceID(path string) string {
	return SourceID(path, p.repoDir, p.repoURL)
}

// ProcessFiles processes files on a bounded worker pool. A failing file
// becomes a skipped result and never aborts the batch; only context
// cancellation returns an error. Results are sorted by path.
func (p *Processor) ProcessFiles(ctx context.Context, files []string, kind dataset.Kind) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	p.progress.OnFileProcessingStart(len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.ProcessFile(path, kind)
			p.progress.OnFileProcessed(results[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

// ProcessFile reads and extracts one file. Read errors, malformed
// annotations and panics are reported as a skipped result.
func (p *Processor) ProcessFile(path string, kind dataset.Kind) (res FileResult) {
	res = FileResult{Path: path, SourceID: p.SourceID(path)}

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			log.Printf("Warning: panic while extracting %s: %v\n%s", path, r, buf)
			res = FileResult{
				Path:     path,
				SourceID: res.SourceID,
				Status:   StatusSkipped,
				Reason:   fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	src, err := ReadSource(path, p.repoDir, p.repoURL)
	if err != nil {
		res.Status = StatusSkipped
		res.Reason = err.Error()
		return res
	}
	return p.ProcessSource(src, kind)
}

// ProcessSource extracts records from an already-read file.
func (p *Processor) ProcessSource(src *SourceFile, kind dataset.Kind) FileResult {
	key := cacheKey(kind, src.Text)
	if hit, ok := p.cache.get(key, src); ok {
		return hit
	}

	var res FileResult
	switch kind {
	case dataset.KindLabeled:
		res = p.extractLabeled(src)
	case dataset.KindAll:
		res = p.extractAll(src)
	default:
		res = FileResult{Status: StatusSkipped, Reason: fmt.Sprintf("unknown dataset kind %q", kind)}
	}
	res.Path = src.Path
	res.SourceID = src.ID

	p.cache.set(key, res)
	return res
}

func (p *Processor) extractLabeled(src *SourceFile) FileResult {
	ann, err := p.annotations.Scan(src.Lines)
	if err != nil {
		return FileResult{Status: StatusSkipped, Reason: err.Error()}
	}
	if !ann.Found() {
		return FileResult{Status: StatusSkipped, Reason: ReasonNoAnnotation}
	}

	fv := p.features.Extract(src.Text)
	var records []dataset.Record

	for _, target := range p.annotations.Targets(src.Lines, ann) {
		m, err := p.scanner.ExtractAnchored(src.Lines, target.Anchor)
		if err != nil {
			log.Printf("Warning: %s: %v", src.Path, err)
			continue
		}
		switch m.Kind {
		case scanner.MatchNone:
			log.Printf("Warning: %s: no enclosing function for line %d", src.Path, target.Anchor)
			continue
		case scanner.MatchTruncated:
			log.Printf("Warning: %s: function at line %d never closes", src.Path, m.Block.StartLine)
		}
		records = append(records, dataset.Assemble(m.Block.WithSource(src.ID), fv, target.Label, target.Anchor))
	}

	return FileResult{Status: StatusOK, Records: records}
}

func (p *Processor) extractAll(src *SourceFile) FileResult {
	blocks := p.scanner.ExtractAll(src.Lines)
	if len(blocks) == 0 {
		return FileResult{Status: StatusSkipped, Reason: ReasonNoFunctions}
	}

	fv := p.features.Extract(src.Text)
	records := make([]dataset.Record, 0, len(blocks))
	for _, b := range blocks {
		records = append(records, dataset.Assemble(b.WithSource(src.ID), fv, nil, 0))
	}
	return FileResult{Status: StatusOK, Records: records}
}
