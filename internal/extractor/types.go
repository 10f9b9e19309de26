package extractor

import (
	"errors"
	"time"

	"github.com/mvp-joe/openvulns/internal/dataset"
)

// ErrInvalidEncoding is returned for source files that are not valid UTF-8.
var ErrInvalidEncoding = errors.New("source is not valid UTF-8")

// SourceFile is one file read for extraction. Lines keep their terminators.
type SourceFile struct {
	ID    string
	Path  string
	Lines []string
	Text  string
}

// FileStatus is the outcome of processing one file.
type FileStatus string

const (
	StatusOK      FileStatus = "ok"
	StatusSkipped FileStatus = "skipped"
)

// Skip reasons shared by the processor and its callers.
const (
	ReasonNoAnnotation = "no annotation"
	ReasonNoFunctions  = "no functions found"
)

// FileResult is the isolated outcome of one file: either records, or a skip
// with the reason.
type FileResult struct {
	Path     string           `json:"path"`
	SourceID string           `json:"source"`
	Status   FileStatus       `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	Records  []dataset.Record `json:"-"`
	Cached   bool             `json:"cached,omitempty"`
}

// Stats summarizes an extraction run.
type Stats struct {
	Kind            dataset.Kind  `json:"kind"`
	RunID           string        `json:"run_id"`
	FilesDiscovered int           `json:"files_discovered"`
	FilesProcessed  int           `json:"files_processed"`
	FilesSkipped    int           `json:"files_skipped"`
	Records         int           `json:"records"`
	Duration        time.Duration `json:"duration"`
}

// tally folds file results into s.
func (s *Stats) tally(results []FileResult) {
	for _, r := range results {
		if r.Status == StatusSkipped {
			s.FilesSkipped++
			continue
		}
		s.FilesProcessed++
		s.Records += len(r.Records)
	}
}
