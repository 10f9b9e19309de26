package cli

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/openvulns/internal/extractor"
)

// CLIProgressReporter implements progress reporting with progress bars.
// OnFileProcessed is called from worker goroutines.
type CLIProgressReporter struct {
	mu        sync.Mutex
	quiet     bool
	verbose   bool
	out       io.Writer
	fileBar   *progressbar.ProgressBar
	startTime time.Time
	skipped   []extractor.FileResult
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet, verbose bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		verbose:   verbose,
		out:       out,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	log.Println("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet {
		return
	}
	log.Printf("Processing %d source files\n", files)
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = nil
	if c.quiet || totalFiles == 0 {
		return
	}

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Extracting functions"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(result extractor.FileResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if result.Status == extractor.StatusSkipped {
		c.skipped = append(c.skipped, result)
	}
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnWritingRecords(records int) {
	c.mu.Lock()
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}
	c.mu.Unlock()

	if c.quiet {
		return
	}
	log.Printf("Writing %s records...\n", formatNumber(records))
}

func (c *CLIProgressReporter) OnComplete(stats *extractor.Stats) {
	if c.quiet {
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "✓ Extraction complete (%s): %s records in %.1fs\n",
		stats.Kind, formatNumber(stats.Records), stats.Duration.Seconds())
	fmt.Fprintf(c.out, "  Files processed: %s\n", formatNumber(stats.FilesProcessed))
	fmt.Fprintf(c.out, "  Files skipped:   %s\n", formatNumber(stats.FilesSkipped))

	if c.verbose {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, r := range c.skipped {
			fmt.Fprintf(c.out, "    - %s: %s\n", r.SourceID, r.Reason)
		}
	}
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	if n < 1000 && n > -1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	sign := ""
	if str[0] == '-' {
		sign, str = "-", str[1:]
	}
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return sign + result
}
