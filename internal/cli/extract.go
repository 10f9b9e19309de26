package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/extractor"
	"github.com/mvp-joe/openvulns/internal/storage"
)

var (
	extractModeFlag  string
	extractWatchFlag bool
	extractQuietFlag bool
	extractCSVFlag   string
	extractJSONLFlag string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract function-level records into the dataset store",
	Long: `Extract walks the project for Solidity files and cuts them into function
blocks.

Modes:
  labeled  Files carrying @vulnerable_at_lines: each annotated line anchors the
           function that encloses it. Files without the annotation are skipped.
  all      Every top-level function of every file, unlabeled.

Records are stored in the SQLite dataset (storage.path, default
.openvulns/dataset.db). Each run replaces the stored dataset of its mode.

Examples:
  # Build the labeled dataset
  openvulns extract

  # Enumerate every function and also write a CSV
  openvulns extract --mode all --csv functions.csv

  # Keep the dataset current as files change
  openvulns extract --watch
`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractModeFlag, "mode", "m", "", "Extraction mode: labeled or all (default from config)")
	extractCmd.Flags().BoolVarP(&extractWatchFlag, "watch", "w", false, "Watch for file changes and re-extract incrementally")
	extractCmd.Flags().BoolVarP(&extractQuietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	extractCmd.Flags().StringVar(&extractCSVFlag, "csv", "", "Also write the dataset to this CSV file")
	extractCmd.Flags().StringVar(&extractJSONLFlag, "jsonl", "", "Also write the dataset to this JSONL file")
}

// extractOptions are the resolved flags of one extract invocation.
type extractOptions struct {
	mode      string
	watch     bool
	quiet     bool
	csvPath   string
	jsonlPath string
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling extraction...")
			cancel()
		case <-ctx.Done():
		}
	}()

	p, err := loadProject(rootDir, cfgFile)
	if err != nil {
		return err
	}

	_, err = executeExtract(ctx, p, extractOptions{
		mode:      extractModeFlag,
		watch:     extractWatchFlag,
		quiet:     extractQuietFlag,
		csvPath:   extractCSVFlag,
		jsonlPath: extractJSONLFlag,
	}, cmd.OutOrStdout())
	return err
}

// executeExtract runs one extraction and, in watch mode, blocks applying
// changes until ctx is cancelled.
func executeExtract(ctx context.Context, p *project, opts extractOptions, out io.Writer) (*extractor.Stats, error) {
	kind := p.cfg.Kind()
	if opts.mode != "" {
		var err error
		if kind, err = dataset.ParseKind(opts.mode); err != nil {
			return nil, err
		}
	}

	db, err := storage.Open(p.cfg.StoragePath(p.root))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	progress := NewCLIProgressReporter(out, opts.quiet, verbose)

	discovery, err := p.cfg.NewFileDiscovery(p.root)
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}
	processor, err := extractor.NewProcessor(p.cfg.ExtractorOptions(p.root, progress))
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}
	defer processor.Close()

	ext := extractor.New(discovery, processor, storage.NewRecordWriter(db), storage.NewRunStore(db), progress)

	stats, _, err := ext.Run(ctx, kind)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("extraction cancelled")
		}
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	if err := exportOutputs(db, kind, opts); err != nil {
		return nil, err
	}

	if !opts.watch {
		return stats, nil
	}

	if !opts.quiet {
		log.Println("Starting watch mode...")
	}
	err = ext.Watch(ctx, kind, func(s *extractor.Stats) {
		if !opts.quiet {
			fmt.Fprintf(out, "Updated %d files: %s records in %.2fs\n",
				s.FilesProcessed+s.FilesSkipped, formatNumber(s.Records), s.Duration.Seconds())
		}
		if err := exportOutputs(db, kind, opts); err != nil {
			log.Printf("Warning: %v", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("watch mode failed: %w", err)
	}
	if !opts.quiet {
		log.Println("Watch mode stopped")
	}
	return stats, nil
}

// exportOutputs writes the stored dataset to the --csv and --jsonl targets.
func exportOutputs(db *sql.DB, kind dataset.Kind, opts extractOptions) error {
	if opts.csvPath == "" && opts.jsonlPath == "" {
		return nil
	}

	records, err := storage.NewRecordReader(db).ReadRecords(kind)
	if err != nil {
		return err
	}
	if opts.csvPath != "" {
		if err := writeDatasetFile(opts.csvPath, dataset.FormatCSV, records); err != nil {
			return err
		}
	}
	if opts.jsonlPath != "" {
		if err := writeDatasetFile(opts.jsonlPath, dataset.FormatJSONL, records); err != nil {
			return err
		}
	}
	return nil
}

// writeDatasetFile writes records to path, replacing it atomically.
func writeDatasetFile(path string, format dataset.Format, records []dataset.Record) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := dataset.Write(f, format, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}
