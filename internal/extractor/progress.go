package extractor

// ProgressReporter provides callbacks for reporting extraction progress.
// OnFileProcessed may be called from several workers at once.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnFileProcessingStart is called before processing files.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is processed.
	OnFileProcessed(result FileResult)

	// OnWritingRecords is called before records are stored.
	OnWritingRecords(records int)

	// OnComplete is called when extraction completes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is used when progress reporting is disabled.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                    {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)        {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(result FileResult)    {}
func (n *NoOpProgressReporter) OnWritingRecords(records int)         {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)              {}
