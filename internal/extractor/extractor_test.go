package extractor

// Test Plan for Extractor:
// - Run discovers, extracts and stores records sorted in dataset order, and records the run
// - Run reports progress callbacks in order
// - A second Run fully replaces the stored dataset of that kind
// - Update re-extracts changed files and removes deleted ones
// - Update ignores paths outside the include patterns
// - Watch applies a file change to the store
// - A Run that fails after it was recorded is closed with its error

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/storage"
)

type recordingProgress struct {
	mu     sync.Mutex
	events []string
	files  int
}

func (r *recordingProgress) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingProgress) OnDiscoveryStart()             { r.add("discovery") }
func (r *recordingProgress) OnDiscoveryComplete(files int) { r.add("discovered") }
func (r *recordingProgress) OnFileProcessingStart(int)     { r.add("processing") }
func (r *recordingProgress) OnWritingRecords(int)          { r.add("writing") }
func (r *recordingProgress) OnComplete(*Stats)             { r.add("complete") }
func (r *recordingProgress) OnFileProcessed(FileResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files++
}

type testPipeline struct {
	root     string
	ext      *Extractor
	reader   *storage.RecordReader
	runs     *storage.RunStore
	progress *recordingProgress
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	root := t.TempDir()
	db := storage.NewTestDB(t)
	progress := &recordingProgress{}

	fd, err := NewFileDiscovery(root, []string{"**/*.sol"}, nil)
	require.NoError(t, err)
	p, err := NewProcessor(Options{RepoDir: root, Workers: 2, CacheSize: 64, Progress: progress})
	require.NoError(t, err)
	t.Cleanup(p.Close)

	runs := storage.NewRunStore(db)
	return &testPipeline{
		root:     root,
		ext:      New(fd, p, storage.NewRecordWriter(db), runs, progress),
		reader:   storage.NewRecordReader(db),
		runs:     runs,
		progress: progress,
	}
}

func TestExtractor_Run(t *testing.T) {
	t.Parallel()

	tp := newTestPipeline(t)
	copyFixture(t, tp.root, "unlabeled/token.sol", "b/token.sol")
	copyFixture(t, tp.root, "unlabeled/malformed.sol", "a/malformed.sol")
	writeFile(t, filepath.Join(tp.root, "empty.sol"), "pragma solidity ^0.8.0;\n")

	stats, results, err := tp.ext.Run(context.Background(), dataset.KindAll)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.FilesDiscovered)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 6, stats.Records)
	assert.NotEmpty(t, stats.RunID)
	require.Len(t, results, 3)

	records, err := tp.reader.ReadRecords(dataset.KindAll)
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "a/malformed.sol", records[0].SourceID)
	assert.Equal(t, "a/malformed.sol", records[1].SourceID)
	assert.Equal(t, "b/token.sol", records[2].SourceID)

	run, err := tp.runs.LatestRun(dataset.KindAll)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, stats.RunID, run.ID)
	assert.Equal(t, storage.RunStats{FilesTotal: 3, FilesSkipped: 1, Records: 6}, run.Stats)

	assert.Equal(t, []string{"discovery", "discovered", "processing", "writing", "complete"}, tp.progress.events)
	assert.Equal(t, 3, tp.progress.files)
}

type failingStore struct {
	RecordStore
}

func (failingStore) WriteRecords(dataset.Kind, string, []dataset.Record) error {
	return errors.New("disk full")
}

func TestExtractor_RunFailureClosesRun(t *testing.T) {
	t.Parallel()

	t.Run("processing cancelled", func(t *testing.T) {
		t.Parallel()
		tp := newTestPipeline(t)
		copyFixture(t, tp.root, "unlabeled/token.sol", "token.sol")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := tp.ext.Run(ctx, dataset.KindAll)
		require.ErrorIs(t, err, context.Canceled)

		run, err := tp.runs.LatestRun(dataset.KindAll)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.NotNil(t, run.FinishedAt)
		assert.Contains(t, run.Error, "context canceled")
	})

	t.Run("write failure", func(t *testing.T) {
		t.Parallel()
		tp := newTestPipeline(t)
		copyFixture(t, tp.root, "unlabeled/token.sol", "token.sol")
		ext := New(tp.ext.discovery, tp.ext.processor, failingStore{}, tp.runs, nil)

		_, _, err := ext.Run(context.Background(), dataset.KindAll)
		require.Error(t, err)

		run, err := tp.runs.LatestRun(dataset.KindAll)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.NotNil(t, run.FinishedAt)
		assert.Contains(t, run.Error, "disk full")
		assert.Equal(t, 1, run.Stats.FilesTotal)
	})

	t.Run("success leaves no error", func(t *testing.T) {
		t.Parallel()
		tp := newTestPipeline(t)
		copyFixture(t, tp.root, "unlabeled/token.sol", "token.sol")

		_, _, err := tp.ext.Run(context.Background(), dataset.KindAll)
		require.NoError(t, err)

		run, err := tp.runs.LatestRun(dataset.KindAll)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Empty(t, run.Error)
	})
}

func TestExtractor_RunReplaces(t *testing.T) {
	t.Parallel()

	tp := newTestPipeline(t)
	path := copyFixture(t, tp.root, "unlabeled/token.sol", "token.sol")

	_, _, err := tp.ext.Run(context.Background(), dataset.KindAll)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	copyFixture(t, tp.root, "unlabeled/malformed.sol", "malformed.sol")

	_, _, err = tp.ext.Run(context.Background(), dataset.KindAll)
	require.NoError(t, err)

	sources, err := tp.reader.Sources(dataset.KindAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"malformed.sol"}, sources)
}

func TestExtractor_Update(t *testing.T) {
	t.Parallel()

	tp := newTestPipeline(t)
	token := copyFixture(t, tp.root, "unlabeled/token.sol", "token.sol")
	logger := copyFixture(t, tp.root, "unlabeled/malformed.sol", "logger.sol")

	_, _, err := tp.ext.Run(context.Background(), dataset.KindAll)
	require.NoError(t, err)

	writeFile(t, logger, "contract Logger {\n    function only() public {\n    }\n}\n")
	require.NoError(t, os.Remove(token))
	notes := filepath.Join(tp.root, "notes.md")
	writeFile(t, notes, "# notes\n")

	stats, err := tp.ext.Update(context.Background(), dataset.KindAll, []string{logger, token, notes})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.Records)

	records, err := tp.reader.ReadRecords(dataset.KindAll)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "logger.sol", records[0].SourceID)
	assert.Equal(t, "function only()", records[0].Signature)
}

func TestExtractor_UpdateIgnoresUnmatched(t *testing.T) {
	t.Parallel()

	tp := newTestPipeline(t)
	stats, err := tp.ext.Update(context.Background(), dataset.KindAll, []string{filepath.Join(tp.root, "README.md")})
	require.NoError(t, err)
	assert.Zero(t, stats.FilesProcessed)
}

func TestExtractor_Watch(t *testing.T) {
	t.Parallel()

	tp := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *Stats, 4)
	done := make(chan error, 1)
	go func() {
		done <- tp.ext.Watch(ctx, dataset.KindAll, func(s *Stats) { updates <- s })
	}()
	time.Sleep(200 * time.Millisecond)

	copyFixture(t, tp.root, "unlabeled/malformed.sol", "watched.sol")

	select {
	case s := <-updates:
		assert.Equal(t, 2, s.Records)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not apply the change")
	}

	n, err := tp.reader.CountRecords(dataset.KindAll)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
