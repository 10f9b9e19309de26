package watcher

// Test Plan for Watcher:
// - New fails for a missing root
// - A written file is delivered after the debounce period
// - Rapid writes to several files arrive as one sorted, de-duplicated batch
// - Match filters out files that are not of interest
// - Pause holds batches back; Resume delivers them
// - Resume delivers on the event loop, never on the caller's goroutine
// - Files in new subdirectories are picked up
// - SkipDir keeps a directory unwatched
// - Stop is idempotent, also when Start was never called

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 100 * time.Millisecond

func isSol(path string) bool { return strings.HasSuffix(path, ".sol") }

func startWatcher(t *testing.T, root string, opts Options) (Watcher, <-chan []string) {
	t.Helper()

	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	w, err := New(root, opts)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	batches := make(chan []string, 10)
	require.NoError(t, w.Start(context.Background(), func(paths []string) {
		batches <- paths
	}))
	time.Sleep(50 * time.Millisecond)
	return w, batches
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(3 * time.Second):
		t.Fatal("no batch delivered")
		return nil
	}
}

func assertNoBatch(t *testing.T, batches <-chan []string) {
	t.Helper()
	select {
	case b := <-batches:
		t.Fatalf("unexpected batch: %v", b)
	case <-time.After(4 * testDebounce):
	}
}

func TestNew_MissingRoot(t *testing.T) {
	t.Parallel()

	w, err := New(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestWatcher_DeliversChange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, root, Options{Match: isSol})

	path := filepath.Join(root, "a.sol")
	require.NoError(t, os.WriteFile(path, []byte("contract A {}\n"), 0644))

	assert.Equal(t, []string{path}, waitBatch(t, batches))
}

func TestWatcher_BatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, root, Options{Match: isSol})

	b := filepath.Join(root, "b.sol")
	a := filepath.Join(root, "a.sol")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(b, []byte("contract B {}\n"), 0644))
		require.NoError(t, os.WriteFile(a, []byte("contract A {}\n"), 0644))
	}

	assert.Equal(t, []string{a, b}, waitBatch(t, batches))
}

func TestWatcher_MatchFilters(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, root, Options{Match: isSol})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("# notes\n"), 0644))
	assertNoBatch(t, batches)
}

func TestWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, batches := startWatcher(t, root, Options{Match: isSol})

	w.Pause()
	path := filepath.Join(root, "paused.sol")
	require.NoError(t, os.WriteFile(path, []byte("contract P {}\n"), 0644))
	assertNoBatch(t, batches)

	w.Resume()
	assert.Equal(t, []string{path}, waitBatch(t, batches))
}

func TestWatcher_ResumeDeliversOnLoop(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, err := New(root, Options{Match: isSol, Debounce: testDebounce})
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	release := make(chan struct{})
	delivered := make(chan []string, 10)
	var inFlight, maxInFlight int32
	require.NoError(t, w.Start(context.Background(), func(paths []string) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		delivered <- paths
	}))
	time.Sleep(50 * time.Millisecond)

	w.Pause()
	path := filepath.Join(root, "held.sol")
	require.NoError(t, os.WriteFile(path, []byte("contract H {}\n"), 0644))
	time.Sleep(4 * testDebounce)

	resumed := make(chan struct{})
	go func() {
		w.Resume()
		close(resumed)
	}()
	select {
	case <-resumed:
	case <-time.After(time.Second):
		t.Fatal("Resume blocked on the callback")
	}

	// A change arriving while the held batch is still in the callback must
	// wait for the loop rather than run alongside it.
	require.NoError(t, os.WriteFile(filepath.Join(root, "next.sol"), []byte("contract N {}\n"), 0644))
	time.Sleep(4 * testDebounce)

	close(release)
	assert.Equal(t, []string{path}, waitBatch(t, delivered))
	waitBatch(t, delivered)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, root, Options{Match: isSol})

	sub := filepath.Join(root, "contracts")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "c.sol")
	require.NoError(t, os.WriteFile(path, []byte("contract C {}\n"), 0644))

	got := waitBatch(t, batches)
	assert.Contains(t, got, path)
}

func TestWatcher_SkipDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	skipped := filepath.Join(root, "node_modules")
	require.NoError(t, os.Mkdir(skipped, 0755))

	_, batches := startWatcher(t, root, Options{
		Match:   isSol,
		SkipDir: func(path string) bool { return filepath.Base(path) == "node_modules" },
	})

	require.NoError(t, os.WriteFile(filepath.Join(skipped, "dep.sol"), []byte("contract D {}\n"), 0644))
	assertNoBatch(t, batches)
}

func TestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())

	started, _ := startWatcher(t, t.TempDir(), Options{})
	assert.NoError(t, started.Stop())
	assert.NoError(t, started.Stop())
}
