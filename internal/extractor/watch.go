package extractor

import (
	"context"
	"log"
	"os"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/watcher"
)

// Watch keeps the stored dataset of kind current until ctx is cancelled.
// onUpdate, when set, is called after every applied batch.
func (e *Extractor) Watch(ctx context.Context, kind dataset.Kind, onUpdate func(*Stats)) error {
	w, err := watcher.New(e.discovery.RootDir(), watcher.Options{
		Match:   e.discovery.Matches,
		SkipDir: e.discovery.SkipDir,
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	err = w.Start(ctx, func(paths []string) {
		stats, err := e.Update(ctx, kind, paths)
		if err != nil {
			log.Printf("Warning: failed to update %d changed files: %v", len(paths), err)
			return
		}
		if onUpdate != nil {
			onUpdate(stats)
		}
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
