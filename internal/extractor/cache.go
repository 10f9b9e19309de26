package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/openvulns/internal/dataset"
)

// cachedResult is a FileResult with source-specific fields stripped so the
// same content at another path can reuse it.
type cachedResult struct {
	status  FileStatus
	reason  string
	records []dataset.Record
}

// resultCache memoizes per-file results by mode and content hash.
type resultCache struct {
	cache otter.Cache[string, cachedResult]
}

func newResultCache(capacity int) (*resultCache, error) {
	if capacity <= 0 {
		return nil, nil
	}
	c, err := otter.MustBuilder[string, cachedResult](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result cache: %w", err)
	}
	return &resultCache{cache: c}, nil
}

func cacheKey(kind dataset.Kind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return string(kind) + ":" + hex.EncodeToString(sum[:])
}

func (c *resultCache) get(key string, src *SourceFile) (FileResult, bool) {
	if c == nil {
		return FileResult{}, false
	}
	hit, ok := c.cache.Get(key)
	if !ok {
		return FileResult{}, false
	}

	records := make([]dataset.Record, len(hit.records))
	for i, r := range hit.records {
		r.SourceID = src.ID
		records[i] = r
	}
	return FileResult{
		Path:     src.Path,
		SourceID: src.ID,
		Status:   hit.status,
		Reason:   hit.reason,
		Records:  records,
		Cached:   true,
	}, true
}

func (c *resultCache) set(key string, res FileResult) {
	if c == nil {
		return
	}
	c.cache.Set(key, cachedResult{
		status:  res.Status,
		reason:  res.Reason,
		records: append([]dataset.Record(nil), res.Records...),
	})
}

// hitRatio reports the fraction of lookups that hit.
func (c *resultCache) hitRatio() float64 {
	if c == nil {
		return 0
	}
	return c.cache.Stats().Ratio()
}

func (c *resultCache) close() {
	if c != nil {
		c.cache.Close()
	}
}
