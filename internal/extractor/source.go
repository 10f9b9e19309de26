package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/openvulns/internal/scanner"
)

// SourceID rewrites path into the public identifier stored in the dataset:
// the repoDir prefix is replaced by repoURL. Without a repoURL the id is the
// slash-separated path relative to repoDir.
func SourceID(path, repoDir, repoURL string) string {
	rel := path
	if repoDir != "" {
		if r, err := filepath.Rel(repoDir, path); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)

	if repoURL == "" {
		return rel
	}
	return strings.TrimSuffix(repoURL, "/") + "/" + strings.TrimPrefix(rel, "/")
}

// ReadSource reads path and splits it into lines.
func ReadSource(path, repoDir, repoURL string) (*SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewSourceFile(path, SourceID(path, repoDir, repoURL), data)
}

// NewSourceFile wraps already-read content.
func NewSourceFile(path, id string, data []byte) (*SourceFile, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidEncoding)
	}
	text := string(data)
	return &SourceFile{
		ID:    id,
		Path:  path,
		Lines: scanner.SplitLines(text),
		Text:  text,
	}, nil
}
