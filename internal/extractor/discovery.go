package extractor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// storeDir is never scanned.
const storeDir = ".openvulns"

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds source files under a root with include and ignore globs.
type FileDiscovery struct {
	rootDir        string
	includes       []compiledPattern
	ignorePatterns []compiledPattern
}

// NewFileDiscovery compiles the include and ignore patterns.
func NewFileDiscovery(rootDir string, include, ignore []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	var err error
	if fd.includes, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignore); err != nil {
		return nil, err
	}
	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// RootDir returns the directory being scanned.
func (fd *FileDiscovery) RootDir() string {
	return fd.rootDir
}

// DiscoverFiles walks the root and returns matching files, sorted.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.Walk(fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}
		if fd.matchesAnyPattern(relPath, fd.includes) {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

// Matches reports whether path, given in the same form as the root, would be
// discovered.
func (fd *FileDiscovery) Matches(path string) bool {
	rel, err := filepath.Rel(fd.rootDir, path)
	if err != nil {
		return false
	}
	relPath := filepath.ToSlash(rel)
	if relPath == ".." || strings.HasPrefix(relPath, "../") {
		return false
	}
	return !fd.shouldIgnore(relPath) && fd.matchesAnyPattern(relPath, fd.includes)
}

// SkipDir reports whether a directory is excluded from discovery.
func (fd *FileDiscovery) SkipDir(path string) bool {
	rel, err := filepath.Rel(fd.rootDir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != "." && fd.shouldIgnore(rel)
}

func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if relPath == storeDir || strings.HasPrefix(relPath, storeDir+"/") {
		return true
	}
	if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}
	// "node_modules" matches the pattern "node_modules/**".
	return fd.matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Root-level files match "**/" patterns with the prefix removed, so
	// "**/*.sol" matches both "Token.sol" and "contracts/Token.sol".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			simplified, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/')
			if err == nil && simplified.Match(path) {
				return true
			}
		}
	}
	return false
}
