package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/extractor"
	"github.com/mvp-joe/openvulns/internal/git"
	"github.com/mvp-joe/openvulns/internal/rules"
)

// Rules returns the rule table with the configured declaration keywords.
func (c *Config) Rules() *rules.Rules {
	return rules.Default().WithDeclarationKeywords(c.Scanner.DeclarationKeywords)
}

// Kind returns the configured extraction mode as a dataset kind.
func (c *Config) Kind() dataset.Kind {
	return dataset.Kind(strings.ToLower(c.Extract.Mode))
}

// RepoDir resolves source.repo_dir against rootDir; empty means rootDir.
func (c *Config) RepoDir(rootDir string) string {
	return resolve(rootDir, c.Source.RepoDir)
}

// StoragePath resolves storage.path against rootDir.
func (c *Config) StoragePath(rootDir string) string {
	return resolve(rootDir, c.Storage.Path)
}

// ExtractorOptions converts the configuration into processor options.
func (c *Config) ExtractorOptions(rootDir string, progress extractor.ProgressReporter) extractor.Options {
	return extractor.Options{
		RepoDir:     c.RepoDir(rootDir),
		RepoURL:     c.Source.RepoURL,
		Rules:       c.Rules(),
		MaxBackward: c.Scanner.MaxBackwardLines,
		Workers:     c.Extract.Workers,
		CacheSize:   c.Extract.CacheSize,
		Progress:    progress,
	}
}

// NewFileDiscovery builds discovery over the configured repository directory.
func (c *Config) NewFileDiscovery(rootDir string) (*extractor.FileDiscovery, error) {
	return extractor.NewFileDiscovery(c.RepoDir(rootDir), c.Paths.Include, c.Paths.Ignore)
}

// ResolveSource replaces an "auto" repo_url with the browse URL of the git
// checkout containing rootDir. An unset repo_dir becomes the worktree root so
// ids are relative to the repository, not the project.
func (c *Config) ResolveSource(rootDir string, ops git.Operations) error {
	if c.Source.RepoURL != RepoURLAuto {
		return nil
	}
	src, err := git.ResolveSource(ops, c.RepoDir(rootDir))
	if err != nil {
		return fmt.Errorf("failed to resolve repo_url from git: %w", err)
	}
	c.Source.RepoURL = src.RepoURL
	if c.Source.RepoDir == "" {
		c.Source.RepoDir = src.RepoDir
	}
	return nil
}

func resolve(rootDir, p string) string {
	if p == "" {
		return rootDir
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}
