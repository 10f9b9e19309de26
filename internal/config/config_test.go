package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/openvulns/internal/dataset"
	"github.com/mvp-joe/openvulns/internal/git"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .openvulns/config.yml and merges it with defaults
// - NewFileLoader reads an explicit file and fails when it is missing
// - Environment variables override config file values
// - Variables from rootDir/.env are applied
// - Load() returns error for malformed YAML
// - Load() returns error for invalid configuration values
// - Validate() rejects each invalid field and reports several at once
// - Conversion helpers resolve paths against the project root
// - ResolveSource fills an "auto" repo_url from git and leaves explicit values alone

func writeConfig(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, ".openvulns")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"**/*.sol"}, cfg.Paths.Include)
	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")
	assert.Equal(t, []string{"function"}, cfg.Scanner.DeclarationKeywords)
	assert.Zero(t, cfg.Scanner.MaxBackwardLines)
	assert.Equal(t, "labeled", cfg.Extract.Mode)
	assert.Equal(t, 4, cfg.Extract.Workers)
	assert.Equal(t, 10000, cfg.Extract.CacheSize)
	assert.Equal(t, ".openvulns/dataset.db", cfg.Storage.Path)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, `
paths:
  include:
    - "contracts/**/*.sol"
source:
  repo_url: https://github.com/example/contracts/blob/main
scanner:
  max_backward_lines: 200
  declaration_keywords: ["function", "modifier"]
extract:
  mode: all
`)

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"contracts/**/*.sol"}, cfg.Paths.Include)
	assert.Equal(t, "https://github.com/example/contracts/blob/main", cfg.Source.RepoURL)
	assert.Equal(t, 200, cfg.Scanner.MaxBackwardLines)
	assert.Equal(t, []string{"function", "modifier"}, cfg.Scanner.DeclarationKeywords)
	assert.Equal(t, "all", cfg.Extract.Mode)

	// Unset keys keep their defaults
	assert.Equal(t, Default().Paths.Ignore, cfg.Paths.Ignore)
	assert.Equal(t, 4, cfg.Extract.Workers)
}

func TestNewFileLoader(t *testing.T) {
	t.Parallel()

	t.Run("explicit file", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		path := filepath.Join(root, "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("extract:\n  workers: 2\n"), 0644))

		cfg, err := NewFileLoader(root, path).Load()
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Extract.Workers)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		_, err := NewFileLoader(root, filepath.Join(root, "nope.yaml")).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv()
	root := t.TempDir()
	writeConfig(t, root, "extract:\n  workers: 2\n  mode: all\n")

	t.Setenv("OPENVULNS_EXTRACT_WORKERS", "8")
	t.Setenv("OPENVULNS_STORAGE_PATH", "out/vulns.db")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Extract.Workers)
	assert.Equal(t, "all", cfg.Extract.Mode)
	assert.Equal(t, "out/vulns.db", cfg.Storage.Path)
}

func TestLoad_DotEnv(t *testing.T) {
	// Mutates the process environment; not parallel
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("OPENVULNS_EXTRACT_MODE=all\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("OPENVULNS_EXTRACT_MODE") })

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, "all", cfg.Extract.Mode)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "extract:\n  workers: [unclosed\n")

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "extract:\n  mode: everything\n")

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty include", func(c *Config) { c.Paths.Include = nil }, ErrEmptyInclude},
		{"bad include glob", func(c *Config) { c.Paths.Include = []string{"[*.sol"} }, ErrInvalidPattern},
		{"bad ignore glob", func(c *Config) { c.Paths.Ignore = []string{"src/[unclosed"} }, ErrInvalidPattern},
		{"relative repo url", func(c *Config) { c.Source.RepoURL = "example/contracts" }, ErrInvalidRepoURL},
		{"negative backward limit", func(c *Config) { c.Scanner.MaxBackwardLines = -1 }, ErrInvalidBackwardLimit},
		{"blank keyword", func(c *Config) { c.Scanner.DeclarationKeywords = []string{"function", " "} }, ErrInvalidKeyword},
		{"unknown mode", func(c *Config) { c.Extract.Mode = "some" }, ErrInvalidMode},
		{"zero workers", func(c *Config) { c.Extract.Workers = 0 }, ErrInvalidWorkers},
		{"negative cache", func(c *Config) { c.Extract.CacheSize = -5 }, ErrInvalidCacheSize},
		{"empty storage", func(c *Config) { c.Storage.Path = "  " }, ErrEmptyStoragePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("mode is case insensitive", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Extract.Mode = "ALL"
		assert.NoError(t, Validate(cfg))
		assert.Equal(t, dataset.KindAll, cfg.Kind())
	})

	t.Run("multiple errors", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Extract.Workers = 0
		cfg.Storage.Path = ""
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed:")
		assert.Contains(t, err.Error(), "invalid worker count")
		assert.Contains(t, err.Error(), "empty storage path")
	})
}

func TestConversionHelpers(t *testing.T) {
	t.Parallel()

	root := filepath.Join(string(filepath.Separator), "work", "project")
	cfg := Default()

	assert.Equal(t, root, cfg.RepoDir(root))
	assert.Equal(t, filepath.Join(root, ".openvulns", "dataset.db"), cfg.StoragePath(root))

	cfg.Source.RepoDir = "vendor/contracts"
	abs := filepath.Join(string(filepath.Separator), "data", "store.db")
	cfg.Storage.Path = abs
	assert.Equal(t, filepath.Join(root, "vendor", "contracts"), cfg.RepoDir(root))
	assert.Equal(t, abs, cfg.StoragePath(root))

	cfg.Scanner.DeclarationKeywords = []string{"function", "modifier"}
	cfg.Scanner.MaxBackwardLines = 50
	cfg.Source.RepoURL = "https://github.com/example/contracts"
	opts := cfg.ExtractorOptions(root, nil)
	assert.Equal(t, filepath.Join(root, "vendor", "contracts"), opts.RepoDir)
	assert.Equal(t, "https://github.com/example/contracts", opts.RepoURL)
	assert.Equal(t, 50, opts.MaxBackward)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, 10000, opts.CacheSize)
	require.NotNil(t, opts.Rules)
	assert.True(t, opts.Rules.IsDeclaration("modifier onlyOwner() {"))
}

func TestResolveSource(t *testing.T) {
	t.Parallel()

	t.Run("auto", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Source.RepoURL = RepoURLAuto
		require.NoError(t, Validate(cfg))

		require.NoError(t, cfg.ResolveSource("/tmp/test-repo/contracts", git.NewMockGitOps()))
		assert.Equal(t, "https://github.com/user/repo/blob/main", cfg.Source.RepoURL)
		assert.Equal(t, "/tmp/test-repo", cfg.Source.RepoDir)
	})

	t.Run("explicit repo_dir kept", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Source.RepoURL = RepoURLAuto
		cfg.Source.RepoDir = "/srv/checkout"
		require.NoError(t, cfg.ResolveSource("/tmp/test-repo", git.NewMockGitOps()))
		assert.Equal(t, "/srv/checkout", cfg.Source.RepoDir)
	})

	t.Run("not a repository", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Source.RepoURL = RepoURLAuto
		ops := git.NewMockGitOps()
		ops.WorktreeRoot = ""
		err := cfg.ResolveSource("/tmp/elsewhere", ops)
		assert.ErrorIs(t, err, git.ErrNotRepository)
	})

	t.Run("explicit url untouched", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Source.RepoURL = "https://example.com/contracts"
		require.NoError(t, cfg.ResolveSource("/tmp/test-repo", git.NewMockGitOps()))
		assert.Equal(t, "https://example.com/contracts", cfg.Source.RepoURL)
		assert.Empty(t, cfg.Source.RepoDir)
	})
}
