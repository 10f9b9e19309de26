package extractor

// Test Plan for FileDiscovery:
// - Default include pattern finds .sol files at the root and in subdirectories
// - Results are sorted
// - Ignore patterns exclude files and whole directories
// - The .openvulns store directory is always skipped
// - Matches and SkipDir agree with DiscoverFiles
// - Invalid glob patterns are rejected

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFileDiscovery_DiscoverFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Root.sol"), "contract R {}\n")
	writeFile(t, filepath.Join(root, "contracts", "b", "B.sol"), "contract B {}\n")
	writeFile(t, filepath.Join(root, "contracts", "A.sol"), "contract A {}\n")
	writeFile(t, filepath.Join(root, "contracts", "README.md"), "# docs\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "Dep.sol"), "contract D {}\n")
	writeFile(t, filepath.Join(root, ".openvulns", "Cached.sol"), "contract C {}\n")

	fd, err := NewFileDiscovery(root, []string{"**/*.sol"}, []string{"node_modules/**"})
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Root.sol"),
		filepath.Join(root, "contracts", "A.sol"),
		filepath.Join(root, "contracts", "b", "B.sol"),
	}, files)
}

func TestFileDiscovery_Matches(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fd, err := NewFileDiscovery(root, []string{"**/*.sol"}, []string{"**/test/**", "node_modules/**"})
	require.NoError(t, err)

	assert.True(t, fd.Matches(filepath.Join(root, "Token.sol")))
	assert.True(t, fd.Matches(filepath.Join(root, "src", "Token.sol")))
	assert.False(t, fd.Matches(filepath.Join(root, "src", "test", "Token.sol")))
	assert.False(t, fd.Matches(filepath.Join(root, "node_modules", "x", "Token.sol")))
	assert.False(t, fd.Matches(filepath.Join(root, "Token.vy")))
	assert.False(t, fd.Matches(filepath.Join(root, ".openvulns", "Token.sol")))
	assert.False(t, fd.Matches(filepath.Join(filepath.Dir(root), "Outside.sol")))

	assert.True(t, fd.SkipDir(filepath.Join(root, "node_modules")))
	assert.True(t, fd.SkipDir(filepath.Join(root, ".openvulns")))
	assert.False(t, fd.SkipDir(filepath.Join(root, "src")))
	assert.False(t, fd.SkipDir(root))
}

func TestNewFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), []string{"[unclosed"}, nil)
	assert.Error(t, err)
}
