// Package git reads the repository facts used to turn local paths into
// public browse URLs.
package git

import (
	"os/exec"
	"strings"
)

// Operations defines the interface for git operations.
// This allows mocking git commands in tests.
type Operations interface {
	// GetCurrentBranch returns the current branch name, or "" for a detached
	// HEAD or a directory outside any repository.
	GetCurrentBranch(projectPath string) string

	// GetHeadCommit returns the full hash of HEAD, or "" if it cannot be read.
	GetHeadCommit(projectPath string) string

	// GetRemoteURL returns the git remote URL.
	// Tries 'origin' first, then falls back to first available remote.
	// Returns empty string if no remote configured.
	GetRemoteURL(projectPath string) string

	// GetWorktreeRoot returns the git worktree root path, or "" if
	// projectPath is not inside a repository.
	GetWorktreeRoot(projectPath string) string
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (g *gitOps) GetCurrentBranch(projectPath string) string {
	branch, err := run(projectPath, "branch", "--show-current")
	if err != nil {
		return ""
	}
	return branch
}

func (g *gitOps) GetHeadCommit(projectPath string) string {
	commit, err := run(projectPath, "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return commit
}

func (g *gitOps) GetRemoteURL(projectPath string) string {
	if url, err := run(projectPath, "remote", "get-url", "origin"); err == nil {
		return url
	}

	// Fallback: first remote
	output, err := run(projectPath, "remote")
	if err != nil || output == "" {
		return ""
	}
	first := strings.Split(output, "\n")[0]
	url, _ := run(projectPath, "remote", "get-url", first)
	return url
}

func (g *gitOps) GetWorktreeRoot(projectPath string) string {
	root, err := run(projectPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return ""
	}
	return root
}
