package git

import "fmt"

// MockGitOps is a mock implementation of Operations for testing.
type MockGitOps struct {
	CurrentBranch string
	HeadCommit    string
	RemoteURL     string
	WorktreeRoot  string
}

// NewMockGitOps creates a mock with sensible defaults.
func NewMockGitOps() *MockGitOps {
	return &MockGitOps{
		CurrentBranch: "main",
		HeadCommit:    "3f9c2a1d8e7b6a5c4d3e2f1a0b9c8d7e6f5a4b3c",
		RemoteURL:     "https://github.com/user/repo.git",
		WorktreeRoot:  "/tmp/test-repo",
	}
}

func (m *MockGitOps) GetCurrentBranch(projectPath string) string {
	return m.CurrentBranch
}

func (m *MockGitOps) GetHeadCommit(projectPath string) string {
	return m.HeadCommit
}

func (m *MockGitOps) GetRemoteURL(projectPath string) string {
	return m.RemoteURL
}

func (m *MockGitOps) GetWorktreeRoot(projectPath string) string {
	return m.WorktreeRoot
}

// String returns a human-readable representation of the mock state.
func (m *MockGitOps) String() string {
	return fmt.Sprintf("MockGitOps{branch=%s, remote=%s, root=%s}",
		m.CurrentBranch, m.RemoteURL, m.WorktreeRoot)
}
