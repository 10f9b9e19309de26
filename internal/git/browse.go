package git

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrNotRepository is returned when the project is not inside a git worktree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoRemote is returned when the repository has no remote configured.
	ErrNoRemote = errors.New("no git remote configured")
	// ErrNoRef is returned when neither a branch nor a commit can be read.
	ErrNoRef = errors.New("no branch or commit to link to")
)

// Source locates the checkout and the URL prefix its files are published under.
type Source struct {
	RepoDir string
	RepoURL string
}

// ResolveSource derives the repository root and a browse URL prefix for
// projectPath. The ref is the current branch, or the HEAD commit when
// detached.
func ResolveSource(ops Operations, projectPath string) (Source, error) {
	root := ops.GetWorktreeRoot(projectPath)
	if root == "" {
		return Source{}, fmt.Errorf("%w: %s", ErrNotRepository, projectPath)
	}

	remote := ops.GetRemoteURL(projectPath)
	if remote == "" {
		return Source{}, ErrNoRemote
	}

	ref := ops.GetCurrentBranch(projectPath)
	if ref == "" {
		ref = ops.GetHeadCommit(projectPath)
	}
	if ref == "" {
		return Source{}, ErrNoRef
	}

	browse, err := BrowseURL(remote, ref)
	if err != nil {
		return Source{}, err
	}
	return Source{RepoDir: root, RepoURL: browse}, nil
}

// BrowseURL converts a remote URL into the web prefix for files at ref:
//
//	git@github.com:owner/repo.git        -> https://github.com/owner/repo/blob/ref
//	https://user@github.com/owner/repo   -> https://github.com/owner/repo/blob/ref
//	ssh://git@gitlab.com/group/repo.git  -> https://gitlab.com/group/repo/blob/ref
func BrowseURL(remote, ref string) (string, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", ErrNoRemote
	}

	var host, path string
	if i := strings.Index(remote, "://"); i >= 0 {
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("failed to parse remote %q: %w", remote, err)
		}
		host, path = u.Hostname(), u.Path
	} else if at := strings.Index(remote, "@"); at >= 0 && strings.Contains(remote[at:], ":") {
		// scp-like syntax: user@host:path
		rest := remote[at+1:]
		colon := strings.Index(rest, ":")
		host, path = rest[:colon], rest[colon+1:]
	} else {
		return "", fmt.Errorf("unsupported remote %q", remote)
	}

	path = strings.Trim(strings.TrimSuffix(strings.Trim(path, "/"), ".git"), "/")
	if host == "" || path == "" {
		return "", fmt.Errorf("unsupported remote %q", remote)
	}
	return fmt.Sprintf("https://%s/%s/blob/%s", host, path, ref), nil
}
