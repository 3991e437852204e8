package git

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// Git reads information from a local repository.
type Git struct {
	// WorkDir is the path the repository is searched from, walking up to
	// parent directories. If empty, the process working directory is used.
	WorkDir string
}

func New() *Git { return &Git{} }

// NewWithWorkDir creates a Git bound to the provided working directory.
func NewWithWorkDir(dir string) *Git { return &Git{WorkDir: dir} }

// Remote describes where a git remote is hosted.
type Remote struct {
	Host  string
	Owner string
	Repo  string
}

// GetRemoteURL returns the first URL configured for the given remote.
func (g *Git) GetRemoteURL(remote string) (string, error) {
	repo, err := g.open()
	if err != nil {
		return "", err
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("git: remote %q: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("git: remote %q has no URL", remote)
	}
	return urls[0], nil
}

// Detect returns the host, owner and repository of the given remote.
func (g *Git) Detect(remote string) (Remote, error) {
	raw, err := g.GetRemoteURL(remote)
	if err != nil {
		return Remote{}, err
	}
	return ParseRemoteURL(raw)
}

func (g *Git) open() (*gogit.Repository, error) {
	dir := g.WorkDir
	if dir == "" {
		dir = "."
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("git: open repository at %s: %w", dir, err)
	}
	return repo, nil
}

// ParseRemoteURL understands https://host/owner/repo(.git),
// ssh://[user@]host[:port]/owner/repo(.git) and scp-like user@host:owner/repo(.git).
func ParseRemoteURL(raw string) (Remote, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Remote{}, errors.New("git: empty remote URL")
	}

	var host, path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Remote{}, fmt.Errorf("git: parse remote URL %q: %w", raw, err)
		}
		host, path = u.Hostname(), u.Path
	} else {
		at := strings.Index(raw, "@")
		colon := strings.Index(raw, ":")
		if colon < 0 || colon < at {
			return Remote{}, fmt.Errorf("git: unsupported remote URL %q", raw)
		}
		host, path = raw[at+1:colon], raw[colon+1:]
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if host == "" || len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Remote{}, fmt.Errorf("git: remote URL %q is not an owner/repo URL", raw)
	}
	return Remote{Host: host, Owner: parts[0], Repo: parts[1]}, nil
}
