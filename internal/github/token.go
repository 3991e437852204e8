package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"git-suggester/internal/secrets"
)

type runnerFunc func(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)

// TokenSource finds an API token for a GitHub host.
type TokenSource struct {
	getenv  func(string) string
	keyring func(host string) (string, error)
	run     runnerFunc
}

// NewTokenSource returns a TokenSource that checks GITHUB_TOKEN, then the
// OS keyring, then `gh auth token`.
func NewTokenSource() TokenSource {
	return TokenSource{
		getenv:  os.Getenv,
		keyring: secrets.GetGitHubToken,
		run:     defaultRunner,
	}
}

// Token returns the first non-empty token found for host.
func (s TokenSource) Token(ctx context.Context, host string) (string, error) {
	if host == "" {
		host = defaultHost
	}
	if token := strings.TrimSpace(s.getenv("GITHUB_TOKEN")); token != "" {
		return token, nil
	}

	token, err := s.keyring(host)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, secrets.ErrNotFound) {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "gh", "auth", "token", "--hostname", host)
	if err != nil {
		return "", fmt.Errorf("github: no token for %s (set GITHUB_TOKEN, run `git-suggester auth set-token` or `gh auth login`): %v: %s",
			host, err, strings.TrimSpace(stderr))
	}
	token = strings.TrimSpace(stdout)
	if token == "" {
		return "", fmt.Errorf("github: gh returned an empty token for %s", host)
	}
	return token, nil
}

func defaultRunner(ctx context.Context, name string, args ...string) (string, string, error) {
	// Keep a reasonable timeout to avoid hanging if gh prompts for input
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), err
}
