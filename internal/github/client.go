// Package github implements the remote branch operations against the
// GitHub REST API, including GitHub Enterprise hosts.
package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const (
	defaultHost = "github.com"
	perPage     = 100
)

// ErrReferenceExists is matched by errors from CreateReference when the
// reference is already present on the remote.
var ErrReferenceExists = errors.New("github: reference already exists")

// Branch is a branch name and the commit it points at.
type Branch struct {
	Name string
	SHA  string
}

// Reference is a created git reference.
type Reference struct {
	Ref string // fully qualified, e.g. refs/heads/feature
	URL string
}

// Client wraps a go-github client.
type Client struct {
	api  *github.Client
	host string
}

// NewClient builds a Client that authenticates with a static token.
func NewClient(ctx context.Context, host, token string) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return NewClientWithHTTP(oauth2.NewClient(ctx, ts), host)
}

// NewClientWithHTTP builds a Client on top of an existing HTTP client.
// Hosts other than github.com are treated as GitHub Enterprise.
func NewClientWithHTTP(httpClient *http.Client, host string) (*Client, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = defaultHost
	}
	api := github.NewClient(httpClient)
	if host != defaultHost {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", host))
		if err != nil {
			return nil, fmt.Errorf("github: parse base URL for host %s: %w", host, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", host))
		if err != nil {
			return nil, fmt.Errorf("github: parse upload URL for host %s: %w", host, err)
		}
		api.BaseURL = baseURL
		api.UploadURL = uploadURL
	}
	return &Client{api: api, host: host}, nil
}

// Host returns the GitHub host this client talks to.
func (c *Client) Host() string { return c.host }

// ListBranches returns every branch of owner/repo, following pagination.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	var out []Branch
	for {
		page, resp, err := c.api.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, newAPIError("list branches", err)
		}
		for _, b := range page {
			out = append(out, Branch{Name: b.GetName(), SHA: b.GetCommit().GetSHA()})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateReference creates ref (e.g. refs/heads/name) pointing at sha.
func (c *Client) CreateReference(ctx context.Context, owner, repo, ref, sha string) (Reference, error) {
	created, _, err := c.api.Git.CreateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String(ref),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	if err != nil {
		apiErr := newAPIError("create reference", err)
		if isReferenceExists(err) {
			return Reference{}, fmt.Errorf("%w: %s: %w", ErrReferenceExists, ref, apiErr)
		}
		return Reference{}, apiErr
	}
	return Reference{Ref: created.GetRef(), URL: created.GetURL()}, nil
}

// CurrentUser returns the login of the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	user, _, err := c.api.Users.Get(ctx, "")
	if err != nil {
		return "", newAPIError("get current user", err)
	}
	return user.GetLogin(), nil
}

// APIError is a failed GitHub API call.
type APIError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("github: %s failed (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("github: %s failed: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failure is transient: rate limiting,
// server errors and network timeouts.
func (e *APIError) IsRetryable() bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(e.Err, &rateErr) || errors.As(e.Err, &abuseErr) {
		return true
	}
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode != 0:
		return false
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func newAPIError(op string, err error) *APIError {
	apiErr := &APIError{Op: op, Err: err}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		apiErr.StatusCode = respErr.Response.StatusCode
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		apiErr.StatusCode = rateErr.Response.StatusCode
	}
	return apiErr
}

func isReferenceExists(err error) bool {
	var respErr *github.ErrorResponse
	if !errors.As(err, &respErr) || respErr.Response == nil {
		return false
	}
	if respErr.Response.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	return strings.Contains(strings.ToLower(respErr.Message), "already exists")
}
