package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"git-suggester/internal/branch"
	appconfig "git-suggester/internal/config"
	"git-suggester/internal/github"
	"git-suggester/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeRemote struct {
	branches []github.Branch
	created  []string
	listErr  error
}

func (f *fakeRemote) ListBranches(ctx context.Context, owner, repo string) ([]github.Branch, error) {
	return f.branches, f.listErr
}

func (f *fakeRemote) CreateReference(ctx context.Context, owner, repo, ref, sha string) (github.Reference, error) {
	f.created = append(f.created, ref+"@"+sha)
	return github.Reference{Ref: ref, URL: "https://api.github.com/repos/" + owner + "/" + repo + "/git/" + ref}, nil
}

type fakeUsers struct {
	login string
	err   error
}

func (f fakeUsers) CurrentUser(context.Context) (string, error) { return f.login, f.err }

var target = branch.Coordinates{Owner: "octo", Repo: "worker"}

func testConfig() appconfig.Config {
	cfg := appconfig.DefaultConfig()
	cfg.Retry.MaxAttempts = 1
	return cfg
}

// --- tests ---

func TestProvisionWithDeps_CreatesBranch(t *testing.T) {
	remote := &fakeRemote{branches: []github.Branch{{Name: "master", SHA: "abc123"}, {Name: "fix", SHA: "x"}}}
	var out bytes.Buffer

	err := provisionWithDeps(context.Background(), testConfig(), remote, target, branchOptions{name: "fix"}, &out, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"refs/heads/fix-2@abc123"}, remote.created)
	assert.Equal(t, "Branch: fix-2\nBase commit: abc123\n", out.String())
}

func TestProvisionWithDeps_FlagOverrides(t *testing.T) {
	remote := &fakeRemote{branches: []github.Branch{
		{Name: "main", SHA: "m1"},
		{Name: "feature-2", SHA: "f2"},
	}}
	var out bytes.Buffer

	opts := branchOptions{name: "feature", baseBranch: "main", strategy: "substring"}
	err := provisionWithDeps(context.Background(), testConfig(), remote, target, opts, &out, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"refs/heads/feature-2@m1"}, remote.created)
}

func TestProvisionWithDeps_DefaultConfigStrategy(t *testing.T) {
	branches := []github.Branch{{Name: "master", SHA: "abc123"}, {Name: "feature-2", SHA: "fff000"}}
	var out bytes.Buffer

	remote := &fakeRemote{branches: branches}
	require.NoError(t, provisionWithDeps(context.Background(), appconfig.DefaultConfig(), remote, target, branchOptions{name: "feature"}, &out, logging.Discard()))
	assert.Equal(t, []string{"refs/heads/feature-2@abc123"}, remote.created)

	remote = &fakeRemote{branches: branches}
	opts := branchOptions{name: "feature", strategy: "strict"}
	require.NoError(t, provisionWithDeps(context.Background(), appconfig.DefaultConfig(), remote, target, opts, &out, logging.Discard()))
	assert.Equal(t, []string{"refs/heads/feature-3@abc123"}, remote.created)
}

func TestProvisionWithDeps_NameFromConfig(t *testing.T) {
	remote := &fakeRemote{branches: []github.Branch{{Name: "master", SHA: "abc123"}}}
	cfg := testConfig()
	cfg.Branch.Name = "suggested-change"
	var out bytes.Buffer

	require.NoError(t, provisionWithDeps(context.Background(), cfg, remote, target, branchOptions{}, &out, logging.Discard()))
	assert.Equal(t, []string{"refs/heads/suggested-change@abc123"}, remote.created)
}

func TestProvisionWithDeps_DryRun(t *testing.T) {
	remote := &fakeRemote{branches: []github.Branch{{Name: "master", SHA: "abc123"}}}
	var out bytes.Buffer

	err := provisionWithDeps(context.Background(), testConfig(), remote, target, branchOptions{name: "fix", dryRun: true}, &out, logging.Discard())
	require.NoError(t, err)
	assert.Empty(t, remote.created)
	assert.Equal(t, "Would create branch fix from master (abc123)\n", out.String())
}

func TestProvisionWithDeps_BaseMissingIsSkipped(t *testing.T) {
	remote := &fakeRemote{branches: []github.Branch{{Name: "main", SHA: "abc123"}}}
	var out bytes.Buffer

	err := provisionWithDeps(context.Background(), testConfig(), remote, target, branchOptions{name: "fix"}, &out, logging.Discard())
	require.NoError(t, err)
	assert.Empty(t, remote.created)
	assert.True(t, strings.HasPrefix(out.String(), "Skipping branch creation"), out.String())
}

func TestProvisionWithDeps_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Branch.Name = ""
	var out bytes.Buffer

	err := provisionWithDeps(context.Background(), cfg, &fakeRemote{}, target, branchOptions{}, &out, logging.Discard())
	require.Error(t, err)

	err = provisionWithDeps(context.Background(), testConfig(), &fakeRemote{}, target, branchOptions{name: "x", strategy: "fuzzy"}, &out, logging.Discard())
	require.Error(t, err)

	boom := errors.New("401 bad credentials")
	err = provisionWithDeps(context.Background(), testConfig(), &fakeRemote{listErr: boom}, target, branchOptions{name: "x"}, &out, logging.Discard())
	require.ErrorIs(t, err, boom)
}

func TestRunBranch_SkipsWithoutTarget(t *testing.T) {
	_ = withTempXDG(t)
	withFlags(t, "", "", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out, stderr bytes.Buffer
	require.NoError(t, runBranch(context.Background(), &out, &stderr, []string{"fix"}))
	assert.Contains(t, out.String(), "no target repository configured")
}

func TestRunStatusWithDeps(t *testing.T) {
	env := environment{cfg: appconfig.DefaultConfig(), coords: target, host: "github.com"}

	var out bytes.Buffer
	require.NoError(t, runStatusWithDeps(context.Background(), &out, env, fakeUsers{login: "octocat"}))
	s := out.String()
	assert.Contains(t, s, "Target:      octo/worker")
	assert.Contains(t, s, "Base branch: master")
	assert.Contains(t, s, "authenticated as octocat")

	out.Reset()
	env.coords = branch.Coordinates{}
	require.NoError(t, runStatusWithDeps(context.Background(), &out, env, fakeUsers{err: errors.New("no token")}))
	assert.Contains(t, out.String(), "Target:      not configured")
	assert.Contains(t, out.String(), "not authenticated (no token)")
}

func TestRunAuthSetToken(t *testing.T) {
	stored := map[string]string{}
	store := func(host, token string) error {
		stored[host] = token
		return nil
	}

	var out bytes.Buffer
	require.NoError(t, runAuthSetToken(strings.NewReader("ghp_secret\n"), &out, "github.com", store))
	assert.Equal(t, "ghp_secret", stored["github.com"])
	assert.NotContains(t, out.String(), "ghp_secret")

	require.Error(t, runAuthSetToken(strings.NewReader("\n"), &out, "github.com", store))
}
