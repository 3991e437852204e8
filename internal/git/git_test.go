package git

import (
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTempRepo(t *testing.T, remotes map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	for name, u := range remotes {
		_, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{u}})
		require.NoError(t, err)
	}
	return dir
}

func TestParseRemoteURL(t *testing.T) {
	cases := []struct {
		in   string
		want Remote
	}{
		{"https://github.com/acme/tool.git", Remote{"github.com", "acme", "tool"}},
		{"https://github.com/acme/tool", Remote{"github.com", "acme", "tool"}},
		{"https://user:pw@ghe.acme.io/team/app.git/", Remote{"ghe.acme.io", "team", "app"}},
		{"ssh://git@github.com:22/acme/tool.git", Remote{"github.com", "acme", "tool"}},
		{"git@github.com:acme/tool.git", Remote{"github.com", "acme", "tool"}},
		{"github.com:acme/tool", Remote{"github.com", "acme", "tool"}},
	}
	for _, tc := range cases {
		got, err := ParseRemoteURL(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRemoteURL_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"/srv/git/tool.git",
		"https://github.com/acme",
		"https://github.com/acme/tool/extra",
		"git@github.com:tool.git",
	} {
		_, err := ParseRemoteURL(in)
		assert.Error(t, err, in)
	}
}

func TestDetect_FromOrigin(t *testing.T) {
	dir := initTempRepo(t, map[string]string{
		"origin":   "git@github.com:octo/worker.git",
		"upstream": "https://github.com/acme/tool.git",
	})

	got, err := NewWithWorkDir(dir).Detect("origin")
	require.NoError(t, err)
	assert.Equal(t, Remote{Host: "github.com", Owner: "octo", Repo: "worker"}, got)

	got, err = NewWithWorkDir(dir).Detect("upstream")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Owner)
}

func TestGetRemoteURL_FromSubdirectory(t *testing.T) {
	dir := initTempRepo(t, map[string]string{"origin": "https://github.com/acme/tool.git"})
	sub := filepath.Join(dir, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	u, err := NewWithWorkDir(sub).GetRemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/tool.git", u)
}

func TestGetRemoteURL_MissingRemote(t *testing.T) {
	dir := initTempRepo(t, nil)
	_, err := NewWithWorkDir(dir).GetRemoteURL("origin")
	require.Error(t, err)
}

func TestGetRemoteURL_NotARepo(t *testing.T) {
	_, err := NewWithWorkDir(t.TempDir()).GetRemoteURL("origin")
	require.Error(t, err)
}
