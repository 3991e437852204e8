package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	keyring "github.com/zalando/go-keyring"
)

func TestGitHubToken_SetGetDelete(t *testing.T) {
	keyring.MockInit()

	_, err := GetGitHubToken("github.com")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetGitHubToken("github.com", "tok-1"))
	require.NoError(t, SetGitHubToken("ghe.acme.io", "tok-2"))

	got, err := GetGitHubToken("github.com")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	got, err = GetGitHubToken("ghe.acme.io")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, DeleteGitHubToken("github.com"))
	_, err = GetGitHubToken("github.com")
	require.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	require.NoError(t, DeleteGitHubToken("github.com"))
}

func TestSetGitHubToken_RejectsEmpty(t *testing.T) {
	keyring.MockInit()
	require.Error(t, SetGitHubToken("github.com", ""))
}
