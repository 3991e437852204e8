package secrets

import (
	"errors"
	"fmt"

	keyring "github.com/zalando/go-keyring"
)

// A single keyring service to store all secrets for git-suggester.
// Keys within the service are namespaced (e.g., "github:<host>").
const serviceName = "git-suggester"

// ErrNotFound is returned when no token is stored for the host.
var ErrNotFound = errors.New("secrets: token not found in keyring")

func githubAccountKey(host string) string {
	return "github:" + host
}

// GetGitHubToken retrieves the API token stored for the given GitHub host.
func GetGitHubToken(host string) (string, error) {
	token, err := keyring.Get(serviceName, githubAccountKey(host))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("secrets: unable to get github token: %w", err)
	}
	if token == "" {
		return "", errors.New("secrets: empty github token in keyring")
	}
	return token, nil
}

// SetGitHubToken stores the API token for the given GitHub host.
func SetGitHubToken(host, token string) error {
	if token == "" {
		return errors.New("secrets: empty github token provided")
	}
	return keyring.Set(serviceName, githubAccountKey(host), token)
}

// DeleteGitHubToken removes the stored token. Deleting a missing token is not an error.
func DeleteGitHubToken(host string) error {
	err := keyring.Delete(serviceName, githubAccountKey(host))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("secrets: unable to delete github token: %w", err)
	}
	return nil
}
