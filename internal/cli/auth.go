package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"git-suggester/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the GitHub token stored in the OS keyring",
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Read a GitHub token from stdin and store it in the keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(gitDetector())
		if err != nil {
			return err
		}
		return runAuthSetToken(cmd.InOrStdin(), cmd.OutOrStdout(), env.host, secrets.SetGitHubToken)
	},
}

var authDeleteTokenCmd = &cobra.Command{
	Use:   "delete-token",
	Short: "Remove the stored GitHub token from the keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(gitDetector())
		if err != nil {
			return err
		}
		if err := secrets.DeleteGitHubToken(env.host); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed token for %s\n", env.host)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetTokenCmd)
	authCmd.AddCommand(authDeleteTokenCmd)
}

func runAuthSetToken(in io.Reader, out io.Writer, host string, store func(host, token string) error) error {
	fmt.Fprintf(out, "GitHub token for %s: ", host)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return errors.New("no token provided")
	}
	if err := store(host, token); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nToken stored in keyring.")
	return nil
}
