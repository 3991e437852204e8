package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the target repository, settings and GitHub authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := loadEnvironment(gitDetector())
		if err != nil {
			return err
		}
		var users userGetter
		client, err := newGitHubClient(ctx, env.host)
		if err == nil {
			users = client
		} else {
			users = failingUsers{err: err}
		}
		return runStatusWithDeps(ctx, cmd.OutOrStdout(), env, users)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type userGetter interface {
	CurrentUser(ctx context.Context) (string, error)
}

type failingUsers struct{ err error }

func (f failingUsers) CurrentUser(context.Context) (string, error) { return "", f.err }

func runStatusWithDeps(ctx context.Context, out io.Writer, env environment, users userGetter) error {
	target := "not configured"
	if env.coords.Complete() {
		target = env.coords.String()
	}
	fmt.Fprintf(out, "Host:        %s\n", env.host)
	fmt.Fprintf(out, "Target:      %s\n", target)
	fmt.Fprintf(out, "Base branch: %s\n", env.cfg.Branch.BaseBranch)
	fmt.Fprintf(out, "Strategy:    %s\n", env.cfg.Branch.Strategy)

	login, err := users.CurrentUser(ctx)
	if err != nil {
		fmt.Fprintf(out, "GitHub:      not authenticated (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "GitHub:      authenticated as %s\n", login)
	return nil
}
