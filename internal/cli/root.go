package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"git-suggester/internal/branch"
	appconfig "git-suggester/internal/config"
	"git-suggester/internal/git"
	"git-suggester/internal/github"
	"git-suggester/internal/logging"
	"git-suggester/internal/retry"
)

var (
	verbose   bool
	cfgPath   string
	repoOwner string
	repoName  string
	hostName  string
)

var rootCmd = &cobra.Command{
	Use:   "git-suggester",
	Short: "Create uniquely named branches for machine-generated pull requests",
	Long: "git-suggester prepares a target repository for an automated pull request: it picks a branch\n" +
		"name that does not collide with existing branches and creates it from the base branch.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (defaults to the XDG global config)")
	rootCmd.PersistentFlags().StringVar(&repoOwner, "owner", "", "Target repository owner (defaults to config, then the origin remote)")
	rootCmd.PersistentFlags().StringVar(&repoName, "repo", "", "Target repository name (defaults to config, then the origin remote)")
	rootCmd.PersistentFlags().StringVar(&hostName, "host", "", "GitHub host (defaults to config, then the origin remote)")
}

// environment is the resolved configuration shared by all commands.
type environment struct {
	cfg    appconfig.Config
	coords branch.Coordinates
	host   string

	// repoConfig selects the repo-specific config file that was merged.
	repoConfig branch.Coordinates
}

type remoteDetector func(remote string) (git.Remote, error)

// loadEnvironment resolves coordinates and host with the precedence
// flags -> config -> origin remote, and loads the matching config files.
func loadEnvironment(detect remoteDetector) (environment, error) {
	var detected git.Remote
	if detect != nil {
		if r, err := detect("origin"); err == nil {
			detected = r
		}
	}

	pre := branch.Coordinates{
		Owner: firstNonEmpty(repoOwner, detected.Owner),
		Repo:  firstNonEmpty(repoName, detected.Repo),
	}
	cfg, err := appconfig.LoadEffectiveConfig(cfgPath, pre.Owner, pre.Repo)
	if err != nil {
		return environment{}, err
	}

	env := environment{cfg: cfg, repoConfig: pre}
	switch {
	case repoOwner != "" || repoName != "":
		env.coords = branch.Coordinates{Owner: repoOwner, Repo: repoName}
	case cfg.GitHub.WorkerOwner != "" || cfg.GitHub.WorkerRepo != "":
		env.coords = branch.Coordinates{Owner: cfg.GitHub.WorkerOwner, Repo: cfg.GitHub.WorkerRepo}
	default:
		env.coords = branch.Coordinates{Owner: detected.Owner, Repo: detected.Repo}
	}

	env.host = hostName
	if env.host == "" && detected.Host != "" && env.coords.Owner == detected.Owner && env.coords.Repo == detected.Repo {
		env.host = detected.Host
	}
	if env.host == "" {
		env.host = cfg.GitHub.Host
	}
	return env, nil
}

func gitDetector() remoteDetector {
	return git.New().Detect
}

func newLogger(cfg appconfig.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Console: stderr,
		File:    cfg.Logging.File,
		Debug:   verbose || cfg.Logging.Debug,
	})
}

func newGitHubClient(ctx context.Context, host string) (*github.Client, error) {
	token, err := github.NewTokenSource().Token(ctx, host)
	if err != nil {
		return nil, err
	}
	return github.NewClient(ctx, host, token)
}

func retryConfig(cfg appconfig.Config) retry.Config {
	return retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Jitter:      !cfg.Retry.NoJitter,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
