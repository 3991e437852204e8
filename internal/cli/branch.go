package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"git-suggester/internal/branch"
	appconfig "git-suggester/internal/config"
)

var (
	baseBranch string
	strategy   string
	dryRun     bool
)

var branchCmd = &cobra.Command{
	Use:   "branch [NAME]",
	Short: "Create a uniquely named branch on the target repository",
	Long: "Lists the branches of the target repository, picks a name derived from NAME that is not\n" +
		"taken yet, and creates it at the head commit of the base branch.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBranch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func init() {
	branchCmd.Flags().StringVar(&baseBranch, "base-branch", "", "Branch to start from (overrides config)")
	branchCmd.Flags().StringVar(&strategy, "strategy", "", "Name conflict strategy: substring or strict (overrides config)")
	branchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the branch that would be created without creating it")
	rootCmd.AddCommand(branchCmd)
}

func runBranch(ctx context.Context, out, stderr io.Writer, args []string) error {
	env, err := loadEnvironment(gitDetector())
	if err != nil {
		return err
	}
	log, closer, err := newLogger(env.cfg, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	if !env.coords.Complete() {
		fmt.Fprintln(out, "Skipping branch creation: no target repository configured (use --owner/--repo or github.worker_owner/worker_repo).")
		return nil
	}

	client, err := newGitHubClient(ctx, env.host)
	if err != nil {
		return err
	}
	opts := branchOptions{
		name:       firstArg(args),
		baseBranch: baseBranch,
		strategy:   strategy,
		dryRun:     dryRun,
	}
	return provisionWithDeps(ctx, env.cfg, client, env.coords, opts, out, log)
}

// --- dependency injected core for testing ---

type branchOptions struct {
	name       string
	baseBranch string
	strategy   string
	dryRun     bool
}

func provisionWithDeps(
	ctx context.Context,
	cfg appconfig.Config,
	remote branch.Remote,
	coords branch.Coordinates,
	opts branchOptions,
	out io.Writer,
	log *slog.Logger,
) error {
	name := firstNonEmpty(opts.name, cfg.Branch.Name)
	if name == "" {
		return errors.New("branch name is required (pass NAME or set branch.name)")
	}
	strat, err := branch.ParseStrategy(firstNonEmpty(opts.strategy, cfg.Branch.Strategy))
	if err != nil {
		return err
	}
	base := firstNonEmpty(opts.baseBranch, cfg.Branch.BaseBranch)

	p := branch.NewProvisioner(remote, branch.Options{
		BaseBranch:   base,
		Strategy:     strat,
		Retry:        retryConfig(cfg),
		RaceAttempts: cfg.Branch.RaceAttempts,
		Logger:       log,
	})

	var res branch.Result
	if opts.dryRun {
		res, err = p.Plan(ctx, coords, name)
	} else {
		res, err = p.Provision(ctx, coords, name)
	}
	if err != nil {
		return err
	}

	if !res.Created() {
		fmt.Fprintf(out, "Skipping branch creation: base branch %q not found in %s.\n", base, coords)
		return nil
	}
	if opts.dryRun {
		fmt.Fprintf(out, "Would create branch %s from %s (%s)\n", res.BranchName, base, res.BaseCommitID)
		return nil
	}
	fmt.Fprintf(out, "Branch: %s\nBase commit: %s\n", res.BranchName, res.BaseCommitID)
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}
