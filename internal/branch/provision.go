// Package branch picks a collision-free branch name on a remote repository
// and creates the branch from the head of a base branch.
package branch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"git-suggester/internal/github"
	"git-suggester/internal/logging"
	"git-suggester/internal/retry"
)

const (
	DefaultBaseBranch   = "master"
	DefaultRaceAttempts = 3
)

// Remote is the hosted Git service the provisioner talks to.
type Remote interface {
	ListBranches(ctx context.Context, owner, repo string) ([]github.Branch, error)
	CreateReference(ctx context.Context, owner, repo, ref, sha string) (github.Reference, error)
}

// Coordinates address a repository on the remote.
type Coordinates struct {
	Owner string
	Repo  string
}

// Complete reports whether both owner and repo are set.
func (c Coordinates) Complete() bool {
	return strings.TrimSpace(c.Owner) != "" && strings.TrimSpace(c.Repo) != ""
}

func (c Coordinates) String() string { return c.Owner + "/" + c.Repo }

// Result is the outcome of a provisioning run. Empty fields mean the run
// was skipped or had nothing to branch from; they are not errors.
type Result struct {
	BaseCommitID string
	BranchName   string
}

// Created reports whether a branch was created (or, for Plan, would be).
func (r Result) Created() bool { return r.BranchName != "" }

type Options struct {
	BaseBranch   string // branch whose head commit is branched from
	Strategy     Strategy
	Retry        retry.Config // applied to each remote call
	RaceAttempts int          // list/resolve/create cycles when the name is taken meanwhile
	Logger       *slog.Logger
}

// Provisioner creates uniquely named branches on a Remote.
type Provisioner struct {
	remote Remote
	opts   Options
}

// NewProvisioner fills unset options with defaults.
func NewProvisioner(remote Remote, opts Options) *Provisioner {
	if opts.BaseBranch == "" {
		opts.BaseBranch = DefaultBaseBranch
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategySubstring
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.RaceAttempts < 1 {
		opts.RaceAttempts = DefaultRaceAttempts
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Provisioner{remote: remote, opts: opts}
}

// Provision lists the branches of coords, resolves a unique name for
// desired, and creates it at the head of the base branch.
//
// Incomplete coordinates or a missing base branch return an empty Result
// and no error. Creating is not idempotent: a second call with the same
// name creates a second branch.
func (p *Provisioner) Provision(ctx context.Context, coords Coordinates, desired string) (Result, error) {
	log := p.opts.Logger
	if !coords.Complete() {
		log.Debug("No target repository configured, skipping branch creation")
		return Result{}, nil
	}

	for cycle := 1; ; cycle++ {
		planned, err := p.plan(ctx, coords, desired)
		if err != nil || !planned.Created() {
			return Result{}, err
		}

		ref, err := p.create(ctx, coords, planned)
		if err == nil {
			url := ref.URL
			if url == "" {
				url = ref.Ref
			}
			log.Info(fmt.Sprintf("Created branch. See %s for more details", url),
				"ref", ref.Ref, "sha", planned.BaseCommitID)
			return Result{
				BaseCommitID: planned.BaseCommitID,
				BranchName:   shortName(ref.Ref, planned.BranchName),
			}, nil
		}
		if errors.Is(err, github.ErrReferenceExists) && cycle < p.opts.RaceAttempts {
			log.Debug("Branch was created concurrently, resolving again",
				"branch", planned.BranchName, "cycle", cycle)
			continue
		}
		return Result{}, err
	}
}

// Plan performs the read-only part of Provision: it returns the name that
// would be created and the commit it would point at, without creating it.
func (p *Provisioner) Plan(ctx context.Context, coords Coordinates, desired string) (Result, error) {
	if !coords.Complete() {
		return Result{}, nil
	}
	return p.plan(ctx, coords, desired)
}

func (p *Provisioner) plan(ctx context.Context, coords Coordinates, desired string) (Result, error) {
	var branches []github.Branch
	err := retry.Do(ctx, p.opts.Retry, func(ctx context.Context) error {
		var err error
		branches, err = p.remote.ListBranches(ctx, coords.Owner, coords.Repo)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("branch: list branches of %s: %w", coords, err)
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	unique := UniqueName(p.opts.Strategy, desired, names)
	p.opts.Logger.Debug("Resolved branch name",
		"desired", desired, "resolved", unique,
		"conflicts", len(Conflicts(p.opts.Strategy, desired, names)))

	for _, b := range branches {
		if b.Name == p.opts.BaseBranch {
			return Result{BaseCommitID: b.SHA, BranchName: unique}, nil
		}
	}
	p.opts.Logger.Debug("Base branch not found", "base", p.opts.BaseBranch, "repo", coords.String())
	return Result{}, nil
}

// create creates the planned branch. Creating a reference is not
// idempotent: an attempt that failed transiently may still have created it,
// in which case the retry reports it as existing. That case is detected by
// looking the branch up again and accepted when it points at the planned
// commit.
func (p *Provisioner) create(ctx context.Context, coords Coordinates, planned Result) (github.Reference, error) {
	refName := "refs/heads/" + planned.BranchName
	var ref github.Reference
	attempts := 0
	err := retry.Do(ctx, p.opts.Retry, func(ctx context.Context) error {
		attempts++
		var err error
		ref, err = p.remote.CreateReference(ctx, coords.Owner, coords.Repo, refName, planned.BaseCommitID)
		return err
	})
	if err != nil && attempts > 1 && errors.Is(err, github.ErrReferenceExists) {
		ours, lookupErr := p.createdEarlier(ctx, coords, planned)
		if lookupErr != nil {
			return github.Reference{}, fmt.Errorf("branch: create %s on %s: %w", planned.BranchName, coords, lookupErr)
		}
		if ours {
			p.opts.Logger.Debug("Branch was created by an earlier attempt",
				"branch", planned.BranchName, "attempts", attempts)
			return github.Reference{Ref: refName}, nil
		}
	}
	if err != nil {
		return github.Reference{}, fmt.Errorf("branch: create %s on %s: %w", planned.BranchName, coords, err)
	}
	return ref, nil
}

// createdEarlier reports whether the planned branch exists at the planned commit.
func (p *Provisioner) createdEarlier(ctx context.Context, coords Coordinates, planned Result) (bool, error) {
	var branches []github.Branch
	err := retry.Do(ctx, p.opts.Retry, func(ctx context.Context) error {
		var err error
		branches, err = p.remote.ListBranches(ctx, coords.Owner, coords.Repo)
		return err
	})
	if err != nil {
		return false, err
	}
	for _, b := range branches {
		if b.Name == planned.BranchName {
			return b.SHA == planned.BaseCommitID, nil
		}
	}
	return false, nil
}

// shortName strips the first two segments of a fully qualified ref
// ("refs/heads/a/b" -> "a/b"). fallback is used when ref is malformed.
func shortName(ref, fallback string) string {
	parts := strings.SplitN(ref, "/", 3)
	if len(parts) < 3 || parts[2] == "" {
		return fallback
	}
	return parts[2]
}
