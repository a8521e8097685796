package changes

import (
	"context"
	"fmt"
	"sort"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
)

// CommitSource is the part of the Azure DevOps client the aggregator needs.
type CommitSource interface {
	ListCommits(ctx context.Context, project, repo string, pullRequestID int) ([]azdevops.CommitRef, error)
	ListCommitChanges(ctx context.Context, project, repo, commitID string) ([]azdevops.RawChange, error)
}

// SkippedCommit is a commit whose changes could not be fetched.
type SkippedCommit struct {
	CommitID string
	Err      error
}

// Result is the outcome of one aggregation.
type Result struct {
	// Changes holds one record per normalized path.
	Changes map[string]ChangeRecord
	// Skipped lists commits that contributed nothing because their change fetch failed.
	Skipped []SkippedCommit
	// Commits is the number of commits the pull request has.
	Commits int
}

// Partial reports whether any commit was skipped.
func (r *Result) Partial() bool {
	return len(r.Skipped) > 0
}

// Err combines the errors of skipped commits. It is nil for a complete result.
func (r *Result) Err() error {
	var err error
	for _, s := range r.Skipped {
		err = multierr.Append(err, fmt.Errorf("commit %s: %w", s.CommitID, s.Err))
	}
	return err
}

// AuthFailed reports whether any commit was skipped because the PAT was rejected.
func (r *Result) AuthFailed() bool {
	for _, s := range r.Skipped {
		if azdevops.IsAuthError(s.Err) {
			return true
		}
	}
	return false
}

// Paths returns the aggregated paths in ascending order.
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.Changes))
	for p := range r.Changes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Aggregator builds the deduplicated change set of a pull request.
type Aggregator struct {
	source CommitSource
	logger zerolog.Logger
}

// NewAggregator creates an Aggregator reading from source.
func NewAggregator(source CommitSource, logger zerolog.Logger) *Aggregator {
	return &Aggregator{source: source, logger: logger}
}

// Aggregate fetches the pull request's commits, then every commit's changes
// concurrently, and merges them keyed by path. The first commit in API order
// that touches a path wins. A failure to list commits fails the whole call;
// a failure to fetch one commit's changes only skips that commit. A cancelled
// ctx returns ctx.Err() instead of a result.
func (a *Aggregator) Aggregate(ctx context.Context, project, repo string, pullRequestID int) (*Result, error) {
	commits, err := a.source.ListCommits(ctx, project, repo, pullRequestID)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("repository", repo).
		Int("pull_request", pullRequestID).
		Int("commits", len(commits)).
		Msg("aggregating pull request changes")

	type fetched struct {
		changes []azdevops.RawChange
		err     error
	}

	// slot per commit so the merge below follows API order regardless of completion order
	results := make([]fetched, len(commits))

	var wg conc.WaitGroup
	for i, commit := range commits {
		wg.Go(func() {
			changes, err := a.source.ListCommitChanges(ctx, project, repo, commit.CommitID)
			results[i] = fetched{changes: changes, err: err}
		})
	}
	wg.Wait()

	// cancellation is not a per-commit failure
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Changes: make(map[string]ChangeRecord),
		Commits: len(commits),
	}

	for i, commit := range commits {
		if err := results[i].err; err != nil {
			a.logger.Warn().Err(err).Str("commit", commit.ShortID()).Msg("skipping commit, changes unavailable")
			result.Skipped = append(result.Skipped, SkippedCommit{CommitID: commit.CommitID, Err: err})
			continue
		}

		for _, change := range results[i].changes {
			record, ok := newRecord(change, repo, commit.CommitID, pullRequestID)
			if !ok {
				continue
			}
			if _, seen := result.Changes[record.Path]; seen {
				continue
			}
			result.Changes[record.Path] = record
		}
	}

	return result, nil
}
