package azdevops

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultOverviewConcurrency bounds how many repositories are queried at once.
const DefaultOverviewConcurrency = 8

// RepositoryPullRequests groups the active pull requests of one repository.
type RepositoryPullRequests struct {
	Repository   Repository
	PullRequests []PullRequest
}

// ListRepositoryPullRequests lists every repository in the project and fetches
// their active pull requests concurrently. A repository whose pull requests
// cannot be fetched is logged and skipped, and repositories without pull
// requests are omitted. Only a failure to list the repositories is returned.
func (c *Client) ListRepositoryPullRequests(ctx context.Context, project string, concurrency int) ([]RepositoryPullRequests, error) {
	repos, err := c.ListRepositories(ctx, project)
	if err != nil {
		return nil, err
	}

	if concurrency <= 0 {
		concurrency = DefaultOverviewConcurrency
	}

	var (
		mu      sync.Mutex
		results []RepositoryPullRequests
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, repo := range repos {
		g.Go(func() error {
			prs, err := c.ListPullRequests(gctx, project, repo.Name)
			if err != nil {
				c.logger.Warn().Err(err).Str("repository", repo.Name).Msg("skipping repository")
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			if len(prs) == 0 {
				return nil
			}

			mu.Lock()
			results = append(results, RepositoryPullRequests{Repository: repo, PullRequests: prs})
			mu.Unlock()
			return nil
		})
	}

	// goroutines never return errors, failures are per repository
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if failed > 0 && failed == len(repos) {
		return nil, fmt.Errorf("failed to list pull requests for all %d repositories in %s", failed, project)
	}

	sort.Slice(results, func(i, j int) bool {
		return lessFold(results[i].Repository.Name, results[j].Repository.Name)
	})

	for _, r := range results {
		prs := r.PullRequests
		sort.Slice(prs, func(i, j int) bool {
			return prs[i].CreationDate.After(prs[j].CreationDate)
		})
	}

	return results, nil
}
