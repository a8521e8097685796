package azdevops

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ListProjects retrieves all projects in the organization, sorted by name.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var response valueResponse[Project]
	if err := c.getJSON(ctx, c.apiURL("_apis/projects", nil), "projects", &response); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := response.Value
	sort.Slice(projects, func(i, j int) bool {
		return lessFold(projects[i].Name, projects[j].Name)
	})

	return projects, nil
}

// FilterProjects keeps only the projects whose ID is in ids.
// An empty ids list keeps everything.
func FilterProjects(projects []Project, ids []string) []Project {
	if len(ids) == 0 {
		return projects
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	filtered := make([]Project, 0, len(projects))
	for _, p := range projects {
		if wanted[p.ID] {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// ListRepositories retrieves the Git repositories of a project, sorted by name.
func (c *Client) ListRepositories(ctx context.Context, project string) ([]Repository, error) {
	path := url.PathEscape(project) + "/_apis/git/repositories"

	var response valueResponse[Repository]
	if err := c.getJSON(ctx, c.apiURL(path, nil), "repositories", &response); err != nil {
		return nil, fmt.Errorf("failed to list repositories of project %s: %w", project, err)
	}

	repos := response.Value
	sort.Slice(repos, func(i, j int) bool {
		return lessFold(repos[i].Name, repos[j].Name)
	})

	return repos, nil
}

// GetRepository retrieves a single repository by name or ID.
func (c *Client) GetRepository(ctx context.Context, project, repo string) (*Repository, error) {
	var repository Repository
	if err := c.getJSON(ctx, c.apiURL(repoPath(project, repo), nil), "repository", &repository); err != nil {
		return nil, fmt.Errorf("failed to get repository %s: %w", repo, err)
	}

	return &repository, nil
}

// GetDefaultBranch returns the repository's default branch without the refs/heads/ prefix.
func (c *Client) GetDefaultBranch(ctx context.Context, project, repo string) (string, error) {
	repository, err := c.GetRepository(ctx, project, repo)
	if err != nil {
		return "", err
	}

	if repository.DefaultBranch == "" {
		return "", fmt.Errorf("repository %s has no default branch", repo)
	}

	return shortRefName(repository.DefaultBranch), nil
}

// ListBranches returns the short names of all branches in the repository.
func (c *Client) ListBranches(ctx context.Context, project, repo string) ([]string, error) {
	query := url.Values{}
	query.Set("filter", "heads/")

	var response valueResponse[Ref]
	if err := c.getJSON(ctx, c.apiURL(repoPath(project, repo)+"/refs", query), "branches", &response); err != nil {
		return nil, fmt.Errorf("failed to list branches of %s: %w", repo, err)
	}

	branches := make([]string, 0, len(response.Value))
	for _, ref := range response.Value {
		branches = append(branches, ref.ShortName())
	}

	return branches, nil
}

// lessFold orders case-insensitively, falling back to a byte comparison for ties.
func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
