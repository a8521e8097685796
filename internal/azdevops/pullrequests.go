package azdevops

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PullRequest represents a pull request in Azure DevOps
type PullRequest struct {
	ID            int        `json:"pullRequestId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"` // "active", "completed", "abandoned"
	CreationDate  time.Time  `json:"creationDate"`
	SourceRefName string     `json:"sourceRefName"` // e.g., "refs/heads/feature/my-feature"
	TargetRefName string     `json:"targetRefName"` // e.g., "refs/heads/main"
	IsDraft       bool       `json:"isDraft"`
	CreatedBy     Identity   `json:"createdBy"`
	Repository    Repository `json:"repository"`
	Reviewers     []Reviewer `json:"reviewers"`
}

// Reviewer represents a reviewer on a pull request
type Reviewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Vote        int    `json:"vote"` // 10: approved, 5: approved with suggestions, 0: no vote, -5: waiting, -10: rejected
}

// SourceBranchShortName returns the short branch name without the refs/heads/ prefix
func (pr *PullRequest) SourceBranchShortName() string {
	return shortRefName(pr.SourceRefName)
}

// TargetBranchShortName returns the short branch name without the refs/heads/ prefix
func (pr *PullRequest) TargetBranchShortName() string {
	return shortRefName(pr.TargetRefName)
}

// VoteDescription returns a human-readable description of the reviewer's vote
func (r *Reviewer) VoteDescription() string {
	switch r.Vote {
	case VoteApprove:
		return "Approved"
	case VoteApproveWithSuggestions:
		return "Approved with suggestions"
	case VoteNoVote:
		return "No vote"
	case VoteWaitForAuthor:
		return "Waiting for author"
	case VoteReject:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Vote values for pull request reviews
const (
	VoteApprove                = 10  // Approved
	VoteApproveWithSuggestions = 5   // Approved with suggestions
	VoteNoVote                 = 0   // No vote
	VoteWaitForAuthor          = -5  // Waiting for author
	VoteReject                 = -10 // Rejected
)

// mergeStrategyNoFastForward is the numeric "noFastForward" merge strategy.
const mergeStrategyNoFastForward = 1

// ListPullRequests retrieves the active pull requests of one repository.
func (c *Client) ListPullRequests(ctx context.Context, project, repo string) ([]PullRequest, error) {
	query := url.Values{}
	query.Set("searchCriteria.status", "active")

	var response valueResponse[PullRequest]
	if err := c.getJSON(ctx, c.apiURL(repoPath(project, repo)+"/pullrequests", query), "pull requests", &response); err != nil {
		return nil, fmt.Errorf("failed to list pull requests of %s: %w", repo, err)
	}

	return response.Value, nil
}

// CreatePullRequestOptions describes a new pull request.
// Branch names may be given with or without the refs/heads/ prefix.
type CreatePullRequestOptions struct {
	SourceBranch string
	TargetBranch string
	Title        string
	Description  string
	IsDraft      bool
}

// CreatePullRequest opens a new pull request and returns it as created by the server.
func (c *Client) CreatePullRequest(ctx context.Context, project, repo string, opts CreatePullRequestOptions) (*PullRequest, error) {
	if opts.SourceBranch == "" || opts.TargetBranch == "" {
		return nil, fmt.Errorf("source and target branch are required")
	}
	if opts.Title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}

	payload := map[string]any{
		"sourceRefName": fullRefName(opts.SourceBranch),
		"targetRefName": fullRefName(opts.TargetBranch),
		"title":         opts.Title,
		"description":   opts.Description,
		"isDraft":       opts.IsDraft,
	}

	body, err := c.doRequest(ctx, "POST", c.apiURL(repoPath(project, repo)+"/pullrequests", nil), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	var pr PullRequest
	if err := decode(body, "created pull request", &pr); err != nil {
		return nil, err
	}

	return &pr, nil
}

// SetAutoComplete enables auto-complete on behalf of the current user.
// The source branch is deleted on completion and policies are not bypassed.
func (c *Client) SetAutoComplete(ctx context.Context, project, repo string, pullRequestID int) error {
	userID, err := c.GetCurrentUserID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user ID: %w", err)
	}

	payload := map[string]any{
		"autoCompleteSetBy": map[string]string{"id": userID},
		"completionOptions": map[string]any{
			"deleteSourceBranch":  true,
			"mergeStrategy":       mergeStrategyNoFastForward,
			"bypassPolicy":        false,
			"transitionWorkItems": false,
		},
	}

	if _, err := c.doRequest(ctx, "PATCH", c.pullRequestURL(project, repo, pullRequestID), payload); err != nil {
		return fmt.Errorf("failed to set auto-complete: %w", err)
	}

	return nil
}

// AbandonPullRequest sets the pull request status to abandoned.
func (c *Client) AbandonPullRequest(ctx context.Context, project, repo string, pullRequestID int) error {
	payload := map[string]string{"status": "abandoned"}

	if _, err := c.doRequest(ctx, "PATCH", c.pullRequestURL(project, repo, pullRequestID), payload); err != nil {
		return fmt.Errorf("failed to abandon pull request: %w", err)
	}

	return nil
}

// VotePullRequest sets the current user's vote on a pull request
// vote: the vote value (use VoteApprove, VoteReject, etc. constants)
func (c *Client) VotePullRequest(ctx context.Context, project, repo string, pullRequestID int, vote int) error {
	userID, err := c.GetCurrentUserID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user ID: %w", err)
	}

	path := fmt.Sprintf("%s/pullRequests/%d/reviewers/%s", repoPath(project, repo), pullRequestID, url.PathEscape(userID))

	if _, err := c.doRequest(ctx, "PUT", c.apiURL(path, nil), map[string]int{"vote": vote}); err != nil {
		return fmt.Errorf("failed to vote on PR: %w", err)
	}

	return nil
}

// GetCurrentUserID returns the ID of the user the PAT belongs to.
func (c *Client) GetCurrentUserID(ctx context.Context) (string, error) {
	var data connectionData
	if err := c.getJSON(ctx, c.apiURL("_apis/connectionData", nil), "connection data", &data); err != nil {
		return "", err
	}

	if data.AuthenticatedUser.ID == "" {
		return "", fmt.Errorf("connection data did not include an authenticated user")
	}

	return data.AuthenticatedUser.ID, nil
}

// PullRequestWebURL returns the browser URL of a pull request.
func (c *Client) PullRequestWebURL(project, repo string, pullRequestID int) string {
	return c.orgURL + "/" + url.PathEscape(project) + "/_git/" + url.PathEscape(repo) +
		"/pullrequest/" + strconv.Itoa(pullRequestID)
}

func (c *Client) pullRequestURL(project, repo string, pullRequestID int) string {
	return c.apiURL(fmt.Sprintf("%s/pullrequests/%d", repoPath(project, repo), pullRequestID), nil)
}

func fullRefName(branch string) string {
	if strings.HasPrefix(branch, "refs/") {
		return branch
	}
	return "refs/heads/" + branch
}
