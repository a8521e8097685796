package azdevops

import (
	"context"
	"fmt"
	"net/url"
)

// ListCommits retrieves the commits of a pull request in the order the API returns them.
func (c *Client) ListCommits(ctx context.Context, project, repo string, pullRequestID int) ([]CommitRef, error) {
	path := fmt.Sprintf("%s/pullRequests/%d/commits", repoPath(project, repo), pullRequestID)

	var response valueResponse[CommitRef]
	if err := c.getJSON(ctx, c.apiURL(path, nil), "pull request commits", &response); err != nil {
		return nil, fmt.Errorf("failed to list commits of pull request %d: %w", pullRequestID, err)
	}

	if response.Value == nil {
		return []CommitRef{}, nil
	}
	return response.Value, nil
}

// ListCommitChanges retrieves the file and folder changes introduced by one commit.
func (c *Client) ListCommitChanges(ctx context.Context, project, repo, commitID string) ([]RawChange, error) {
	if commitID == "" {
		return nil, fmt.Errorf("commit id cannot be empty")
	}

	path := fmt.Sprintf("%s/commits/%s/changes", repoPath(project, repo), url.PathEscape(commitID))

	var response commitChangesResponse
	if err := c.getJSON(ctx, c.apiURL(path, nil), "commit changes", &response); err != nil {
		return nil, fmt.Errorf("failed to list changes of commit %s: %w", commitID, err)
	}

	if response.Changes == nil {
		return []RawChange{}, nil
	}
	return response.Changes, nil
}

// FetchBlob retrieves the text content of a blob by its object id.
func (c *Client) FetchBlob(ctx context.Context, project, repo, blobID string) (string, error) {
	if blobID == "" {
		return "", fmt.Errorf("blob id cannot be empty")
	}

	path := fmt.Sprintf("%s/blobs/%s", repoPath(project, repo), url.PathEscape(blobID))

	body, err := c.get(ctx, c.apiURL(path, nil), "text/plain")
	if err != nil {
		return "", fmt.Errorf("failed to fetch blob %s: %w", blobID, err)
	}

	return string(body), nil
}

// FetchContent retrieves text content from an absolute URL supplied by a previous response,
// such as GitItem.URL.
func (c *Client) FetchContent(ctx context.Context, contentURL string) (string, error) {
	if contentURL == "" {
		return "", fmt.Errorf("content URL cannot be empty")
	}

	body, err := c.get(ctx, contentURL, "text/plain")
	if err != nil {
		return "", fmt.Errorf("failed to fetch content: %w", err)
	}

	return string(body), nil
}
