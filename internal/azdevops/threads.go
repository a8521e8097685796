package azdevops

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Thread represents a comment thread on a pull request
type Thread struct {
	ID              int            `json:"id"`
	PublishedDate   time.Time      `json:"publishedDate"`
	LastUpdatedDate time.Time      `json:"lastUpdatedDate"`
	Status          string         `json:"status"` // "active", "fixed", "wontFix", "closed", "pending"
	ThreadContext   *ThreadContext `json:"threadContext"`
	Comments        []Comment      `json:"comments"`
	IsDeleted       bool           `json:"isDeleted"`
}

// ThreadContext contains location information for code comments
type ThreadContext struct {
	FilePath       string        `json:"filePath"`
	RightFileStart *FilePosition `json:"rightFileStart"`
	RightFileEnd   *FilePosition `json:"rightFileEnd"`
}

// FilePosition represents a position in a file
type FilePosition struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// Comment represents a single comment in a thread
type Comment struct {
	ID              int       `json:"id"`
	ParentCommentID int       `json:"parentCommentId"`
	Content         string    `json:"content"`
	PublishedDate   time.Time `json:"publishedDate"`
	LastUpdatedDate time.Time `json:"lastUpdatedDate"`
	CommentType     string    `json:"commentType"` // "text", "system"
	Author          Identity  `json:"author"`
}

// IsCodeComment returns true if this thread is attached to a specific code location
func (t *Thread) IsCodeComment() bool {
	return t.ThreadContext != nil && t.ThreadContext.FilePath != ""
}

// LatestCommentDate returns the publish date of the newest comment, or the
// thread's own publish date when it has no comments.
func (t *Thread) LatestCommentDate() time.Time {
	latest := t.PublishedDate
	for _, c := range t.Comments {
		if c.PublishedDate.After(latest) {
			latest = c.PublishedDate
		}
	}
	return latest
}

// StatusDescription returns a human-readable description of the thread status
func (t *Thread) StatusDescription() string {
	switch t.Status {
	case "active":
		return "Active"
	case "fixed":
		return "Resolved"
	case "wontFix":
		return "Won't fix"
	case "closed":
		return "Closed"
	case "pending":
		return "Pending"
	default:
		return "Unknown"
	}
}

// ListThreads retrieves the human comment threads of a pull request.
// Deleted and system threads are dropped. Threads are ordered by their newest
// comment, most recent first, and comments inside a thread newest first.
func (c *Client) ListThreads(ctx context.Context, project, repo string, pullRequestID int) ([]Thread, error) {
	path := fmt.Sprintf("%s/pullRequests/%d/threads", repoPath(project, repo), pullRequestID)

	var response valueResponse[Thread]
	if err := c.getJSON(ctx, c.apiURL(path, nil), "PR threads", &response); err != nil {
		return nil, fmt.Errorf("failed to get PR threads: %w", err)
	}

	threads := make([]Thread, 0, len(response.Value))
	for _, t := range FilterSystemThreads(response.Value) {
		if !t.IsDeleted {
			threads = append(threads, t)
		}
	}

	SortThreads(threads)
	return threads, nil
}

// SortThreads orders threads and their comments newest first, in place.
func SortThreads(threads []Thread) {
	for i := range threads {
		comments := threads[i].Comments
		sort.SliceStable(comments, func(a, b int) bool {
			return comments[a].PublishedDate.After(comments[b].PublishedDate)
		})
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LatestCommentDate().After(threads[j].LatestCommentDate())
	})
}

// AddComment starts a new active thread on a pull request with a single text comment.
func (c *Client) AddComment(ctx context.Context, project, repo string, pullRequestID int, content string) (*Thread, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("comment cannot be empty")
	}

	path := fmt.Sprintf("%s/pullRequests/%d/threads", repoPath(project, repo), pullRequestID)

	payload := map[string]any{
		"comments": []map[string]any{
			{
				"parentCommentId": 0,
				"content":         content,
				"commentType":     "text",
			},
		},
		"status": "active",
	}

	body, err := c.doRequest(ctx, "POST", c.apiURL(path, nil), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to add PR comment: %w", err)
	}

	var thread Thread
	if err := decode(body, "thread", &thread); err != nil {
		return nil, err
	}

	return &thread, nil
}

// FilterSystemThreads filters out threads that are system-generated comments
// (e.g., threads whose first comment starts with "Microsoft.VisualStudio")
func FilterSystemThreads(threads []Thread) []Thread {
	filtered := make([]Thread, 0, len(threads))
	for _, thread := range threads {
		if !isSystemThread(thread) {
			filtered = append(filtered, thread)
		}
	}
	return filtered
}

func isSystemThread(thread Thread) bool {
	for _, comment := range thread.Comments {
		if comment.CommentType == "system" {
			return true
		}
		if strings.HasPrefix(comment.Author.DisplayName, "Microsoft.VisualStudio") {
			return true
		}
		content := strings.TrimSpace(comment.Content)
		if strings.HasPrefix(content, "Microsoft.VisualStudio") {
			return true
		}
		if strings.Contains(content, "Policy status has been updated") {
			return true
		}
		if isVotedComment(content) {
			return true
		}
	}
	return false
}

// isVotedComment matches vote notifications such as "Jane Smith voted -5".
func isVotedComment(content string) bool {
	idx := strings.Index(content, "voted")
	if idx == -1 {
		return false
	}
	after := strings.TrimSpace(content[idx+len("voted"):])
	after = strings.TrimPrefix(after, "-")
	return len(after) > 0 && after[0] >= '0' && after[0] <= '9'
}
