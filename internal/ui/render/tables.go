package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
)

const dateLayout = "2006-01-02"

func (r *Renderer) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.st.TableBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.st.TableHeader
			}
			return r.st.TableCell
		})
	return t.Render() + "\n"
}

// Projects prints one row per project.
func (r *Renderer) Projects(projects []azdevops.Project) error {
	if len(projects) == 0 {
		return r.write(r.st.Muted.Render("No projects found") + "\n")
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.Name, p.ID, p.State})
	}
	return r.write(r.table([]string{"Project", "ID", "State"}, rows))
}

// Repositories prints one row per repository.
func (r *Renderer) Repositories(repos []azdevops.Repository) error {
	if len(repos) == 0 {
		return r.write(r.st.Muted.Render("No repositories found") + "\n")
	}

	rows := make([][]string, 0, len(repos))
	for _, repo := range repos {
		branch := azdevops.Ref{Name: repo.DefaultBranch}.ShortName()
		rows = append(rows, []string{repo.Name, branch, repo.WebURL})
	}
	return r.write(r.table([]string{"Repository", "Default branch", "URL"}, rows))
}

// Branches prints branch names, marking the default branch.
func (r *Renderer) Branches(branches []string, defaultBranch string) error {
	if len(branches) == 0 {
		return r.write(r.st.Muted.Render("No branches found") + "\n")
	}

	var b strings.Builder
	for _, name := range branches {
		if name == defaultBranch {
			b.WriteString(r.st.Folder.Render("* "+name) + r.st.Muted.Render(" (default)") + "\n")
			continue
		}
		b.WriteString("  " + r.st.Value.Render(name) + "\n")
	}
	return r.write(b.String())
}

// PullRequests prints the active pull requests grouped by repository.
func (r *Renderer) PullRequests(groups []azdevops.RepositoryPullRequests) error {
	if len(groups) == 0 {
		return r.write(r.st.Muted.Render("No active pull requests") + "\n")
	}

	var b strings.Builder
	for i, group := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.st.Title.Render(group.Repository.Name) + "\n")

		rows := make([][]string, 0, len(group.PullRequests))
		for _, pr := range group.PullRequests {
			title := pr.Title
			if pr.IsDraft {
				title = "[draft] " + title
			}
			rows = append(rows, []string{
				strconv.Itoa(pr.ID),
				title,
				pr.CreatedBy.DisplayName,
				pr.SourceBranchShortName() + " → " + pr.TargetBranchShortName(),
				pr.CreationDate.Format(dateLayout),
				reviewSummary(pr.Reviewers),
			})
		}
		b.WriteString(r.table([]string{"ID", "Title", "Author", "Branches", "Created", "Reviews"}, rows))
	}
	return r.write(b.String())
}

// reviewSummary counts approvals and rejections, e.g. "2 approved, 1 rejected".
func reviewSummary(reviewers []azdevops.Reviewer) string {
	var approved, waiting, rejected int
	for _, rv := range reviewers {
		switch {
		case rv.Vote >= azdevops.VoteApproveWithSuggestions:
			approved++
		case rv.Vote == azdevops.VoteWaitForAuthor:
			waiting++
		case rv.Vote == azdevops.VoteReject:
			rejected++
		}
	}

	var parts []string
	if approved > 0 {
		parts = append(parts, fmt.Sprintf("%d approved", approved))
	}
	if waiting > 0 {
		parts = append(parts, fmt.Sprintf("%d waiting", waiting))
	}
	if rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", rejected))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// Threads prints review threads with their location and comments.
func (r *Renderer) Threads(threads []azdevops.Thread) error {
	if len(threads) == 0 {
		return r.write(r.st.Muted.Render("No comments") + "\n")
	}

	var b strings.Builder
	for i, thread := range threads {
		if i > 0 {
			b.WriteString("\n")
		}

		location := "general"
		if thread.IsCodeComment() {
			location = thread.ThreadContext.FilePath
			if pos := thread.ThreadContext.RightFileStart; pos != nil {
				location += ":" + strconv.Itoa(pos.Line)
			}
		}
		b.WriteString(r.st.Label.Render(fmt.Sprintf("#%d [%s]", thread.ID, thread.StatusDescription())) +
			" " + r.st.Folder.Render(location) + "\n")

		for _, comment := range thread.Comments {
			b.WriteString("  " + r.st.Value.Render(comment.Author.DisplayName) +
				r.st.Muted.Render(" "+comment.PublishedDate.Format(dateLayout)) + "\n")
			for _, line := range strings.Split(comment.Content, "\n") {
				b.WriteString("    " + line + "\n")
			}
		}
	}
	return r.write(b.String())
}

// PullRequest prints the header of a single pull request.
func (r *Renderer) PullRequest(pr azdevops.PullRequest, webURL string) error {
	var b strings.Builder
	b.WriteString(r.st.Title.Render(fmt.Sprintf("!%d %s", pr.ID, pr.Title)) + "\n")
	b.WriteString(r.st.Muted.Render(fmt.Sprintf("%s → %s", pr.SourceBranchShortName(), pr.TargetBranchShortName())) + "\n")
	if webURL != "" {
		b.WriteString(r.st.Link.Render(webURL) + "\n")
	}
	return r.write(b.String())
}
