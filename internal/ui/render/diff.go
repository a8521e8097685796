package render

import (
	"fmt"
	"strings"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
	"github.com/Elpulgo/azdo-prtree/internal/diff"
)

// gutter width of two four-digit line numbers and a separator
const gutterWidth = 9

// Diff prints a unified diff of one file with a line-number gutter. Review
// comments on the new side are printed below the line they refer to.
func (r *Renderer) Diff(fd diff.FileDiff, threads []azdevops.Thread) error {
	var b strings.Builder

	b.WriteString(r.st.Header.Render(fd.ChangeType.Symbol()+" "+fd.Path) + "\n")
	if fd.OriginalMissing {
		b.WriteString(r.st.Error.Render("original content unavailable") + "\n")
	}
	if fd.ModifiedMissing {
		b.WriteString(r.st.Error.Render("modified content unavailable") + "\n")
	}

	if len(fd.Hunks) == 0 {
		b.WriteString(r.st.Muted.Render("  No changes") + "\n")
		return r.write(b.String())
	}

	lineThreads := diff.MapThreadsToLines(threads, fd.Path)

	for _, hunk := range fd.Hunks {
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk.OldStart, hunk.OldCount, hunk.NewStart, hunk.NewCount)
		b.WriteString(r.st.HunkHeader.Render(header) + "\n")

		for _, line := range hunk.Lines {
			b.WriteString(r.diffLine(line) + "\n")

			if line.Type == diff.Removed {
				continue
			}
			if found, ok := lineThreads[line.NewNum]; ok {
				for _, thread := range found {
					r.threadComments(&b, thread)
				}
				// a line shown twice must not repeat its comments
				delete(lineThreads, line.NewNum)
			}
		}
	}

	return r.write(b.String())
}

func (r *Renderer) diffLine(line diff.Line) string {
	num := func(n int) string {
		if n == 0 {
			return "    "
		}
		return fmt.Sprintf("%4d", n)
	}
	gutter := r.st.LineNumber.Render(num(line.OldNum)) + " " + r.st.LineNumber.Render(num(line.NewNum))

	switch line.Type {
	case diff.Added:
		return gutter + r.st.LineAdded.Render(" +"+line.Content)
	case diff.Removed:
		return gutter + r.st.LineRemoved.Render(" -"+line.Content)
	default:
		return gutter + "  " + r.st.LineContext.Render(line.Content)
	}
}

func (r *Renderer) threadComments(b *strings.Builder, thread azdevops.Thread) {
	pad := strings.Repeat(" ", gutterWidth+2)
	for i, comment := range thread.Comments {
		marker := "» "
		if i > 0 {
			marker = "  └ "
		}
		text := fmt.Sprintf("%s: %s", comment.Author.DisplayName, comment.Content)
		lines := strings.Split(text, "\n")
		for j, l := range lines {
			if j == 0 {
				lines[j] = pad + marker + l
			} else {
				lines[j] = pad + strings.Repeat(" ", len([]rune(marker))) + l
			}
		}
		b.WriteString(r.st.Comments.Render(strings.Join(lines, "\n")) + "\n")
	}
}
