// Package render prints file trees, diffs and listings to a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/Elpulgo/azdo-prtree/internal/changes"
	"github.com/Elpulgo/azdo-prtree/internal/filetree"
	"github.com/Elpulgo/azdo-prtree/internal/ui/styles"
)

// Renderer writes styled output to w.
type Renderer struct {
	w  io.Writer
	st *styles.Styles
}

// New creates a Renderer writing to w with the given styles.
func New(w io.Writer, st *styles.Styles) *Renderer {
	return &Renderer{w: w, st: st}
}

func (r *Renderer) write(s string) error {
	_, err := io.WriteString(r.w, s)
	return err
}

// Tree prints the file tree with box-drawing connectors. comments maps a
// normalized file path to its number of review comments.
func (r *Renderer) Tree(nodes []filetree.Node, comments map[string]int) error {
	var b strings.Builder
	if len(nodes) == 0 {
		b.WriteString(r.st.Muted.Render("No changed files") + "\n")
	}
	r.treeLevel(&b, nodes, "", comments)
	return r.write(b.String())
}

func (r *Renderer) treeLevel(b *strings.Builder, nodes []filetree.Node, prefix string, comments map[string]int) {
	for i, n := range nodes {
		connector, indent := "├── ", "│   "
		if i == len(nodes)-1 {
			connector, indent = "└── ", "    "
		}
		b.WriteString(r.st.Muted.Render(prefix + connector))

		switch n := n.(type) {
		case *filetree.Folder:
			b.WriteString(r.st.Folder.Render(n.Name+"/") + "\n")
			r.treeLevel(b, n.Children, prefix+indent, comments)
		case *filetree.File:
			b.WriteString(r.fileLabel(n, comments) + "\n")
		}
	}
}

func (r *Renderer) fileLabel(f *filetree.File, comments map[string]int) string {
	style := r.st.FileEdit
	switch f.Change.ChangeType {
	case changes.Add:
		style = r.st.FileAdd
	case changes.Delete:
		style = r.st.FileDelete
	}

	label := style.Render(f.Change.ChangeType.Symbol() + " " + f.Name)
	if count := comments[changes.NormalizePath(f.FullPath)]; count > 0 {
		label += "  " + r.st.Comments.Render(pluralize(count, "comment"))
	}
	return label
}

// Summary prints the totals below a tree and warns when commits were skipped.
func (r *Renderer) Summary(result *changes.Result) error {
	var added, edited, deleted int
	for _, record := range result.Changes {
		switch record.ChangeType {
		case changes.Add:
			added++
		case changes.Delete:
			deleted++
		default:
			edited++
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(r.st.Muted.Render(fmt.Sprintf("%s in %s: ", pluralize(len(result.Changes), "file"), pluralize(result.Commits, "commit"))))
	b.WriteString(r.st.FileAdd.Render(fmt.Sprintf("%d added", added)) + ", ")
	b.WriteString(r.st.FileEdit.Render(fmt.Sprintf("%d edited", edited)) + ", ")
	b.WriteString(r.st.LineRemoved.Render(fmt.Sprintf("%d deleted", deleted)) + "\n")

	if result.Partial() {
		b.WriteString(r.st.Error.Render(fmt.Sprintf("Warning: %d of %d commits could not be read; the tree may be incomplete",
			len(result.Skipped), result.Commits)) + "\n")
		if result.AuthFailed() {
			b.WriteString(r.st.Error.Render("Authentication failed for some commits. Run 'azdo-prtree auth' to store a new PAT") + "\n")
		}
	}
	return r.write(b.String())
}

// GeneralComments notes review comments that are not attached to any file.
func (r *Renderer) GeneralComments(n int) error {
	if n == 0 {
		return nil
	}
	return r.write(r.st.Comments.Render(pluralize(n, "general comment")+" on the pull request") + "\n")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
