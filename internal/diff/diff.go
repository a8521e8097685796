package diff

import (
	"strings"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
	"github.com/Elpulgo/azdo-prtree/internal/changes"
	"github.com/pmezard/go-difflib/difflib"
)

// LineType represents the type of a diff line
type LineType int

const (
	Context LineType = iota
	Added
	Removed
)

// Line represents a single line in a diff
type Line struct {
	Type    LineType
	Content string
	OldNum  int // line number in old file (0 if added)
	NewNum  int // line number in new file (0 if removed)
}

// Hunk represents a contiguous group of changes with surrounding context
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff represents the diff result for a single file
type FileDiff struct {
	Path       string
	ChangeType changes.ChangeType
	Hunks      []Hunk
	// OriginalMissing and ModifiedMissing mark sides that could not be shown.
	OriginalMissing bool
	ModifiedMissing bool
}

// FromPair diffs an assembled pair. A missing side is treated as empty content.
func FromPair(pair Pair, changeType changes.ChangeType, contextLines int) FileDiff {
	return FileDiff{
		Path:            pair.Path,
		ChangeType:      changeType,
		Hunks:           ComputeDiff(pair.Original.Text, pair.Modified.Text, contextLines),
		OriginalMissing: pair.Original.Err != nil,
		ModifiedMissing: pair.Modified.Err != nil,
	}
}

// ComputeDiff computes the diff between old and new content with the given
// number of context lines surrounding each change.
func ComputeDiff(oldContent, newContent string, contextLines int) []Hunk {
	if contextLines < 0 {
		contextLines = 0
	}

	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	matcher := difflib.NewMatcher(oldLines, newLines)

	var hunks []Hunk
	for _, group := range matcher.GetGroupedOpCodes(contextLines) {
		hunks = append(hunks, buildHunk(group, oldLines, newLines))
	}
	return hunks
}

// splitLines splits content into lines, handling empty content
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	// Remove trailing empty string from final newline
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// buildHunk converts one group of difflib opcodes into a Hunk.
func buildHunk(group []difflib.OpCode, oldLines, newLines []string) Hunk {
	var hunk Hunk

	for _, op := range group {
		switch op.Tag {
		case 'e':
			for i := op.I1; i < op.I2; i++ {
				hunk.Lines = append(hunk.Lines, Line{
					Type:    Context,
					Content: oldLines[i],
					OldNum:  i + 1,
					NewNum:  op.J1 + (i - op.I1) + 1,
				})
			}
		case 'd', 'r', 'i':
			for i := op.I1; i < op.I2; i++ {
				hunk.Lines = append(hunk.Lines, Line{Type: Removed, Content: oldLines[i], OldNum: i + 1})
			}
			for j := op.J1; j < op.J2; j++ {
				hunk.Lines = append(hunk.Lines, Line{Type: Added, Content: newLines[j], NewNum: j + 1})
			}
		}
		hunk.OldCount += op.I2 - op.I1
		hunk.NewCount += op.J2 - op.J1
	}

	// unified diff headers point at the line before an empty range
	first := group[0]
	hunk.OldStart = first.I1
	if hunk.OldCount > 0 {
		hunk.OldStart++
	}
	hunk.NewStart = first.J1
	if hunk.NewCount > 0 {
		hunk.NewStart++
	}

	return hunk
}

// MapThreadsToLines maps PR threads to line numbers for a specific file.
// Returns a map from new-file line number to threads at that line.
func MapThreadsToLines(threads []azdevops.Thread, filePath string) map[int][]azdevops.Thread {
	result := make(map[int][]azdevops.Thread)
	for _, thread := range threads {
		if !thread.IsCodeComment() {
			continue
		}
		if changes.NormalizePath(thread.ThreadContext.FilePath) != changes.NormalizePath(filePath) {
			continue
		}
		if thread.ThreadContext.RightFileStart == nil {
			continue
		}
		line := thread.ThreadContext.RightFileStart.Line
		result[line] = append(result[line], thread)
	}
	return result
}

// CountCommentsPerFile counts the comments of code threads, keyed by normalized file path.
func CountCommentsPerFile(threads []azdevops.Thread) map[string]int {
	result := make(map[string]int)
	for _, thread := range threads {
		if !thread.IsCodeComment() {
			continue
		}
		result[changes.NormalizePath(thread.ThreadContext.FilePath)] += len(thread.Comments)
	}
	return result
}

// FilterGeneralThreads returns the threads not attached to a file.
func FilterGeneralThreads(threads []azdevops.Thread) []azdevops.Thread {
	var general []azdevops.Thread
	for _, thread := range threads {
		if !thread.IsCodeComment() {
			general = append(general, thread)
		}
	}
	return general
}

// CountGeneralComments counts the comments in threads not attached to a file.
func CountGeneralComments(threads []azdevops.Thread) int {
	count := 0
	for _, thread := range FilterGeneralThreads(threads) {
		count += len(thread.Comments)
	}
	return count
}
