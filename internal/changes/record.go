// Package changes merges the per-commit file changes of a pull request into
// one record per path.
package changes

import (
	"strings"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
)

// ChangeType is the normalized kind of a file change.
type ChangeType string

const (
	Add    ChangeType = "add"
	Edit   ChangeType = "edit"
	Delete ChangeType = "delete"
)

// Symbol returns the one-character marker used in tree and list output.
func (t ChangeType) Symbol() string {
	switch t {
	case Add:
		return "+"
	case Delete:
		return "-"
	default:
		return "~"
	}
}

// ParseChangeType normalizes an API change type. The API may report several
// flags at once ("edit, rename"). Anything containing delete is a delete,
// anything else containing add is an add, and every other value is an edit.
func ParseChangeType(raw string) ChangeType {
	var hasAdd bool
	for _, flag := range strings.Split(strings.ToLower(raw), ",") {
		switch strings.TrimSpace(flag) {
		case "delete":
			return Delete
		case "add":
			hasAdd = true
		}
	}
	if hasAdd {
		return Add
	}
	return Edit
}

// ChangeRecord identifies one file-level modification in a pull request.
type ChangeRecord struct {
	// Path starts with a single "/" and has no trailing slash.
	Path       string
	ChangeType ChangeType
	// RawChangeType is the value the API reported, before normalization.
	RawChangeType string
	// SourceURL is empty for deletes.
	SourceURL string
	// OriginalBlobID is empty for adds.
	OriginalBlobID string

	RepositoryName string
	CommitID       string
	PullRequestID  int
}

// NormalizePath returns p with exactly one leading "/" and no trailing "/".
// Repeated separators are collapsed. It returns "" when p has no segments.
func NormalizePath(p string) string {
	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return ""
	}
	return "/" + strings.Join(segments, "/")
}

// newRecord converts a raw API change into a ChangeRecord. ok is false for
// folder entries and entries without a usable path.
func newRecord(change azdevops.RawChange, repo, commitID string, pullRequestID int) (ChangeRecord, bool) {
	if change.Item.IsFolderEntry() {
		return ChangeRecord{}, false
	}

	path := NormalizePath(change.Item.Path)
	if path == "" {
		return ChangeRecord{}, false
	}

	record := ChangeRecord{
		Path:           path,
		ChangeType:     ParseChangeType(change.ChangeType),
		RawChangeType:  change.ChangeType,
		SourceURL:      change.Item.URL,
		OriginalBlobID: change.Item.OriginalObjectID,
		RepositoryName: repo,
		CommitID:       commitID,
		PullRequestID:  pullRequestID,
	}

	// for deletes the API may only report the removed blob as objectId
	if record.OriginalBlobID == "" && record.ChangeType == Delete {
		record.OriginalBlobID = change.Item.ObjectID
	}

	switch record.ChangeType {
	case Add:
		record.OriginalBlobID = ""
	case Delete:
		record.SourceURL = ""
	}

	return record, true
}
