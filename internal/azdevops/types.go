package azdevops

import (
	"strings"
	"time"
)

// valueResponse is the envelope Azure DevOps uses for list endpoints.
type valueResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// Project represents a team project in Azure DevOps
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	State       string `json:"state"` // "wellFormed", "createPending", ...
}

// Repository represents a Git repository in Azure DevOps
type Repository struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	DefaultBranch string   `json:"defaultBranch"` // e.g., "refs/heads/main"
	WebURL        string   `json:"webUrl"`
	Project       *Project `json:"project,omitempty"`
}

// Ref represents a Git ref such as a branch
type Ref struct {
	Name     string `json:"name"` // e.g., "refs/heads/main"
	ObjectID string `json:"objectId"`
}

// ShortName returns the ref name without the refs/heads/ prefix
func (r Ref) ShortName() string {
	return shortRefName(r.Name)
}

// Identity represents a user identity in Azure DevOps
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"` // typically email
}

// GitUserDate is the author or committer stamp of a commit
type GitUserDate struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// CommitRef is a commit as listed for a pull request.
type CommitRef struct {
	CommitID  string      `json:"commitId"`
	Comment   string      `json:"comment"`
	Author    GitUserDate `json:"author"`
	Committer GitUserDate `json:"committer"`
	URL       string      `json:"url"`
}

// ShortID returns the first 8 characters of the commit id.
func (c CommitRef) ShortID() string {
	if len(c.CommitID) <= 8 {
		return c.CommitID
	}
	return c.CommitID[:8]
}

// GitItem is the item half of a commit change.
type GitItem struct {
	ObjectID         string `json:"objectId"`
	OriginalObjectID string `json:"originalObjectId"`
	GitObjectType    string `json:"gitObjectType"` // "blob" for files, "tree" for folders
	Path             string `json:"path"`
	IsFolder         bool   `json:"isFolder"`
	URL              string `json:"url"`
}

// IsFolderEntry reports whether the item describes a folder rather than a file.
func (i GitItem) IsFolderEntry() bool {
	return i.IsFolder || i.GitObjectType == "tree"
}

// RawChange is one entry of a commit's change list, as returned by the API.
type RawChange struct {
	Item       GitItem `json:"item"`
	ChangeType string  `json:"changeType"` // "add", "edit", "delete", "rename", or a comma-separated combination
}

type commitChangesResponse struct {
	ChangeCounts map[string]int `json:"changeCounts"`
	Changes      []RawChange    `json:"changes"`
}

type connectionData struct {
	AuthenticatedUser Identity `json:"authenticatedUser"`
}

func shortRefName(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
