package azdevops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newOverviewServer serves a repository list plus per-repository pull request responses.
// A repository mapped to an empty body answers 500.
func newOverviewServer(t *testing.T, repos string, prs map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/proj/_apis/git/repositories" {
			w.Write([]byte(repos))
			return
		}

		for repo, body := range prs {
			if r.URL.Path == "/proj/_apis/git/repositories/"+repo+"/pullrequests" {
				if body == "" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.Write([]byte(body))
				return
			}
		}

		t.Errorf("unexpected request %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestListRepositoryPullRequests(t *testing.T) {
	server := newOverviewServer(t,
		`{"value": [{"id": "3", "name": "web"}, {"id": "1", "name": "api"}, {"id": "2", "name": "docs"}, {"id": "4", "name": "broken"}]}`,
		map[string]string{
			"web": `{"value": [
				{"pullRequestId": 1, "creationDate": "2024-01-01T00:00:00Z"},
				{"pullRequestId": 2, "creationDate": "2024-02-01T00:00:00Z"}
			]}`,
			"api":    `{"value": [{"pullRequestId": 3, "creationDate": "2024-01-01T00:00:00Z"}]}`,
			"docs":   `{"value": []}`,
			"broken": "",
		})
	defer server.Close()

	client := newTestClient(t, server.URL)

	groups, err := client.ListRepositoryPullRequests(context.Background(), "proj", 2)
	if err != nil {
		t.Fatalf("ListRepositoryPullRequests() error = %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("Expected 2 repositories with pull requests, got %d", len(groups))
	}
	if groups[0].Repository.Name != "api" || groups[1].Repository.Name != "web" {
		t.Errorf("repository order = [%s %s], want [api web]", groups[0].Repository.Name, groups[1].Repository.Name)
	}
	if groups[1].PullRequests[0].ID != 2 {
		t.Errorf("Expected newest pull request first, got %d", groups[1].PullRequests[0].ID)
	}
}

func TestListRepositoryPullRequests_AllFail(t *testing.T) {
	server := newOverviewServer(t,
		`{"value": [{"id": "1", "name": "a"}, {"id": "2", "name": "b"}]}`,
		map[string]string{"a": "", "b": ""})
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ListRepositoryPullRequests(context.Background(), "proj", 0)
	if err == nil {
		t.Fatal("Expected error when every repository fails, got nil")
	}
	if !strings.Contains(err.Error(), "all 2 repositories") {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestListRepositoryPullRequests_RepositoryListFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ListRepositoryPullRequests(context.Background(), "proj", 0)
	if !IsAuthError(err) {
		t.Errorf("Expected *AuthError, got %v", err)
	}
}

func TestListRepositoryPullRequests_NoRepositories(t *testing.T) {
	server := newOverviewServer(t, `{"value": []}`, nil)
	defer server.Close()

	client := newTestClient(t, server.URL)

	groups, err := client.ListRepositoryPullRequests(context.Background(), "proj", 0)
	if err != nil {
		t.Fatalf("ListRepositoryPullRequests() error = %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Expected no groups, got %d", len(groups))
	}
}
