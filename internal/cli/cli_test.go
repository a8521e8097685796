package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elpulgo/azdo-prtree/internal/azdevops"
	"github.com/Elpulgo/azdo-prtree/internal/config"
	"github.com/Elpulgo/azdo-prtree/internal/ui/patinput"
	"github.com/Elpulgo/azdo-prtree/internal/ui/styles"
	"github.com/Elpulgo/azdo-prtree/internal/version"
)

// memCredentials is an in-memory config.CredentialProvider.
type memCredentials struct {
	pat string
}

func (m *memCredentials) GetPAT() (string, error) {
	if m.pat == "" {
		return "", config.ErrNotFound
	}
	return m.pat, nil
}

func (m *memCredentials) SetPAT(token string) error {
	m.pat = token
	return nil
}

func (m *memCredentials) DeletePAT() error {
	m.pat = ""
	return nil
}

type harness struct {
	app        *App
	out        *bytes.Buffer
	errOut     *bytes.Buffer
	creds      *memCredentials
	configPath string
}

func newHarness(t *testing.T, orgURL string) *harness {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if orgURL != "" {
		content := fmt.Sprintf("organization_url: %s\nproject: proj\n", orgURL)
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	}

	h := &harness{
		out:        &bytes.Buffer{},
		errOut:     &bytes.Buffer{},
		creds:      &memCredentials{pat: "test-pat"},
		configPath: configPath,
	}
	h.app = &App{
		In:            strings.NewReader(""),
		Out:           h.out,
		Err:           h.errOut,
		Build:         version.Info{Version: "1.2.3", Commit: "abc", Date: "today"},
		Credentials:   h.creds,
		ClientOptions: []azdevops.Option{azdevops.WithRetryWait(time.Millisecond, 2*time.Millisecond)},
	}
	return h
}

func (h *harness) run(args ...string) error {
	return h.app.Execute(context.Background(), append([]string{"--config", h.configPath}, args...))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// newPRServer serves a pull request with two commits in repository "web" of project "proj".
func newPRServer(t *testing.T) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{}
	mux := http.NewServeMux()
	base := "/proj/_apis/git/repositories/web"

	mux.HandleFunc("GET "+base+"/pullRequests/42/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"value": []map[string]any{
			{"commitId": "c1000000"},
			{"commitId": "c2000000"},
		}})
	})
	mux.HandleFunc("GET "+base+"/commits/c1000000/changes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"changes": []map[string]any{
			{"changeType": "add", "item": map[string]any{"path": "/src", "isFolder": true}},
			{"changeType": "add", "item": map[string]any{"path": "/src/a.ts", "gitObjectType": "blob", "objectId": "n1", "url": "http://" + r.Host + "/content/a.ts"}},
		}})
	})
	mux.HandleFunc("GET "+base+"/commits/c2000000/changes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"changes": []map[string]any{
			{"changeType": "edit", "item": map[string]any{"path": "/src/a.ts", "objectId": "n2", "originalObjectId": "n1", "url": "http://" + r.Host + "/content/a2.ts"}},
			{"changeType": "delete", "item": map[string]any{"path": "/old.txt", "objectId": "gone"}},
		}})
	})
	mux.HandleFunc("GET /content/a.ts", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "hello\n")
	})
	mux.HandleFunc("GET "+base+"/blobs/gone", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "bye\n")
	})
	mux.HandleFunc("GET "+base+"/pullRequests/42/threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"value": []map[string]any{
			{
				"id":            1,
				"status":        "active",
				"threadContext": map[string]any{"filePath": "/src/a.ts", "rightFileStart": map[string]any{"line": 1, "offset": 1}},
				"comments":      []map[string]any{{"id": 1, "content": "nice greeting", "commentType": "text", "author": map[string]any{"displayName": "Ada"}}},
			},
			{
				"id":       2,
				"status":   "active",
				"comments": []map[string]any{{"id": 2, "content": "LGTM overall", "commentType": "text", "author": map[string]any{"displayName": "Grace"}}},
			},
		}})
	})
	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "r1", "name": "web", "defaultBranch": "refs/heads/main"})
	})
	mux.HandleFunc("GET /_apis/connectionData", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"authenticatedUser": map[string]any{"id": "user-1"}})
	})
	mux.HandleFunc("POST "+base+"/pullrequests", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		writeJSON(w, map[string]any{"pullRequestId": 77, "title": "t"})
	})
	mux.HandleFunc("PATCH "+base+"/pullrequests/77", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		writeJSON(w, map[string]any{"pullRequestId": 77})
	})
	mux.HandleFunc("PUT "+base+"/pullRequests/42/reviewers/user-1", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		writeJSON(w, map[string]any{"vote": 10})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, log
}

type requestLog struct {
	mu       sync.Mutex
	requests []string
	bodies   []map[string]any
}

func (l *requestLog) record(r *http.Request) {
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, r.Method+" "+r.URL.Path)
	l.bodies = append(l.bodies, body)
}

func TestPRTree(t *testing.T) {
	server, _ := newPRServer(t)
	h := newHarness(t, server.URL)

	require.NoError(t, h.run("pr", "tree", "42", "--repo", "web"))

	out := h.out.String()
	assert.Contains(t, out, "├── src/")
	assert.Contains(t, out, "+ a.ts")
	assert.Contains(t, out, "1 comment")
	assert.Contains(t, out, "└── - old.txt")
	assert.Contains(t, out, "2 files in 2 commits")
	assert.Contains(t, out, "1 added")
	assert.Contains(t, out, "1 deleted")
	assert.Contains(t, out, "1 general comment on the pull request")
	assert.NotContains(t, out, "Warning")
}

func TestPRTree_NoComments(t *testing.T) {
	server, _ := newPRServer(t)
	h := newHarness(t, server.URL)

	require.NoError(t, h.run("pr", "tree", "42", "--repo", "web", "--no-comments"))

	out := h.out.String()
	assert.Contains(t, out, "+ a.ts")
	assert.NotContains(t, out, "comment")
}

func TestPRDiff_SingleFile(t *testing.T) {
	server, _ := newPRServer(t)
	h := newHarness(t, server.URL)

	require.NoError(t, h.run("pr", "diff", "42", "--repo", "web", "--path", "src/a.ts"))

	out := h.out.String()
	assert.Contains(t, out, "+ /src/a.ts")
	assert.Contains(t, out, "@@ -0,0 +1,1 @@")
	assert.Contains(t, out, " +hello")
	assert.Contains(t, out, "Ada: nice greeting")
	assert.NotContains(t, out, "old.txt")
}

func TestPRDiff_AllFiles(t *testing.T) {
	server, _ := newPRServer(t)
	h := newHarness(t, server.URL)

	require.NoError(t, h.run("pr", "diff", "42", "-r", "web"))

	out := h.out.String()
	assert.Contains(t, out, " +hello")
	assert.Contains(t, out, " -bye")
	// tree order: folders first
	assert.Less(t, strings.Index(out, "/src/a.ts"), strings.Index(out, "/old.txt"))
}

func TestPRDiff_UnknownPath(t *testing.T) {
	server, _ := newPRServer(t)
	h := newHarness(t, server.URL)

	err := h.run("pr", "diff", "42", "--repo", "web", "--path", "/nope.go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nope.go is not changed in pull request 42")
}

func TestPRCreate(t *testing.T) {
	server, log := newPRServer(t)
	h := newHarness(t, server.URL)

	require.NoError(t, h.run("pr", "create", "--repo", "web", "--source", "feature/x", "--title", "Add x", "--draft", "--auto-complete"))

	out := h.out.String()
	assert.Contains(t, out, "Created pull request !77")
	assert.Contains(t, out, "Auto-complete enabled.")
	assert.Contains(t, out, server.URL+"/proj/_git/web/pullrequest/77")

	require.Len(t, log.bodies, 2)
	assert.Equal(t, "refs/heads/feature/x", log.bodies[0]["sourceRefName"])
	assert.Equal(t, "refs/heads/main", log.bodies[0]["targetRefName"], "target defaults to the repository's default branch")
	assert.Equal(t, true, log.bodies[0]["isDraft"])
	assert.Equal(t, "PATCH /proj/_apis/git/repositories/web/pullrequests/77", log.requests[1])
}

func TestPRCreate_RequiresFlags(t *testing.T) {
	h := newHarness(t, "https://dev.azure.com/org")

	err := h.run("pr", "create", "--repo", "web", "--title", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source")
}

func TestPRApprove(t *testing.T) {
	server, log := newPRServer(t)
	h := newHarness(t, server.URL)

	require.NoError(t, h.run("pr", "approve", "!42", "--repo", "web"))

	assert.Contains(t, h.out.String(), `Voted "Approved" on pull request !42`)
	require.Len(t, log.bodies, 1)
	assert.Equal(t, float64(azdevops.VoteApprove), log.bodies[0]["vote"])
}

func TestPRURL(t *testing.T) {
	h := newHarness(t, "https://dev.azure.com/org")

	require.NoError(t, h.run("pr", "url", "5", "--repo", "web", "--project", "other"))
	assert.Equal(t, "https://dev.azure.com/org/other/_git/web/pullrequest/5\n", h.out.String())
}

func TestPRCommands_Validation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "invalid id", args: []string{"pr", "tree", "abc", "--repo", "web"}, wantErr: `invalid pull request ID "abc"`},
		{name: "zero id", args: []string{"pr", "url", "0", "--repo", "web"}, wantErr: "invalid pull request ID"},
		{name: "missing repo", args: []string{"pr", "tree", "1"}, wantErr: `"repo" not set`},
		{name: "missing id", args: []string{"pr", "tree", "--repo", "web"}, wantErr: "accepts 1 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "https://dev.azure.com/org")

			err := h.run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSession_Errors(t *testing.T) {
	t.Run("no config file", func(t *testing.T) {
		h := newHarness(t, "")

		err := h.run("repos")
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrConfigNotFound)
	})

	t.Run("no PAT", func(t *testing.T) {
		h := newHarness(t, "https://dev.azure.com/org")
		h.creds.pat = ""

		err := h.run("repos")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "azdo-prtree auth")
		assert.Contains(t, err.Error(), config.PATEnvVar)
	})

	t.Run("no project", func(t *testing.T) {
		h := newHarness(t, "https://dev.azure.com/org")
		require.NoError(t, os.WriteFile(h.configPath, []byte("organization_url: https://dev.azure.com/org\n"), 0644))

		err := h.run("repos")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no project selected")
	})
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		check   func(t *testing.T, err error)
		wantMsg string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.True(t, azdevops.IsAuthError(err))
			},
			wantMsg: "azdo-prtree auth",
		},
		{
			name:   "not found gets a hint",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.True(t, azdevops.IsNotFound(err))
			},
			wantMsg: "Hint: Check the --project and --repo values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(server.Close)
			h := newHarness(t, server.URL)

			err := h.run("repos")
			require.Error(t, err)
			tt.check(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestListingCommands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/_apis/projects":
			writeJSON(w, map[string]any{"value": []map[string]any{
				{"id": "p1", "name": "Alpha", "state": "wellFormed"},
				{"id": "p2", "name": "Beta", "state": "wellFormed"},
			}})
		case "/proj/_apis/git/repositories":
			writeJSON(w, map[string]any{"value": []map[string]any{
				{"id": "r1", "name": "web", "defaultBranch": "refs/heads/main"},
			}})
		case "/proj/_apis/git/repositories/web/refs":
			writeJSON(w, map[string]any{"value": []map[string]any{
				{"name": "refs/heads/develop"},
				{"name": "refs/heads/main"},
			}})
		case "/proj/_apis/git/repositories/web":
			writeJSON(w, map[string]any{"id": "r1", "name": "web", "defaultBranch": "refs/heads/main"})
		case "/proj/_apis/git/repositories/web/pullrequests":
			writeJSON(w, map[string]any{"value": []map[string]any{
				{"pullRequestId": 9, "title": "Fix header", "sourceRefName": "refs/heads/fix", "targetRefName": "refs/heads/main", "createdBy": map[string]any{"displayName": "Ada"}},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "projects", args: []string{"projects"}, want: []string{"Alpha", "Beta"}},
		{name: "repos", args: []string{"repos"}, want: []string{"web", "main"}},
		{name: "branches", args: []string{"branches", "web"}, want: []string{"  develop", "* main (default)"}},
		{name: "prs", args: []string{"prs"}, want: []string{"web", "Fix header", "Ada", "fix → main"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, server.URL)

			require.NoError(t, h.run(tt.args...))
			for _, want := range tt.want {
				assert.Contains(t, h.out.String(), want)
			}
		})
	}
}

func TestProjects_ConfigFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"value": []map[string]any{
			{"id": "p1", "name": "Alpha"},
			{"id": "p2", "name": "Beta"},
		}})
	}))
	t.Cleanup(server.Close)

	h := newHarness(t, server.URL)
	content := fmt.Sprintf("organization_url: %s\nprojects:\n  - p2\n", server.URL)
	require.NoError(t, os.WriteFile(h.configPath, []byte(content), 0644))

	require.NoError(t, h.run("projects"))
	assert.NotContains(t, h.out.String(), "Alpha")
	assert.Contains(t, h.out.String(), "Beta")

	h.out.Reset()
	require.NoError(t, h.run("projects", "--all"))
	assert.Contains(t, h.out.String(), "Alpha")
}

func TestAuth(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		h := newHarness(t, "")
		h.creds.pat = ""
		h.app.In = strings.NewReader("  new-token  \n")

		require.NoError(t, h.run("auth", "--stdin"))
		assert.Equal(t, "new-token", h.creds.pat)
		assert.Contains(t, h.out.String(), "PAT saved successfully")
	})

	t.Run("stdin empty", func(t *testing.T) {
		h := newHarness(t, "")

		require.Error(t, h.run("auth", "--stdin"))
		assert.Equal(t, "test-pat", h.creds.pat)
	})

	t.Run("prompt replaces existing", func(t *testing.T) {
		h := newHarness(t, "")
		var intro string
		h.app.Prompt = func(_ io.Reader, _ io.Writer, text string, _ *styles.Styles) (string, error) {
			intro = text
			return "prompted", nil
		}

		require.NoError(t, h.run("auth"))
		assert.Equal(t, "prompted", h.creds.pat)
		assert.Contains(t, intro, "replace your existing")
	})

	t.Run("prompt cancelled", func(t *testing.T) {
		h := newHarness(t, "")
		h.app.Prompt = func(io.Reader, io.Writer, string, *styles.Styles) (string, error) {
			return "", patinput.ErrCancelled
		}

		require.NoError(t, h.run("auth"))
		assert.Equal(t, "test-pat", h.creds.pat)
		assert.Contains(t, h.out.String(), "Cancelled")
	})

	t.Run("remove", func(t *testing.T) {
		h := newHarness(t, "")

		require.NoError(t, h.run("auth", "--remove"))
		assert.Empty(t, h.creds.pat)
	})
}

func TestConfigure(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.run("configure", "--org", "https://dev.azure.com/contoso/", "--project", "web", "--theme", "nord"))
	assert.Contains(t, h.out.String(), "Configuration saved to "+h.configPath)

	cfg, err := config.LoadFrom(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, "https://dev.azure.com/contoso", cfg.OrganizationURL)
	assert.Equal(t, "web", cfg.Project)
	assert.Equal(t, "nord", cfg.Theme)
	assert.Equal(t, config.DefaultAPIVersion, cfg.APIVersion)

	// later runs only change the given flags
	require.NoError(t, h.run("configure", "--api-version", "7.1"))
	cfg, err = config.LoadFrom(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, "7.1", cfg.APIVersion)
	assert.Equal(t, "web", cfg.Project)
}

func TestConfigure_Errors(t *testing.T) {
	h := newHarness(t, "")

	err := h.run("configure", "--org", "https://dev.azure.com/contoso", "--theme", "neon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown theme "neon"`)

	err = h.run("configure", "--project", "web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organization_url cannot be empty")
}

func TestVersion(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.run("version"))
	assert.Equal(t, "azdo-prtree version 1.2.3 (commit: abc, built: today)\n", h.out.String())
}

func TestVersion_Check(t *testing.T) {
	tests := []struct {
		name string
		info *version.UpdateInfo
		err  error
		want string
	}{
		{
			name: "update available",
			info: &version.UpdateInfo{UpdateAvailable: true, LatestVersion: "v2.0.0", ReleaseURL: "https://example.com/v2"},
			want: "A newer version is available: v2.0.0",
		},
		{name: "up to date", info: &version.UpdateInfo{}, want: "You are running the latest version."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")
			h.app.CheckUpdate = func(context.Context, string) (*version.UpdateInfo, error) {
				return tt.info, tt.err
			}

			require.NoError(t, h.run("version", "--check"))
			assert.Contains(t, h.out.String(), tt.want)
		})
	}

	t.Run("check fails", func(t *testing.T) {
		h := newHarness(t, "")
		h.app.CheckUpdate = func(context.Context, string) (*version.UpdateInfo, error) {
			return nil, errors.New("offline")
		}

		assert.EqualError(t, h.run("version", "--check"), "offline")
	})
}
