// Package version reports build information and checks GitHub for newer releases.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	releasesURL  = "https://api.github.com/repos/Elpulgo/azdo-prtree/releases/latest"
	checkTimeout = 5 * time.Second
)

// Info is the build information injected at link time.
type Info struct {
	Version string
	Commit  string
	Date    string
}

// String formats the build information for `azdo-prtree version`.
func (i Info) String() string {
	return fmt.Sprintf("azdo-prtree version %s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}

// UpdateInfo is the outcome of CheckForUpdate.
type UpdateInfo struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	ReleaseURL      string
}

type release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Checker compares the running build with the latest published release.
type Checker struct {
	currentVersion string
	apiURL         string
	httpClient     *http.Client
}

func NewChecker(currentVersion string) *Checker {
	return &Checker{
		currentVersion: currentVersion,
		apiURL:         releasesURL,
		httpClient:     &http.Client{Timeout: checkTimeout},
	}
}

// CheckForUpdate reports whether a newer release exists. Builds without a
// semantic version (such as "dev") are never reported as outdated, and
// prereleases are only offered to prerelease builds.
func (c *Checker) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	info := &UpdateInfo{CurrentVersion: c.currentVersion}

	current, err := semver.NewVersion(c.currentVersion)
	if err != nil {
		return info, nil
	}

	latest, err := c.latestRelease(ctx)
	if err != nil {
		return nil, err
	}

	info.LatestVersion = latest.TagName
	info.ReleaseURL = latest.HTMLURL

	if latest.Draft || (latest.Prerelease && current.Prerelease() == "") {
		return info, nil
	}
	info.UpdateAvailable = isNewer(c.currentVersion, latest.TagName)

	return info, nil
}

func (c *Checker) latestRelease(ctx context.Context) (*release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "azdo-prtree/"+c.currentVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release check returned HTTP %d", resp.StatusCode)
	}

	var r release
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to parse release response: %w", err)
	}
	return &r, nil
}

// isNewer reports whether latest is a greater semantic version than current.
// Either side failing to parse means no.
func isNewer(current, latest string) bool {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	lat, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}
	return lat.GreaterThan(cur)
}
