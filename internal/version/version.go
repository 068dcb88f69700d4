package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Version is the current release, overridden at build time with
// -ldflags "-X .../internal/version.Version=..."
var Version = "0.1.0"

const (
	githubAPIURL = "https://api.github.com/repos/studiowebux/loadcli/releases/latest"
	checkTimeout = 5 * time.Second
)

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdate checks if a newer version is available
func CheckForUpdate(currentVersion string) (available bool, latestVersion string, url string, err error) {
	client := &http.Client{Timeout: checkTimeout}

	req, err := http.NewRequest("GET", githubAPIURL, nil)
	if err != nil {
		return false, "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "loadcli/"+currentVersion)

	resp, err := client.Do(req)
	if err != nil {
		return false, "", "", fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, "", "", fmt.Errorf("unexpected status from release API: %s", resp.Status)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return false, "", "", fmt.Errorf("failed to decode release: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if isNewer(latest, strings.TrimPrefix(currentVersion, "v")) {
		return true, latest, release.HTMLURL, nil
	}
	return false, latest, release.HTMLURL, nil
}

// isNewer compares dotted version strings numerically, segment by segment
func isNewer(candidate, current string) bool {
	cand := strings.Split(candidate, ".")
	curr := strings.Split(current, ".")
	for i := 0; i < len(cand) && i < len(curr); i++ {
		a, errA := strconv.Atoi(cand[i])
		b, errB := strconv.Atoi(curr[i])
		if errA != nil || errB != nil {
			return candidate > current
		}
		if a != b {
			return a > b
		}
	}
	return len(cand) > len(curr)
}
