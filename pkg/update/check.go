// Package update checks for newer nanocli releases and figures out how the
// running binary was installed so the right upgrade command can be
// suggested.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const latestReleaseURL = "https://api.github.com/repos/lancealx/nanocli/releases/latest"

// InstallMethod identifies how the binary got onto this machine.
type InstallMethod string

const (
	InstallMethodBrew    InstallMethod = "brew"
	InstallMethodNPM     InstallMethod = "npm"
	InstallMethodPNPM    InstallMethod = "pnpm"
	InstallMethodBun     InstallMethod = "bun"
	InstallMethodUnknown InstallMethod = "unknown"
)

type methodRule struct {
	method InstallMethod
	check  func(path string) bool
}

// installMethodRules returns detection rules in precedence order. pnpm's
// global dir can contain "npm" as a substring, so the more specific
// matchers run first.
func installMethodRules() []methodRule {
	return []methodRule{
		{InstallMethodPNPM, pathMatchesPNPM},
		{InstallMethodBun, pathMatchesBun},
		{InstallMethodNPM, pathMatchesNPM},
		{InstallMethodBrew, pathMatchesHomebrew},
	}
}

func pathMatchesNPM(path string) bool {
	return strings.Contains(path, "/.npm-global/") ||
		strings.Contains(path, "/.npm/") ||
		strings.Contains(path, "/node_modules/") ||
		strings.Contains(path, "/share/npm/")
}

func pathMatchesBun(path string) bool {
	return strings.Contains(path, "/.bun/")
}

func pathMatchesPNPM(path string) bool {
	return strings.Contains(path, "/pnpm/") || strings.Contains(path, "/.pnpm/")
}

func pathMatchesHomebrew(path string) bool {
	return strings.Contains(path, "/homebrew/") ||
		strings.Contains(path, "/Cellar/") ||
		strings.Contains(path, "/.linuxbrew/")
}

// DetectInstallMethod inspects the running binary's path.
func DetectInstallMethod() (InstallMethod, string) {
	binaryPath, err := os.Executable()
	if err != nil {
		return InstallMethodUnknown, ""
	}
	for _, r := range installMethodRules() {
		if r.check(binaryPath) {
			return r.method, binaryPath
		}
	}
	return InstallMethodUnknown, binaryPath
}

// SuggestUpgradeCommand returns the upgrade command for the detected
// installation method.
func SuggestUpgradeCommand() string {
	method, _ := DetectInstallMethod()
	return suggestUpgradeCommandForMethod(method)
}

func suggestUpgradeCommandForMethod(method InstallMethod) string {
	switch method {
	case InstallMethodNPM:
		return "npm i -g @lancealx/nanocli@latest"
	case InstallMethodPNPM:
		return "pnpm add -g @lancealx/nanocli@latest"
	case InstallMethodBun:
		return "bun add -g @lancealx/nanocli@latest"
	default:
		return "brew upgrade lancealx/tap/nanocli"
	}
}

// FetchLatest returns the latest release tag and its release page URL.
func FetchLatest(ctx context.Context) (tag string, releaseURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, latestReleaseURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("release lookup failed: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", "", fmt.Errorf("invalid release response: %w", err)
	}
	if release.TagName == "" {
		return "", "", fmt.Errorf("release has no tag")
	}
	return release.TagName, release.HTMLURL, nil
}

// IsNewerVersion reports whether latest is strictly newer than current.
func IsNewerVersion(current, latest string) (bool, error) {
	cv, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, fmt.Errorf("parse current version %q: %w", current, err)
	}
	lv, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false, fmt.Errorf("parse latest version %q: %w", latest, err)
	}
	return lv.GreaterThan(cv), nil
}
