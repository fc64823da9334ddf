package pkgmgr

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/omnipm/omnipm/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// homebrewManager integrates Homebrew formulae and casks.
type homebrewManager struct{}

func (m *homebrewManager) Kind() types.ManagerKind { return types.Homebrew }

func (m *homebrewManager) IsAvailable() bool { return commandAvailable(types.Homebrew) }

func (m *homebrewManager) ListUpdates(ctx context.Context, cfg *config.Config) ([]types.PackageUpdate, error) {
	res, err := utils.RunCommand(ctx, cfg.ExecutablePath(types.Homebrew), "outdated", "--verbose")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, types.Errorf(types.UnknownError, "brew outdated --verbose failed: %s", strings.TrimSpace(res.Stderr))
	}
	return parseOutdatedReport(res.Stdout), nil
}

// parseOutdatedReport parses brew outdated --verbose lines of the shape
//
//	name (current) < new
//
// Lines without the "<" separator or the parenthesized current version carry
// no update and are skipped.
func parseOutdatedReport(report string) []types.PackageUpdate {
	updates := []types.PackageUpdate{}
	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		left, newVersion, found := strings.Cut(line, "<")
		if !found {
			continue
		}

		name, current, ok := parseNameAndVersion(strings.TrimSpace(left))
		if !ok {
			continue
		}

		updates = append(updates, types.PackageUpdate{
			Name:           name,
			CurrentVersion: current,
			NewVersion:     strings.TrimSpace(newVersion),
		})
	}
	return updates
}

// parseNameAndVersion splits "name (version)" at the last parenthesis pair,
// tolerating spaces inside the name.
func parseNameAndVersion(s string) (name, version string, ok bool) {
	open := strings.LastIndex(s, "(")
	closing := strings.LastIndex(s, ")")
	if open < 0 || closing < 0 || open >= closing {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : closing]), true
}

func (m *homebrewManager) CurrentVersion(ctx context.Context, cfg *config.Config, name string) (string, error) {
	res, err := utils.RunCommand(ctx, cfg.ExecutablePath(types.Homebrew), "list", "--versions", name)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", types.Errorf(types.UnknownError, "brew list --versions %s failed: %s", name, strings.TrimSpace(res.Stderr))
	}

	line := strings.TrimSpace(res.Stdout)
	if line == "" {
		return "", types.Errorf(types.UnknownError, "package %s not found", name)
	}

	// "name version1 version2 ..."; the last token is the newest installed.
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", types.Errorf(types.UnknownError, "failed to parse version from %q", line)
	}
	return parts[len(parts)-1], nil
}

// brewInfo is the subset of brew info --json=v2 consumed here.
type brewInfo struct {
	Formulae []struct {
		Name     string `json:"name"`
		Desc     string `json:"desc"`
		Homepage string `json:"homepage"`
		Version  string `json:"version"`
		Versions struct {
			Stable string `json:"stable"`
		} `json:"versions"`
	} `json:"formulae"`
	Casks []struct {
		Token    string `json:"token"`
		Version  string `json:"version"`
		Desc     string `json:"desc"`
		Homepage string `json:"homepage"`
	} `json:"casks"`
}

func (m *homebrewManager) ListInstalled(ctx context.Context, cfg *config.Config) ([]types.PackageInfo, error) {
	path := cfg.ExecutablePath(types.Homebrew)

	res, err := utils.RunCommand(ctx, path, "info", "--json=v2", "--installed")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		log.Debugf("brew info --json=v2 failed, falling back to list --versions")
		return m.listInstalledPlain(ctx, path)
	}
	return parseBrewInfo(res.Stdout)
}

func parseBrewInfo(jsonOut string) ([]types.PackageInfo, error) {
	var info brewInfo
	if err := json.Unmarshal([]byte(jsonOut), &info); err != nil {
		return nil, types.WrapError(types.SerializationError, err, "decoding brew info output")
	}

	packages := []types.PackageInfo{}
	for _, f := range info.Formulae {
		version := f.Versions.Stable
		if version == "" {
			version = f.Version
		}
		if version == "" {
			version = "unknown"
		}
		packages = append(packages, types.PackageInfo{
			Name:        f.Name,
			Version:     version,
			Source:      types.Homebrew,
			Description: f.Desc,
			Homepage:    f.Homepage,
		})
	}
	for _, c := range info.Casks {
		version := c.Version
		if version == "" {
			version = "unknown"
		}
		packages = append(packages, types.PackageInfo{
			Name:        c.Token,
			Version:     version,
			Source:      types.Homebrew,
			Description: c.Desc,
			Homepage:    c.Homepage,
		})
	}
	return packages, nil
}

// listInstalledPlain is the text fallback: one "name version1 version2 ..."
// line per package, last token taken as the installed version.
func (m *homebrewManager) listInstalledPlain(ctx context.Context, path string) ([]types.PackageInfo, error) {
	res, err := utils.RunCommand(ctx, path, "list", "--versions")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, types.Errorf(types.CommandError, "brew list --versions failed: %s", strings.TrimSpace(res.Stderr))
	}

	packages := []types.PackageInfo{}
	for _, line := range strings.Split(res.Stdout, "\n") {
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 2 {
			continue
		}
		packages = append(packages, types.PackageInfo{
			Name:    parts[0],
			Version: parts[len(parts)-1],
			Source:  types.Homebrew,
		})
	}
	return packages, nil
}

// CountInstalled counts brew list lines directly; a failing listing counts as
// zero rather than an error.
func (m *homebrewManager) CountInstalled(ctx context.Context, cfg *config.Config) (int, error) {
	res, err := utils.RunCommand(ctx, cfg.ExecutablePath(types.Homebrew), "list")
	if err != nil {
		return 0, err
	}
	if !res.Success() {
		return 0, nil
	}

	count := 0
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}

func (m *homebrewManager) SearchPackages(ctx context.Context, cfg *config.Config, query string) ([]types.PackageInfo, error) {
	res, err := utils.RunCommand(ctx, cfg.ExecutablePath(types.Homebrew), "search", query)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return []types.PackageInfo{}, nil
	}

	// One package name per line, with "==> Formulae" style section markers.
	packages := []types.PackageInfo{}
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		packages = append(packages, types.PackageInfo{
			Name:    line,
			Version: "Not Installed",
			Source:  types.Homebrew,
		})
	}
	return packages, nil
}

func (m *homebrewManager) InstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, "install", names)
}

func (m *homebrewManager) UpdatePackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, "upgrade", names)
}

func (m *homebrewManager) UninstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, "uninstall", names)
}

// mutate runs one brew invocation per name; the first failure aborts the rest
// of the batch.
func (m *homebrewManager) mutate(ctx context.Context, cfg *config.Config, verb string, names []string) error {
	path := cfg.ExecutablePath(types.Homebrew)
	for _, name := range names {
		res, err := utils.RunCommand(ctx, path, verb, name)
		if err != nil {
			return err
		}
		if !res.Success() {
			return types.Errorf(types.UnknownError, "brew %s failed for %s: %s", verb, name, strings.TrimSpace(res.Stderr))
		}
	}
	return nil
}
