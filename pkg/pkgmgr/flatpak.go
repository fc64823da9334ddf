package pkgmgr

import (
	"context"
	"strings"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/omnipm/omnipm/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// flatpakManager integrates Flatpak applications. Flatpak versions come in
// two parts, a numeric version and a branch, and either may be missing; the
// normalized version string is "<version> (<branch>)" or "branch: <branch>"
// when no numeric version exists.
type flatpakManager struct{}

func (m *flatpakManager) Kind() types.ManagerKind { return types.Flatpak }

func (m *flatpakManager) IsAvailable() bool { return commandAvailable(types.Flatpak) }

// versionString normalizes a version/branch pair into one display string.
func versionString(version, branch string) string {
	if version == "" {
		return "branch: " + branch
	}
	return version + " (" + branch + ")"
}

func (m *flatpakManager) ListUpdates(ctx context.Context, cfg *config.Config) ([]types.PackageUpdate, error) {
	path := cfg.ExecutablePath(types.Flatpak)

	res, err := utils.RunCommand(ctx, path,
		"list", "--updates", "--app", "--columns=application,version,branch", "--no-heading")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, types.Errorf(types.UnknownError, "flatpak list --updates failed: %s", strings.TrimSpace(res.Stderr))
	}

	// The updates listing only carries the new version; current versions come
	// from a second listing of what is installed, joined by application ID.
	installed, err := m.installedVersions(ctx, path)
	if err != nil {
		return nil, err
	}

	updates := []types.PackageUpdate{}
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		appID := parts[0]
		newVersion := ""
		newBranch := "unknown"
		if len(parts) > 1 {
			newVersion = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			newBranch = strings.TrimSpace(parts[2])
		}

		current := "unknown"
		if vb, ok := installed[appID]; ok {
			current = versionString(vb.version, vb.branch)
		}

		updates = append(updates, types.PackageUpdate{
			Name:           appID,
			CurrentVersion: current,
			NewVersion:     versionString(newVersion, newBranch),
		})
	}
	return updates, nil
}

type versionBranch struct {
	version string
	branch  string
}

// installedVersions maps application ID to its installed version and branch.
// Lines carry one to three whitespace-separated tokens; fewer tokens mean the
// version and/or branch are missing, not malformed input.
func (m *flatpakManager) installedVersions(ctx context.Context, path string) (map[string]versionBranch, error) {
	res, err := utils.RunCommand(ctx, path, "list", "--columns=application,version,branch")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, types.Errorf(types.CommandError, "flatpak list failed: %s", strings.TrimSpace(res.Stderr))
	}
	return parseInstalledColumns(res.Stdout), nil
}

func parseInstalledColumns(out string) map[string]versionBranch {
	info := map[string]versionBranch{}
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue // header
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		switch len(parts) {
		case 3:
			info[parts[0]] = versionBranch{version: parts[1], branch: parts[2]}
		case 2:
			info[parts[0]] = versionBranch{branch: parts[1]}
		case 1:
			info[parts[0]] = versionBranch{branch: "unknown"}
		}
	}
	return info
}

// CurrentVersion reconciles two flatpak info calls: the numeric version is
// best-effort, the branch is required and its absence means not installed.
func (m *flatpakManager) CurrentVersion(ctx context.Context, cfg *config.Config, name string) (string, error) {
	path := cfg.ExecutablePath(types.Flatpak)

	version := ""
	if res, err := utils.RunCommand(ctx, path, "info", "--show-version", name); err == nil && res.Success() {
		version = strings.TrimSpace(res.Stdout)
	}

	res, err := utils.RunCommand(ctx, path, "info", "--show-branch", name)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", types.Errorf(types.UnknownError, "package %s not found", name)
	}

	return versionString(version, strings.TrimSpace(res.Stdout)), nil
}

func (m *flatpakManager) ListInstalled(ctx context.Context, cfg *config.Config) ([]types.PackageInfo, error) {
	path := cfg.ExecutablePath(types.Flatpak)

	res, err := utils.RunCommand(ctx, path,
		"list", "--app", "--columns=application,name,version,branch,size,origin")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		// Older flatpak builds reject the size column; degrade to the basic
		// application/version/branch listing.
		installed, err := m.installedVersions(ctx, path)
		if err != nil {
			return nil, err
		}
		packages := []types.PackageInfo{}
		for appID, vb := range installed {
			packages = append(packages, types.PackageInfo{
				Name:    appID,
				Version: versionString(vb.version, vb.branch),
				Source:  types.Flatpak,
			})
		}
		return packages, nil
	}

	packages := []types.PackageInfo{}
	for i, line := range strings.Split(res.Stdout, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}

		version := parts[2]
		branch := parts[3]
		if branch == "" {
			branch = "stable"
		}

		pkg := types.PackageInfo{
			Name:        parts[0],
			Version:     versionString(version, branch),
			Source:      types.Flatpak,
			Description: parts[1],
		}
		if len(parts) > 4 {
			if size, ok := utils.ParseHumanSize(parts[4]); ok {
				pkg.Size = size
			}
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func (m *flatpakManager) CountInstalled(ctx context.Context, cfg *config.Config) (int, error) {
	return countByListing(ctx, m, cfg)
}

func (m *flatpakManager) SearchPackages(ctx context.Context, cfg *config.Config, query string) ([]types.PackageInfo, error) {
	path := cfg.ExecutablePath(types.Flatpak)

	res, err := utils.RunCommand(ctx, path, "search", query)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return []types.PackageInfo{}, nil
	}
	return parseFlatpakSearch(res.Stdout), nil
}

// parseFlatpakSearch pulls application IDs out of flatpak search output.
// Column widths in that output are not fixed, so the application ID is located
// heuristically as the token containing a dot and longer than five characters.
// This is best-effort: a name or description token of the same shape can be
// picked up instead, a limitation inherited from the lack of a
// machine-readable search format.
func parseFlatpakSearch(out string) []types.PackageInfo {
	packages := []types.PackageInfo{}
	for i, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}

		appID := ""
		for _, p := range parts {
			if strings.Contains(p, ".") && len(p) > 5 {
				appID = p
				break
			}
		}
		if appID == "" {
			log.Debugf("no application ID token in search line %q", line)
			continue
		}

		version := parts[len(parts)-2]
		if version == "unknown" {
			version = ""
		}

		packages = append(packages, types.PackageInfo{
			Name:    appID,
			Version: version,
			Source:  types.Flatpak,
		})
	}
	return packages
}

func (m *flatpakManager) InstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, "install", names)
}

func (m *flatpakManager) UpdatePackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, "update", names)
}

func (m *flatpakManager) UninstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, "uninstall", names)
}

// mutate runs one flatpak invocation covering the whole batch.
func (m *flatpakManager) mutate(ctx context.Context, cfg *config.Config, verb string, names []string) error {
	args := append([]string{verb, "-y"}, names...)

	res, err := utils.RunCommand(ctx, cfg.ExecutablePath(types.Flatpak), args...)
	if err != nil {
		return err
	}
	if !res.Success() {
		return types.Errorf(types.UnknownError, "flatpak %s failed: %s", verb, strings.TrimSpace(res.Stderr))
	}
	return nil
}
