package pkgmgr

import (
	"context"
	"strconv"
	"strings"

	rpmVer "github.com/knqyf263/go-rpm-version"
	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/omnipm/omnipm/pkg/utils"
	log "github.com/sirupsen/logrus"
)

const rpmListQueryFormat = "%{NAME}\t%{VERSION}-%{RELEASE}\t%{SUMMARY}\t%{SIZE}\t%{INSTALLTIME}\t%{URL}\n"

// rpm prints this placeholder for query tags with no value.
const rpmNone = "(none)"

// dnfManager integrates the Fedora/RHEL system package manager. Queries go
// through the rpm database directly; repository operations go through dnf.
type dnfManager struct{}

func (m *dnfManager) Kind() types.ManagerKind { return types.Dnf }

func (m *dnfManager) IsAvailable() bool { return commandAvailable(types.Dnf) }

func (m *dnfManager) ListUpdates(ctx context.Context, cfg *config.Config) ([]types.PackageUpdate, error) {
	path := cfg.ExecutablePath(types.Dnf)

	// dnf exits non-zero when updates are pending, so the report is parsed
	// regardless of exit status.
	res, err := utils.RunCommand(ctx, path, "check-upgrade")
	if err != nil {
		return nil, err
	}
	log.Debugf("dnf check-upgrade exited %d, %d bytes of output", res.ExitCode, len(res.Stdout))

	updates := []types.PackageUpdate{}
	for _, cand := range parseUpgradeReport(res.Stdout) {
		current, err := m.CurrentVersion(ctx, cfg, cand.name)
		if err != nil {
			log.Debugf("failed to get current version for %s: %v", cand.name, err)
			current = "unknown"
		}

		currentVer := rpmVer.NewVersion(current)
		if current != "unknown" && currentVer.Equal(rpmVer.NewVersion(cand.newVersion)) {
			log.Debugf("skipping %s: reported update %s matches installed version", cand.name, cand.newVersion)
			continue
		}

		updates = append(updates, types.PackageUpdate{
			Name:           cand.name,
			CurrentVersion: current,
			NewVersion:     cand.newVersion,
		})
	}

	log.Debugf("dnf updates found: %d", len(updates))
	return updates, nil
}

type upgradeCandidate struct {
	name       string
	newVersion string
}

// parseUpgradeReport scans dnf check-upgrade output. Each update line is
//
//	package-name.arch  version  repository
//
// surrounded by repository banner lines that must be skipped. Multi-arch
// repositories repeat package names across lines; the first occurrence wins.
func parseUpgradeReport(report string) []upgradeCandidate {
	var candidates []upgradeCandidate
	seen := map[string]bool{}

	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		if line == "" ||
			strings.HasPrefix(line, "Updating and loading repositories:") ||
			strings.HasPrefix(line, "Repositories loaded.") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		name := stripArchSuffix(parts[0])
		if seen[name] {
			log.Debugf("skipping duplicate update line for %s", name)
			continue
		}
		seen[name] = true

		candidates = append(candidates, upgradeCandidate{name: name, newVersion: parts[1]})
	}
	return candidates
}

// stripArchSuffix removes the trailing ".arch" qualifier from a package token.
func stripArchSuffix(token string) string {
	if i := strings.LastIndex(token, "."); i >= 0 {
		return token[:i]
	}
	return token
}

func (m *dnfManager) CurrentVersion(ctx context.Context, _ *config.Config, name string) (string, error) {
	res, err := utils.RunCommand(ctx, "rpm", "-q", "--queryformat", "%{VERSION}-%{RELEASE}", name)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", types.Errorf(types.ParseError, "package %s not found", name)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (m *dnfManager) ListInstalled(ctx context.Context, _ *config.Config) ([]types.PackageInfo, error) {
	res, err := utils.RunCommand(ctx, "rpm", "-qa", "--queryformat", rpmListQueryFormat)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, types.Errorf(types.UnknownError, "rpm -qa failed: %s", strings.TrimSpace(res.Stderr))
	}

	packages := []types.PackageInfo{}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if pkg, ok := parseInstalledRPMLine(line); ok {
			packages = append(packages, pkg)
		}
	}
	return packages, nil
}

// parseInstalledRPMLine parses one tab-separated rpm -qa line. Only name and
// version are required; every other field degrades to absent when missing,
// "(none)", or unparsable.
func parseInstalledRPMLine(line string) (types.PackageInfo, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 || parts[0] == "" {
		return types.PackageInfo{}, false
	}

	pkg := types.PackageInfo{
		Name:    parts[0],
		Version: parts[1],
		Source:  types.Dnf,
	}
	if len(parts) > 2 && parts[2] != "" && parts[2] != rpmNone {
		pkg.Description = parts[2]
	}
	if len(parts) > 3 {
		if size, err := strconv.ParseUint(parts[3], 10, 64); err == nil {
			pkg.Size = size
		}
	}
	if len(parts) > 4 && parts[4] != "" && parts[4] != rpmNone {
		pkg.InstallDate = utils.FormatEpoch(parts[4])
	}
	if len(parts) > 5 && parts[5] != "" && parts[5] != rpmNone {
		pkg.Homepage = parts[5]
	}
	return pkg, true
}

// CountInstalled prefers a line-count pipeline over a full query; when the
// pipeline fails it falls back to listing and counting.
func (m *dnfManager) CountInstalled(ctx context.Context, cfg *config.Config) (int, error) {
	res, err := utils.RunCommand(ctx, "sh", "-c", "rpm -qa | wc -l")
	if err != nil {
		return 0, err
	}
	if !res.Success() {
		return countByListing(ctx, m, cfg)
	}

	count, err := strconv.Atoi(strings.TrimSpace(res.Stdout))
	if err != nil {
		return 0, types.Errorf(types.ParseError, "failed to parse package count: %v", err)
	}
	return count, nil
}

func (m *dnfManager) SearchPackages(ctx context.Context, cfg *config.Config, query string) ([]types.PackageInfo, error) {
	path := cfg.ExecutablePath(types.Dnf)

	res, err := utils.RunCommand(ctx, path, "search", "--quiet", query)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return []types.PackageInfo{}, nil
	}

	packages := []types.PackageInfo{}
	for _, name := range parseSearchReport(res.Stdout) {
		// Search results for not-yet-installed packages carry no version.
		version, err := m.CurrentVersion(ctx, cfg, name)
		if err != nil || version == "unknown" {
			version = ""
		}
		packages = append(packages, types.PackageInfo{
			Name:    name,
			Version: version,
			Source:  types.Dnf,
		})
	}
	return packages, nil
}

// parseSearchReport extracts package names from dnf search output. Match
// lines have the shape "name.arch : summary"; section markers and wrapped
// description text are skipped.
func parseSearchReport(report string) []string {
	var names []string
	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, ":") {
			continue
		}

		namePart, _, _ := strings.Cut(line, ":")
		namePart = strings.TrimSpace(namePart)
		if namePart == "" || strings.Contains(namePart, " ") || strings.HasPrefix(namePart, "=") {
			continue
		}

		names = append(names, stripArchSuffix(namePart))
	}
	return names
}

func (m *dnfManager) InstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.privileged(ctx, cfg, "install", names)
}

func (m *dnfManager) UpdatePackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.privileged(ctx, cfg, "upgrade", names)
}

func (m *dnfManager) UninstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.privileged(ctx, cfg, "remove", names)
}

// privileged runs one elevated dnf invocation covering the whole batch.
func (m *dnfManager) privileged(ctx context.Context, cfg *config.Config, verb string, names []string) error {
	args := append([]string{cfg.ExecutablePath(types.Dnf), verb, "-y"}, names...)

	res, err := utils.RunCommand(ctx, "pkexec", args...)
	if err != nil {
		return err
	}
	if !res.Success() {
		return types.Errorf(types.UnknownError, "pkexec dnf %s failed: %s", verb, strings.TrimSpace(res.Stderr))
	}
	return nil
}
