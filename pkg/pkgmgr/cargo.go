package pkgmgr

import (
	"context"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/registry"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/omnipm/omnipm/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// cargoManager integrates crates installed with cargo install. Crate metadata
// beyond name and version comes from the crates.io registry API.
type cargoManager struct{}

var (
	// "crate-name v1.2.3:" opens a registry-installed crate record.
	cargoCrateHeader = regexp.MustCompile(`^(\S+) v([0-9][^ ]*):$`)
	// "crate-name v1.2.3 (/path/to/crate):" opens a local-path install.
	cargoLocalHeader = regexp.MustCompile(`^(\S+) v([0-9][^ ]*) \(.*\):$`)
)

func (m *cargoManager) Kind() types.ManagerKind { return types.Cargo }

func (m *cargoManager) IsAvailable() bool { return commandAvailable(types.Cargo) }

type installedCrate struct {
	name    string
	version string
	bins    []string
}

// parseInstallList parses cargo install --list output. Registry crates open a
// record whose indented lines name the installed binaries; local-path installs
// are excluded entirely, binaries included, since they do not track registry
// versions.
func parseInstallList(out string) []installedCrate {
	var crates []installedCrate
	var current *installedCrate

	flush := func() {
		if current != nil {
			crates = append(crates, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if current != nil {
				current.bins = append(current.bins, strings.TrimSpace(line))
			}
			continue
		}

		flush()
		if match := cargoCrateHeader.FindStringSubmatch(line); match != nil {
			current = &installedCrate{name: match[1], version: match[2]}
		} else if cargoLocalHeader.MatchString(line) {
			log.Debugf("skipping local-path crate line %q", line)
		}
	}
	flush()
	return crates
}

func (m *cargoManager) installedCrates(ctx context.Context, cfg *config.Config) ([]installedCrate, error) {
	res, err := utils.RunCommand(ctx, cfg.ExecutablePath(types.Cargo), "install", "--list")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, types.Errorf(types.UnknownError, "cargo install --list failed: %s", strings.TrimSpace(res.Stderr))
	}
	return parseInstallList(res.Stdout), nil
}

// ListUpdates compares each installed crate against the latest registry
// version. Registry lookups are best-effort per crate; a failed lookup skips
// that crate rather than failing the listing.
func (m *cargoManager) ListUpdates(ctx context.Context, cfg *config.Config) ([]types.PackageUpdate, error) {
	crates, err := m.installedCrates(ctx, cfg)
	if err != nil {
		return nil, err
	}

	updates := []types.PackageUpdate{}
	for _, crate := range crates {
		latest, err := registry.GetCrate(ctx, crate.name)
		if err != nil {
			log.Debugf("registry lookup for %s failed: %v", crate.name, err)
			continue
		}
		if isNewerVersion(latest.MaxVersion, crate.version) {
			updates = append(updates, types.PackageUpdate{
				Name:           crate.name,
				CurrentVersion: crate.version,
				NewVersion:     latest.MaxVersion,
			})
		}
	}
	return updates, nil
}

// isNewerVersion reports whether candidate is strictly newer than current,
// degrading to string inequality when either fails to parse as semver.
func isNewerVersion(candidate, current string) bool {
	cand, err1 := semver.NewVersion(candidate)
	curr, err2 := semver.NewVersion(current)
	if err1 != nil || err2 != nil {
		return candidate != "" && candidate != current
	}
	return cand.GreaterThan(curr)
}

func (m *cargoManager) CurrentVersion(ctx context.Context, cfg *config.Config, name string) (string, error) {
	crates, err := m.installedCrates(ctx, cfg)
	if err != nil {
		return "", err
	}
	for _, crate := range crates {
		if crate.name == name {
			return crate.version, nil
		}
	}
	return "", types.Errorf(types.UnknownError, "package %s not installed", name)
}

func (m *cargoManager) ListInstalled(ctx context.Context, cfg *config.Config) ([]types.PackageInfo, error) {
	crates, err := m.installedCrates(ctx, cfg)
	if err != nil {
		return nil, err
	}

	packages := []types.PackageInfo{}
	for _, crate := range crates {
		pkg := types.PackageInfo{
			Name:    crate.name,
			Version: crate.version,
			Source:  types.Cargo,
		}
		// Description and homepage live in the registry, not the local install
		// record; enrich when reachable.
		if meta, err := registry.GetCrate(ctx, crate.name); err == nil {
			pkg.Description = meta.Description
			pkg.Homepage = meta.HomepageOrRepository()
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func (m *cargoManager) CountInstalled(ctx context.Context, cfg *config.Config) (int, error) {
	crates, err := m.installedCrates(ctx, cfg)
	if err != nil {
		return 0, err
	}
	return len(crates), nil
}

func (m *cargoManager) SearchPackages(ctx context.Context, _ *config.Config, query string) ([]types.PackageInfo, error) {
	crates, err := registry.SearchCrates(ctx, query)
	if err != nil {
		return nil, err
	}

	packages := []types.PackageInfo{}
	for _, crate := range crates {
		packages = append(packages, types.PackageInfo{
			Name:        crate.Name,
			Version:     crate.MaxVersion,
			Source:      types.Cargo,
			Description: crate.Description,
			Homepage:    crate.HomepageOrRepository(),
		})
	}
	return packages, nil
}

func (m *cargoManager) InstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, names, func(name string) []string {
		return []string{"install", name}
	})
}

// UpdatePackages reinstalls each crate at its latest version; cargo has no
// dedicated upgrade verb for installed binaries.
func (m *cargoManager) UpdatePackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, names, func(name string) []string {
		return []string{"install", "--force", name}
	})
}

func (m *cargoManager) UninstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.mutate(ctx, cfg, names, func(name string) []string {
		return []string{"uninstall", name}
	})
}

// mutate runs one cargo invocation per name; the first failure aborts the rest
// of the batch.
func (m *cargoManager) mutate(ctx context.Context, cfg *config.Config, names []string, argsFor func(string) []string) error {
	path := cfg.ExecutablePath(types.Cargo)
	for _, name := range names {
		res, err := utils.RunCommand(ctx, path, argsFor(name)...)
		if err != nil {
			return err
		}
		if !res.Success() {
			return types.Errorf(types.UnknownError, "cargo operation failed for %s: %s", name, strings.TrimSpace(res.Stderr))
		}
	}
	return nil
}
