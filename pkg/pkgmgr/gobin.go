package pkgmgr

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/omnipm/omnipm/pkg/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"
)

// goManager integrates binaries installed with go install. The installed set
// is the regular files in the Go bin directory; module and version come from
// the build info embedded in each binary.
type goManager struct{}

func (m *goManager) Kind() types.ManagerKind { return types.GoBin }

func (m *goManager) IsAvailable() bool { return commandAvailable(types.GoBin) }

type goBinary struct {
	binary  string
	module  string
	version string
}

// installedBinaries inspects every regular file in the bin directory with
// go version -m. Files without embedded build info (non-Go binaries, stripped
// builds) are silently excluded. An unreadable directory means nothing is
// installed, not an error.
func (m *goManager) installedBinaries(ctx context.Context, cfg *config.Config) ([]goBinary, error) {
	binDir := cfg.GoBinDirectory()
	entries, err := os.ReadDir(binDir)
	if err != nil {
		log.Debugf("cannot read go bin directory %s: %v", binDir, err)
		return []goBinary{}, nil
	}

	goPath := cfg.ExecutablePath(types.GoBin)
	binaries := []goBinary{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		res, err := utils.RunCommand(ctx, goPath, "version", "-m", filepath.Join(binDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if !res.Success() {
			continue
		}

		if bin, ok := parseVersionOutput(entry.Name(), res.Stdout); ok {
			binaries = append(binaries, bin)
		}
	}
	return binaries, nil
}

// parseVersionOutput extracts the module path and version from go version -m
// output. The "path" line names the installed package; the "mod" line carries
// the module and its version. A binary without a path line is not a go
// install artifact.
func parseVersionOutput(binary, out string) (goBinary, bool) {
	bin := goBinary{binary: binary, version: "unknown"}
	found := false

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "path":
			bin.module = fields[1]
			found = true
		case "mod":
			if len(fields) >= 3 && semver.IsValid(fields[2]) {
				bin.version = fields[2]
			}
		}
	}
	return bin, found
}

func (m *goManager) ListUpdates(ctx context.Context, cfg *config.Config) ([]types.PackageUpdate, error) {
	binaries, err := m.installedBinaries(ctx, cfg)
	if err != nil {
		return nil, err
	}

	goPath := cfg.ExecutablePath(types.GoBin)
	updates := []types.PackageUpdate{}
	for _, bin := range binaries {
		latest, err := m.latestVersion(ctx, goPath, bin.module)
		if err != nil {
			log.Debugf("version lookup for %s failed: %v", bin.module, err)
			continue
		}
		if latest != "" && latest != bin.version {
			updates = append(updates, types.PackageUpdate{
				Name:           bin.module,
				CurrentVersion: bin.version,
				NewVersion:     latest,
			})
		}
	}
	return updates, nil
}

// latestVersion resolves the newest published version of a module via
// go list -m -versions, whose output is "module v1 v2 ... vN".
func (m *goManager) latestVersion(ctx context.Context, goPath, module string) (string, error) {
	res, err := utils.RunCommand(ctx, goPath, "list", "-m", "-versions", module)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", types.Errorf(types.UnknownError, "go list -m %s failed: %s", module, strings.TrimSpace(res.Stderr))
	}

	fields := strings.Fields(strings.TrimSpace(res.Stdout))
	if len(fields) < 2 {
		return "", nil
	}
	return fields[len(fields)-1], nil
}

// CurrentVersion accepts either the module path or the binary name.
func (m *goManager) CurrentVersion(ctx context.Context, cfg *config.Config, name string) (string, error) {
	binaries, err := m.installedBinaries(ctx, cfg)
	if err != nil {
		return "", err
	}
	for _, bin := range binaries {
		if bin.module == name || bin.binary == name {
			return bin.version, nil
		}
	}
	return "", types.Errorf(types.UnknownError, "package %s not installed", name)
}

func (m *goManager) ListInstalled(ctx context.Context, cfg *config.Config) ([]types.PackageInfo, error) {
	binaries, err := m.installedBinaries(ctx, cfg)
	if err != nil {
		return nil, err
	}

	packages := []types.PackageInfo{}
	for _, bin := range binaries {
		packages = append(packages, types.PackageInfo{
			Name:        bin.module,
			Version:     bin.version,
			Source:      types.GoBin,
			Description: "binary: " + bin.binary,
		})
	}
	return packages, nil
}

func (m *goManager) CountInstalled(ctx context.Context, cfg *config.Config) (int, error) {
	return countByListing(ctx, m, cfg)
}

// SearchPackages treats the query as a module path and probes the module
// proxy for it. There is no fuzzy search for Go modules on the command line.
func (m *goManager) SearchPackages(ctx context.Context, cfg *config.Config, query string) ([]types.PackageInfo, error) {
	res, err := utils.RunCommand(ctx, cfg.ExecutablePath(types.GoBin), "list", "-m", "-versions", query)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return []types.PackageInfo{}, nil
	}

	fields := strings.Fields(strings.TrimSpace(res.Stdout))
	if len(fields) == 0 {
		return []types.PackageInfo{}, nil
	}

	version := "unknown"
	if last := fields[len(fields)-1]; len(fields) > 1 && semver.IsValid(last) {
		version = last
	}
	return []types.PackageInfo{{
		Name:    fields[0],
		Version: version,
		Source:  types.GoBin,
	}}, nil
}

func (m *goManager) InstallPackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.install(ctx, cfg, names)
}

// UpdatePackages reinstalls at @latest; go install is idempotent and always
// fetches the newest version when none is pinned.
func (m *goManager) UpdatePackages(ctx context.Context, cfg *config.Config, names []string) error {
	return m.install(ctx, cfg, names)
}

// UninstallPackages deletes binaries from the bin directory; go has no
// uninstall verb. Names may be module paths, in which case the last path
// element is taken as the binary name.
func (m *goManager) UninstallPackages(_ context.Context, cfg *config.Config, names []string) error {
	binDir := cfg.GoBinDirectory()
	for _, name := range names {
		binary := name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			binary = name[i+1:]
		}

		path := filepath.Join(binDir, binary)
		if err := os.Remove(path); err != nil {
			return types.WrapError(types.UnknownError, err, "removing "+path)
		}
	}
	return nil
}

// install runs one go install per name, pinning @latest unless the name
// already carries a version suffix.
func (m *goManager) install(ctx context.Context, cfg *config.Config, names []string) error {
	goPath := cfg.ExecutablePath(types.GoBin)
	for _, name := range names {
		target := name
		if !strings.Contains(target, "@") {
			target += "@latest"
		}

		res, err := utils.RunCommand(ctx, goPath, "install", target)
		if err != nil {
			return err
		}
		if !res.Success() {
			return types.Errorf(types.UnknownError, "go install %s failed: %s", target, strings.TrimSpace(res.Stderr))
		}
	}
	return nil
}
