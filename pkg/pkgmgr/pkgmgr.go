// Package pkgmgr normalizes several CLI-driven package managers behind one
// query/mutation interface, so callers can list, search, install, update and
// remove packages without branching on which backend is in play.
package pkgmgr

import (
	"context"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/omnipm/omnipm/pkg/utils"
)

// PackageManager is the capability surface every backend implements. All
// operations are self-contained: each call spawns its external processes (or
// HTTP requests), reads only the Config passed to it, and holds no state
// between calls.
//
// Batch mutations pass the whole batch to the underlying tool where it accepts
// repeated arguments, and loop one invocation per name otherwise. Either way
// the first failing invocation aborts the remainder of the batch; partial
// progress inside a single invocation is defined by the tool, not by this
// interface, and no atomicity is guaranteed.
type PackageManager interface {
	Kind() types.ManagerKind

	// IsAvailable reports whether the backend's default command resolves in
	// PATH. Side-effect-free; failures collapse to false.
	IsAvailable() bool

	ListUpdates(ctx context.Context, cfg *config.Config) ([]types.PackageUpdate, error)
	CurrentVersion(ctx context.Context, cfg *config.Config, name string) (string, error)
	ListInstalled(ctx context.Context, cfg *config.Config) ([]types.PackageInfo, error)
	CountInstalled(ctx context.Context, cfg *config.Config) (int, error)
	SearchPackages(ctx context.Context, cfg *config.Config, query string) ([]types.PackageInfo, error)

	InstallPackages(ctx context.Context, cfg *config.Config, names []string) error
	UpdatePackages(ctx context.Context, cfg *config.Config, names []string) error
	UninstallPackages(ctx context.Context, cfg *config.Config, names []string) error
}

// GetPackageManager returns the backend for the given kind. The switch is the
// seam where new backends are added without touching existing ones.
func GetPackageManager(kind types.ManagerKind) (PackageManager, error) {
	switch kind {
	case types.Dnf:
		return &dnfManager{}, nil
	case types.Flatpak:
		return &flatpakManager{}, nil
	case types.Homebrew:
		return &homebrewManager{}, nil
	case types.Cargo:
		return &cargoManager{}, nil
	case types.GoBin:
		return &goManager{}, nil
	default:
		return nil, types.Errorf(types.UnknownError, "unsupported package manager %q", kind)
	}
}

// UninstallPackage removes a single package by delegating to the batch form.
func UninstallPackage(ctx context.Context, m PackageManager, cfg *config.Config, name string) error {
	return m.UninstallPackages(ctx, cfg, []string{name})
}

// Shared default behaviors, usable by any backend that does not specialize.

// countByListing is the default CountInstalled: list and count. Backends with
// a cheaper direct count override it.
func countByListing(ctx context.Context, m PackageManager, cfg *config.Config) (int, error) {
	pkgs, err := m.ListInstalled(ctx, cfg)
	if err != nil {
		return 0, err
	}
	return len(pkgs), nil
}

// commandAvailable is the default IsAvailable implementation.
func commandAvailable(kind types.ManagerKind) bool {
	return utils.CommandAvailable(kind.Command())
}
