package pkgmgr

import (
	"context"
	"testing"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeManager is an in-memory backend used to exercise the aggregation layer
// without spawning processes.
type fakeManager struct {
	kind        types.ManagerKind
	updates     []types.PackageUpdate
	installed   []types.PackageInfo
	searchHits  []types.PackageInfo
	err         error
	uninstalled [][]string
}

func (f *fakeManager) Kind() types.ManagerKind { return f.kind }
func (f *fakeManager) IsAvailable() bool       { return true }

func (f *fakeManager) ListUpdates(context.Context, *config.Config) ([]types.PackageUpdate, error) {
	return f.updates, f.err
}

func (f *fakeManager) CurrentVersion(context.Context, *config.Config, string) (string, error) {
	return "", f.err
}

func (f *fakeManager) ListInstalled(context.Context, *config.Config) ([]types.PackageInfo, error) {
	return f.installed, f.err
}

func (f *fakeManager) CountInstalled(context.Context, *config.Config) (int, error) {
	return len(f.installed), f.err
}

func (f *fakeManager) SearchPackages(context.Context, *config.Config, string) ([]types.PackageInfo, error) {
	return f.searchHits, f.err
}

func (f *fakeManager) InstallPackages(context.Context, *config.Config, []string) error { return f.err }
func (f *fakeManager) UpdatePackages(context.Context, *config.Config, []string) error  { return f.err }

func (f *fakeManager) UninstallPackages(_ context.Context, _ *config.Config, names []string) error {
	f.uninstalled = append(f.uninstalled, names)
	return f.err
}

func TestListUpdatesAcross(t *testing.T) {
	managers := map[types.ManagerKind]PackageManager{
		types.Dnf: &fakeManager{
			kind:    types.Dnf,
			updates: []types.PackageUpdate{{Name: "kernel", CurrentVersion: "6.9.6", NewVersion: "6.9.7"}},
		},
		types.Cargo: &fakeManager{
			kind:    types.Cargo,
			updates: []types.PackageUpdate{{Name: "ripgrep", CurrentVersion: "14.0.0", NewVersion: "14.1.0"}},
		},
	}

	results, err := ListUpdatesWith(context.Background(), &config.Config{}, managers)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "kernel", results[types.Dnf][0].Name)
	assert.Equal(t, "ripgrep", results[types.Cargo][0].Name)
}

func TestAggregationIsolatesFailingBackend(t *testing.T) {
	managers := map[types.ManagerKind]PackageManager{
		types.Flatpak: &fakeManager{
			kind: types.Flatpak,
			err:  types.Errorf(types.CommandError, "flatpak exploded"),
		},
		types.Homebrew: &fakeManager{
			kind:      types.Homebrew,
			installed: []types.PackageInfo{{Name: "git", Version: "2.45.2", Source: types.Homebrew}},
		},
	}

	results, err := ListInstalledWith(context.Background(), &config.Config{}, managers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flatpak exploded")

	// The healthy backend's results survive; the failing one is absent.
	require.Len(t, results, 1)
	assert.Equal(t, "git", results[types.Homebrew][0].Name)
	assert.NotContains(t, results, types.Flatpak)
}

func TestCountAcross(t *testing.T) {
	managers := map[types.ManagerKind]PackageManager{
		types.Dnf: &fakeManager{
			kind:      types.Dnf,
			installed: []types.PackageInfo{{Name: "a"}, {Name: "b"}},
		},
		types.GoBin: &fakeManager{kind: types.GoBin},
	}

	counts, err := CountWith(context.Background(), &config.Config{}, managers)
	require.NoError(t, err)
	assert.Equal(t, map[types.ManagerKind]int{types.Dnf: 2, types.GoBin: 0}, counts)
}

func TestSearchAcross(t *testing.T) {
	managers := map[types.ManagerKind]PackageManager{
		types.Cargo: &fakeManager{
			kind:       types.Cargo,
			searchHits: []types.PackageInfo{{Name: "ripgrep", Source: types.Cargo}},
		},
		types.Homebrew: &fakeManager{
			kind:       types.Homebrew,
			searchHits: []types.PackageInfo{{Name: "ripgrep", Source: types.Homebrew}},
		},
	}

	results, err := SearchWith(context.Background(), &config.Config{}, "ripgrep", managers)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.Cargo, results[types.Cargo][0].Source)
	assert.Equal(t, types.Homebrew, results[types.Homebrew][0].Source)
}

func TestConfiguredManagersOrderAndKinds(t *testing.T) {
	cfg := &config.Config{
		SystemManager: &config.ManagerConfig{ManagerType: types.Dnf},
		AppManagers: []config.ManagerConfig{
			{ManagerType: types.Flatpak},
			{ManagerType: types.Cargo},
		},
	}

	managers := configuredManagers(cfg)
	require.Len(t, managers, 3)
	for _, kind := range []types.ManagerKind{types.Dnf, types.Flatpak, types.Cargo} {
		assert.Contains(t, managers, kind)
	}
}
