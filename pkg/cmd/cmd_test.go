package cmd

import (
	"bytes"
	"testing"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerFlagResolveAllConfigured(t *testing.T) {
	cfg := &config.Config{
		SystemManager: &config.ManagerConfig{ManagerType: types.Dnf},
		AppManagers:   []config.ManagerConfig{{ManagerType: types.Cargo}},
	}

	mf := managerFlag{}
	managers, err := mf.resolve(cfg)
	require.NoError(t, err)
	require.Len(t, managers, 2)
	assert.Contains(t, managers, types.Dnf)
	assert.Contains(t, managers, types.Cargo)
}

func TestManagerFlagResolveScoped(t *testing.T) {
	cfg := &config.Config{
		SystemManager: &config.ManagerConfig{ManagerType: types.Dnf},
		AppManagers:   []config.ManagerConfig{{ManagerType: types.Cargo}},
	}

	mf := managerFlag{manager: "cargo"}
	managers, err := mf.resolve(cfg)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Contains(t, managers, types.Cargo)
}

func TestManagerFlagResolveUnknown(t *testing.T) {
	mf := managerFlag{manager: "apt"}
	_, err := mf.resolve(&config.Config{AppManagers: []config.ManagerConfig{{ManagerType: types.Cargo}}})
	require.Error(t, err)
}

func TestManagerFlagResolveEmptyConfig(t *testing.T) {
	mf := managerFlag{}
	_, err := mf.resolve(&config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no package managers configured")
}

func TestManagerFlagSingleRequiresChoice(t *testing.T) {
	cfg := &config.Config{
		SystemManager: &config.ManagerConfig{ManagerType: types.Dnf},
		AppManagers:   []config.ManagerConfig{{ManagerType: types.Cargo}},
	}

	mf := managerFlag{}
	_, err := mf.single(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--manager")

	mf = managerFlag{manager: "dnf"}
	m, err := mf.single(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.Dnf, m.Kind())
}

func TestPrintDetected(t *testing.T) {
	cfg := &config.Config{
		SystemManager: &config.ManagerConfig{ManagerType: types.Dnf, CustomPath: "/usr/bin/dnf5"},
		AppManagers:   []config.ManagerConfig{{ManagerType: types.Flatpak}},
	}

	var buf bytes.Buffer
	require.NoError(t, printDetected(&buf, cfg))

	out := buf.String()
	assert.Contains(t, out, "dnf")
	assert.Contains(t, out, "system")
	assert.Contains(t, out, "/usr/bin/dnf5")
	assert.Contains(t, out, "flatpak")
	assert.Contains(t, out, "application")
}
