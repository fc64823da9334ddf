package pkgmgr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstallList(t *testing.T) {
	out := `cargo-watch v8.5.2:
    cargo-watch
ripgrep v14.1.0:
    rg
`
	crates := parseInstallList(out)
	require.Len(t, crates, 2)
	assert.Equal(t, installedCrate{name: "cargo-watch", version: "8.5.2", bins: []string{"cargo-watch"}}, crates[0])
	assert.Equal(t, installedCrate{name: "ripgrep", version: "14.1.0", bins: []string{"rg"}}, crates[1])
}

func TestParseInstallListMultipleBinaries(t *testing.T) {
	out := `cargo-edit v0.12.2:
    cargo-add
    cargo-rm
    cargo-upgrade
`
	crates := parseInstallList(out)
	require.Len(t, crates, 1)
	assert.Equal(t, []string{"cargo-add", "cargo-rm", "cargo-upgrade"}, crates[0].bins)
}

func TestParseInstallListExcludesLocalPathInstalls(t *testing.T) {
	out := `cargo-watch v8.5.2:
    cargo-watch
my-tool v0.1.0 (/home/user/src/my-tool):
    my-tool
    my-helper
ripgrep v14.1.0:
    rg
`
	crates := parseInstallList(out)
	require.Len(t, crates, 2)
	assert.Equal(t, "cargo-watch", crates[0].name)
	assert.Equal(t, "ripgrep", crates[1].name)
	// The local install's binaries must not leak into a neighboring record.
	assert.Equal(t, []string{"cargo-watch"}, crates[0].bins)
	assert.Equal(t, []string{"rg"}, crates[1].bins)
}

func TestParseInstallListEmpty(t *testing.T) {
	assert.Empty(t, parseInstallList(""))
}

func TestIsNewerVersion(t *testing.T) {
	assert.True(t, isNewerVersion("8.5.3", "8.5.2"))
	assert.False(t, isNewerVersion("8.5.2", "8.5.2"))
	assert.False(t, isNewerVersion("8.5.1", "8.5.2"))
	// Unparsable versions degrade to inequality.
	assert.True(t, isNewerVersion("nightly-2024", "8.5.2"))
	assert.False(t, isNewerVersion("", "8.5.2"))
}

func TestCargoListUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cargo-watch":
			w.Write([]byte(`{"crate":{"name":"cargo-watch","max_version":"8.5.3"}}`))
		case "/ripgrep":
			w.Write([]byte(`{"crate":{"name":"ripgrep","max_version":"14.1.0"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	prev := registry.GetCratesBaseURL()
	registry.SetCratesBaseURL(srv.URL)
	t.Cleanup(func() { registry.SetCratesBaseURL(prev) })

	fakeCommands(t, map[string]string{
		"cargo": `printf 'cargo-watch v8.5.2:\n    cargo-watch\nripgrep v14.1.0:\n    rg\n'`,
	})

	m := &cargoManager{}
	updates, err := m.ListUpdates(context.Background(), &config.Config{})
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "cargo-watch", updates[0].Name)
	assert.Equal(t, "8.5.2", updates[0].CurrentVersion)
	assert.Equal(t, "8.5.3", updates[0].NewVersion)
}

func TestCargoCurrentVersionNotInstalled(t *testing.T) {
	fakeCommands(t, map[string]string{"cargo": "true"})

	m := &cargoManager{}
	_, err := m.CurrentVersion(context.Background(), &config.Config{}, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}
