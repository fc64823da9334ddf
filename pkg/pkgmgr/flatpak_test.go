package pkgmgr

import (
	"context"
	"testing"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	assert.Equal(t, "45.2 (stable)", versionString("45.2", "stable"))
	assert.Equal(t, "branch: beta", versionString("", "beta"))
}

func TestParseInstalledColumns(t *testing.T) {
	out := `Application ID       Version   Branch
org.mozilla.firefox  128.0     stable
org.gnome.Builder    stable
com.example.Bare
`
	info := parseInstalledColumns(out)
	require.Len(t, info, 3)
	assert.Equal(t, versionBranch{version: "128.0", branch: "stable"}, info["org.mozilla.firefox"])
	assert.Equal(t, versionBranch{branch: "stable"}, info["org.gnome.Builder"])
	assert.Equal(t, versionBranch{branch: "unknown"}, info["com.example.Bare"])
}

func TestParseFlatpakSearch(t *testing.T) {
	out := "Name\tDescription\tApplication ID\tVersion\tBranch\tRemotes\n" +
		"Firefox\tFast browser\torg.mozilla.firefox\t128.0\tstable\tflathub\n" +
		"Builder\tIDE\torg.gnome.Builder\tunknown\tstable\tflathub\n"
	packages := parseFlatpakSearch(out)
	require.Len(t, packages, 2)
	assert.Equal(t, "org.mozilla.firefox", packages[0].Name)
	assert.Equal(t, "128.0", packages[0].Version)
	assert.Equal(t, "org.gnome.Builder", packages[1].Name)
	assert.Empty(t, packages[1].Version)
}

func TestFlatpakListInstalled(t *testing.T) {
	fakeCommands(t, map[string]string{
		"flatpak": `printf 'Application ID\tName\tVersion\tBranch\tSize\tOrigin\n` +
			`org.mozilla.firefox\tFirefox\t128.0\tstable\t256 MB\tflathub\n` +
			`org.gnome.Builder\tBuilder\t\t\t1 GB\tflathub\n'`,
	})

	m := &flatpakManager{}
	packages, err := m.ListInstalled(context.Background(), &config.Config{})
	require.NoError(t, err)
	require.Len(t, packages, 2)

	assert.Equal(t, "org.mozilla.firefox", packages[0].Name)
	assert.Equal(t, "128.0 (stable)", packages[0].Version)
	assert.Equal(t, "Firefox", packages[0].Description)
	assert.Equal(t, uint64(256*1024*1024), packages[0].Size)

	// Missing version and branch degrade to the stable branch marker.
	assert.Equal(t, "branch: stable", packages[1].Version)
}

func TestFlatpakListUpdatesJoinsInstalledVersions(t *testing.T) {
	fakeCommands(t, map[string]string{
		"flatpak": `case "$2" in
--updates) printf 'org.mozilla.firefox\t129.0\tstable\norg.example.New\t\t\n' ;;
*) printf 'Application ID\tVersion\tBranch\norg.mozilla.firefox 128.0 stable\n' ;;
esac`,
	})

	m := &flatpakManager{}
	updates, err := m.ListUpdates(context.Background(), &config.Config{})
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, "org.mozilla.firefox", updates[0].Name)
	assert.Equal(t, "128.0 (stable)", updates[0].CurrentVersion)
	assert.Equal(t, "129.0 (stable)", updates[0].NewVersion)

	// Not present in the installed listing.
	assert.Equal(t, "unknown", updates[1].CurrentVersion)
}

func TestFlatpakCurrentVersionMissingPackage(t *testing.T) {
	fakeCommands(t, map[string]string{"flatpak": "exit 1"})

	m := &flatpakManager{}
	_, err := m.CurrentVersion(context.Background(), &config.Config{}, "org.example.Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
