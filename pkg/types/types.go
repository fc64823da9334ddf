package types

// ManagerKind identifies one of the supported package manager backends. It is
// a closed set: adding a backend means adding a constant here and a case to
// every dispatch switch in pkg/pkgmgr.
type ManagerKind string

const (
	Dnf      ManagerKind = "dnf"
	Flatpak  ManagerKind = "flatpak"
	Homebrew ManagerKind = "homebrew"
	Cargo    ManagerKind = "cargo"
	GoBin    ManagerKind = "go"
)

// AllSystemManagers lists the kinds that manage OS-level packages. At most one
// of these is active in a Config at a time.
var AllSystemManagers = []ManagerKind{Dnf}

// AllAppManagers lists the application-level kinds, in detection order.
var AllAppManagers = []ManagerKind{Flatpak, Homebrew, Cargo, GoBin}

// AllManagers is the full closed set, system manager first.
var AllManagers = []ManagerKind{Dnf, Flatpak, Homebrew, Cargo, GoBin}

// DisplayName returns the human-facing name of the manager.
func (k ManagerKind) DisplayName() string {
	switch k {
	case Dnf:
		return "DNF"
	case Flatpak:
		return "Flatpak"
	case Homebrew:
		return "Homebrew"
	case Cargo:
		return "Cargo"
	case GoBin:
		return "Go"
	}
	return string(k)
}

// Description returns a one-line description of what the manager covers.
func (k ManagerKind) Description() string {
	switch k {
	case Dnf:
		return "Fedora/RHEL system package manager"
	case Flatpak:
		return "cross-platform sandboxed application manager"
	case Homebrew:
		return "macOS/Linux package manager"
	case Cargo:
		return "package manager for the Rust toolchain"
	case GoBin:
		return "package manager for the Go toolchain"
	}
	return ""
}

// Command returns the default executable name the backend invokes when no
// custom path is configured.
func (k ManagerKind) Command() string {
	switch k {
	case Dnf:
		return "dnf"
	case Flatpak:
		return "flatpak"
	case Homebrew:
		return "brew"
	case Cargo:
		return "cargo"
	case GoBin:
		return "go"
	}
	return string(k)
}

// IsSystemManager reports whether the kind manages OS-level packages.
func (k ManagerKind) IsSystemManager() bool {
	return k == Dnf
}

// PackageInfo describes one unit of installed or discoverable software.
// Instances are constructed fresh on every query and never mutated in place.
type PackageInfo struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Source  ManagerKind `json:"source"`
	// Optional metadata; absent values stay empty/zero rather than erroring.
	Description string `json:"description,omitempty"`
	Size        uint64 `json:"size,omitempty"`
	InstallDate string `json:"installDate,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
}

// PackageUpdate is a pending version transition for one package under one
// backend. CurrentVersion and NewVersion differ whenever a backend reports an
// update; backends filter out false positives before returning.
type PackageUpdate struct {
	Name           string `json:"name"`
	CurrentVersion string `json:"currentVersion"`
	NewVersion     string `json:"newVersion"`
}
