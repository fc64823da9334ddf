package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/omnipm/omnipm/pkg/types"
	"github.com/omnipm/omnipm/pkg/utils"
	log "github.com/sirupsen/logrus"
)

const (
	configDirName  = "omnipm"
	configFileName = "config.json"
)

// ManagerConfig is the persisted per-backend entry. An empty CustomPath means
// the backend's default command name is resolved via PATH.
type ManagerConfig struct {
	ManagerType types.ManagerKind `json:"managerType"`
	CustomPath  string            `json:"customPath,omitempty"`
}

// Config aggregates the configured managers. It is treated as an immutable
// value by every backend operation; only the configuration front end mutates
// it and writes it back to disk.
type Config struct {
	SystemManager *ManagerConfig  `json:"systemManager,omitempty"`
	AppManagers   []ManagerConfig `json:"appManagers"`
	// GoBinDir overrides the Go binary directory used by the Go backend,
	// which has no package manifest of its own.
	GoBinDir string `json:"goBinDir,omitempty"`
}

// DefaultPath returns the platform-conventional location of the config file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", types.WrapError(types.UnknownError, err, "could not determine config directory")
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// Load reads the config from its default path, or detects available managers
// and persists the result when no file exists yet.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from path. A missing file triggers PATH detection
// and an immediate save of the detected result.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debugf("no config at %s, detecting package managers", path)
		cfg := Detect()
		if err := cfg.SaveTo(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, types.WrapError(types.CommandError, err, "reading config file")
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, types.WrapError(types.SerializationError, err, "decoding config file")
	}
	return &cfg, nil
}

// Detect probes PATH for every known manager's default command and builds a
// config of whatever is present. At most one system manager is selected.
func Detect() *Config {
	cfg := &Config{}

	for _, kind := range types.AllSystemManagers {
		if utils.CommandAvailable(kind.Command()) {
			log.Debugf("detected system manager %s", kind)
			cfg.SystemManager = &ManagerConfig{ManagerType: kind}
			break
		}
	}

	for _, kind := range types.AllAppManagers {
		if utils.CommandAvailable(kind.Command()) {
			log.Debugf("detected application manager %s", kind)
			cfg.AppManagers = append(cfg.AppManagers, ManagerConfig{ManagerType: kind})
		}
	}

	return cfg
}

// Save writes the config to its default path.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config as indented JSON, creating parent directories.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return types.WrapError(types.SerializationError, err, "encoding config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.WrapError(types.CommandError, err, "creating config directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return types.WrapError(types.CommandError, err, "writing config file")
	}
	return nil
}

// ReloadFrom replaces the receiver with the on-disk state when a file exists;
// a missing file leaves the receiver untouched.
func (c *Config) ReloadFrom(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return types.WrapError(types.CommandError, err, "reading config file")
	}
	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return types.WrapError(types.SerializationError, err, "decoding config file")
	}
	*c = loaded
	return nil
}

// CustomPath returns the configured custom executable path for kind, or ""
// when the default command name should be used.
func (c *Config) CustomPath(kind types.ManagerKind) string {
	if c.SystemManager != nil && c.SystemManager.ManagerType == kind {
		return c.SystemManager.CustomPath
	}
	for _, mgr := range c.AppManagers {
		if mgr.ManagerType == kind {
			return mgr.CustomPath
		}
	}
	return ""
}

// ExecutablePath resolves the effective executable for kind: the custom path
// when configured, else the kind's default command name (resolved via PATH at
// spawn time).
func (c *Config) ExecutablePath(kind types.ManagerKind) string {
	if path := c.CustomPath(kind); path != "" {
		return path
	}
	return kind.Command()
}

// Managers returns the configured kinds in order, system manager first.
func (c *Config) Managers() []types.ManagerKind {
	var kinds []types.ManagerKind
	if c.SystemManager != nil {
		kinds = append(kinds, c.SystemManager.ManagerType)
	}
	for _, mgr := range c.AppManagers {
		kinds = append(kinds, mgr.ManagerType)
	}
	return kinds
}

// GoBinDirectory resolves the Go binary directory: the explicit override,
// else GOBIN, else GOPATH/bin, else ~/go/bin.
func (c *Config) GoBinDirectory() string {
	if c.GoBinDir != "" {
		return c.GoBinDir
	}
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		return gobin
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		return filepath.Join(gopath, "bin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("go", "bin")
	}
	return filepath.Join(home, "go", "bin")
}
