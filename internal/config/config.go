package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "novacheck"
	configFile = "config.yaml"

	// localFile is picked up from the working directory when present, so a
	// checkout can carry its own suite configuration.
	localFile = "novacheck.yaml"
)

// Environment variables recognized at load time.
const (
	// EnvConfigPath overrides where the configuration file is read from.
	EnvConfigPath = "NOVACHECK_CONFIG"
	// EnvEndpoint overrides compute.endpoint.
	EnvEndpoint = "NOVACHECK_ENDPOINT"
	// EnvToken overrides compute.token, keeping it out of the file.
	EnvToken = "NOVACHECK_TOKEN"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// Dir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/novacheck or $HOME/.config/novacheck
//   - macOS: $HOME/.config/novacheck (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\novacheck
func Dir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// DefaultPath returns the full path of the platform-default configuration
// file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// ResolvePath decides which configuration file to read: the explicit
// argument when nonempty, then $NOVACHECK_CONFIG, then ./novacheck.yaml when
// present, then the platform default.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	if _, err := os.Stat(localFile); err == nil {
		return localFile, nil
	}
	return DefaultPath()
}

// Load reads the configuration file resolved from path and applies the
// environment overrides. Values absent from the file keep their defaults. A
// missing file yields the defaults unless the path was requested explicitly.
// Call Validate before using the result against a cloud.
func Load(path string) (*Config, error) {
	explicit := path != ""
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	data, err := os.ReadFile(resolved)
	switch {
	case os.IsNotExist(err):
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", resolved)
		}
		applyEnv(cfg)
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", resolved, err)
	}

	if cfg.Version != ConfigVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, ConfigVersion)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv layers the environment overrides on top of the loaded values.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Compute.Endpoint = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Compute.Token = v
	}
}

// Save writes the configuration to path, or to the platform default when
// path is empty. Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# novacheck configuration file
#
# Points the suite at the compute API under test. The auth token does not
# have to live here: NOVACHECK_TOKEN overrides it, and the CLI prompts when
# neither is set.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// WriteExample writes a starter configuration with placeholder resource
// references to path, or to the platform default when path is empty.
func WriteExample(path string) error {
	cfg := Default()
	cfg.Compute.Endpoint = "http://controller:8774/v2.1"
	cfg.Compute.ImageRef = "change-me-image-uuid"
	cfg.Compute.FlavorRef = "1"
	cfg.Compute.FlavorRefAlt = "2"
	cfg.Volume.Endpoint = "http://controller:8776/v3/change-me-project-id"
	return cfg.Save(path)
}
