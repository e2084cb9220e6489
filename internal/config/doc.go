// Package config provides suite configuration for novacheck.
//
// This package manages a YAML configuration file describing the compute API
// under test: endpoint and token, image and flavor references, feature
// switches, waiter tunables, and console settings. Checks consult the feature
// switches to decide whether to run or skip.
//
// # Configuration File Location
//
// The file is resolved in order: an explicit --config path, the
// NOVACHECK_CONFIG environment variable, ./novacheck.yaml in the working
// directory, then the platform default:
//   - Linux: $XDG_CONFIG_HOME/novacheck/config.yaml or $HOME/.config/novacheck/config.yaml
//   - macOS: $HOME/.config/novacheck/config.yaml
//   - Windows: %LOCALAPPDATA%\novacheck\config.yaml
//
// A missing file yields the built-in defaults, so commands that do not touch
// the cloud work without any setup.
//
// # Security
//
// The auth token may be kept out of the file entirely: NOVACHECK_TOKEN
// overrides it at load time, and the CLI prompts when neither is set.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// Saves are atomic (temp file plus rename) and protected by a package mutex.
package config
