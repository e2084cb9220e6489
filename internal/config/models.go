package config

import (
	"fmt"
	"net/url"
	"time"
)

// ConfigVersion is the file format version this build reads and writes.
const ConfigVersion = 1

// Config is the root of the suite configuration file.
type Config struct {
	Version    int              `yaml:"version"`
	Compute    ComputeConfig    `yaml:"compute"`
	Features   FeaturesConfig   `yaml:"features"`
	Validation ValidationConfig `yaml:"validation"`
	Volume     VolumeConfig     `yaml:"volume"`
	Console    ConsoleConfig    `yaml:"console"`
}

// ComputeConfig points the suite at the compute API and carries the resource
// references and pacing used when provisioning servers.
type ComputeConfig struct {
	Endpoint           string  `yaml:"endpoint"`             // Base URL, e.g. http://controller:8774/v2.1
	Token              string  `yaml:"token,omitempty"`      // Auth token; NOVACHECK_TOKEN overrides
	ImageRef           string  `yaml:"image_ref"`            // Image for provisioned servers
	FlavorRef          string  `yaml:"flavor_ref"`           // Primary flavor
	FlavorRefAlt       string  `yaml:"flavor_ref_alt"`       // Resize target flavor
	BuildTimeout       int     `yaml:"build_timeout"`        // Seconds to wait for a status transition
	BuildInterval      int     `yaml:"build_interval"`       // Seconds between status polls
	ShelvedOffloadTime int     `yaml:"shelved_offload_time"` // Cloud's auto-offload delay in seconds; negative means never
	RequestRate        float64 `yaml:"request_rate"`         // API requests per second
	MaxRetries         int     `yaml:"max_retries"`          // Retries for retryable API failures
}

// FeaturesConfig mirrors what the cloud under test actually supports.
// Checks skip rather than fail when their feature is off.
type FeaturesConfig struct {
	Resize                         bool `yaml:"resize"`
	Suspend                        bool `yaml:"suspend"`
	Shelve                         bool `yaml:"shelve"`
	LiveMigration                  bool `yaml:"live_migration"`
	BlockMigrationForLiveMigration bool `yaml:"block_migration_for_live_migration"`
	SerialConsole                  bool `yaml:"serial_console"`
}

// ValidationConfig names the pre-provisioned resources used to make servers
// reachable. The suite attaches them; it never creates them.
type ValidationConfig struct {
	RunValidation bool   `yaml:"run_validation"`
	ConnectMethod string `yaml:"connect_method"` // "floating" or "fixed"
	ImageSSHUser  string `yaml:"image_ssh_user"`
	KeypairName   string `yaml:"keypair_name,omitempty"`
	SecurityGroup string `yaml:"security_group,omitempty"`
	FloatingIP    string `yaml:"floating_ip,omitempty"` // Address to associate when connect_method is floating
}

// VolumeConfig points the suite at block storage for volume-backed servers.
type VolumeConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"` // Block storage base URL incl. project path; empty skips volume-backed checks
	SizeGB   int    `yaml:"size_gb"`            // Bootable volume size in gigabytes
}

// ConsoleConfig tunes the serial console client.
type ConsoleConfig struct {
	Timeout int    `yaml:"timeout"`       // Per-operation I/O deadline in seconds; 0 blocks indefinitely
	URL     string `yaml:"url,omitempty"` // Fixed console URL; skips provisioning when set
}

// Default returns a Config with the suite defaults. Endpoint, token and the
// image/flavor references have no usable defaults and stay empty.
func Default() *Config {
	return &Config{
		Version: ConfigVersion,
		Compute: ComputeConfig{
			BuildTimeout:       300,
			BuildInterval:      1,
			ShelvedOffloadTime: 0,
			RequestRate:        10,
			MaxRetries:         3,
		},
		Features: FeaturesConfig{
			Resize:        false,
			Suspend:       true,
			Shelve:        true,
			LiveMigration: false,
			SerialConsole: false,
		},
		Validation: ValidationConfig{
			RunValidation: false,
			ConnectMethod: "floating",
			ImageSSHUser:  "root",
		},
		Volume:  VolumeConfig{SizeGB: 1},
		Console: ConsoleConfig{Timeout: 10},
	}
}

// Validate reports the first structural problem with the configuration.
// Feature-specific requirements (an alt flavor for resize, for example) are
// judged by the individual checks, which skip instead of failing.
func (c *Config) Validate() error {
	if c.Compute.Endpoint == "" {
		return fmt.Errorf("compute.endpoint is required")
	}
	u, err := url.Parse(c.Compute.Endpoint)
	if err != nil {
		return fmt.Errorf("compute.endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("compute.endpoint: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("compute.endpoint: missing host")
	}

	if c.Compute.BuildTimeout <= 0 {
		return fmt.Errorf("compute.build_timeout must be positive, got %d", c.Compute.BuildTimeout)
	}
	if c.Compute.BuildInterval <= 0 {
		return fmt.Errorf("compute.build_interval must be positive, got %d", c.Compute.BuildInterval)
	}
	if c.Compute.RequestRate <= 0 {
		return fmt.Errorf("compute.request_rate must be positive, got %v", c.Compute.RequestRate)
	}
	if c.Compute.MaxRetries < 0 {
		return fmt.Errorf("compute.max_retries must not be negative, got %d", c.Compute.MaxRetries)
	}

	if c.Validation.RunValidation {
		switch c.Validation.ConnectMethod {
		case "floating", "fixed":
		default:
			return fmt.Errorf("validation.connect_method must be \"floating\" or \"fixed\", got %q",
				c.Validation.ConnectMethod)
		}
	}

	if c.Volume.SizeGB < 1 {
		return fmt.Errorf("volume.size_gb must be at least 1, got %d", c.Volume.SizeGB)
	}
	if c.Console.Timeout < 0 {
		return fmt.Errorf("console.timeout must not be negative, got %d", c.Console.Timeout)
	}
	return nil
}

// BuildTimeoutDuration returns the waiter budget as a Duration.
func (c ComputeConfig) BuildTimeoutDuration() time.Duration {
	return time.Duration(c.BuildTimeout) * time.Second
}

// BuildIntervalDuration returns the poll interval as a Duration.
func (c ComputeConfig) BuildIntervalDuration() time.Duration {
	return time.Duration(c.BuildInterval) * time.Second
}

// TimeoutDuration returns the console I/O deadline as a Duration.
func (c ConsoleConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
