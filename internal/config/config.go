package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the multiping command configuration.
type Config struct {
	Targets            []string      `yaml:"targets"`
	Timeout            time.Duration `yaml:"timeout"`
	Retry              int           `yaml:"retry"`
	Delay              time.Duration `yaml:"delay"`
	IgnoreLookupErrors bool          `yaml:"ignore_lookup_errors"`
	StrictReplies      bool          `yaml:"strict_replies"`
	PayloadSize        uint          `yaml:"payload_size"`
	Interval           time.Duration `yaml:"interval"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Timeout:     time.Second,
		PayloadSize: 8,
		Interval:    time.Second,
	}
}

// DefaultPath returns the default config file path:
// <user config dir>/multiping/config.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "multiping.yaml")
	}
	return filepath.Join(dir, "multiping", "config.yaml")
}

// Load reads the configuration from the given YAML file path.
// If the file does not exist, it returns Default() with no error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
