// Package config manages chorus configuration: a config.toml inside the
// workspace's .orchestration/ directory, layered under environment variables
// and CLI flags via viper.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/chorus/pkg/orchdir"
)

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// Configer loads and saves the per-workspace config file.
type Configer struct {
	targetPath string
}

// NewConfiger creates a Configer for the workspace root. The orchestration
// directory is created if missing so SaveConfig always has a target.
func NewConfiger(workspaceRoot string) (*Configer, error) {
	if _, err := orchdir.Ensure(workspaceRoot); err != nil {
		return nil, err
	}
	return &Configer{targetPath: orchdir.ConfigPath(workspaceRoot)}, nil
}

// GetTarget returns the resolved config file path.
func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml. If the file does not
// exist, returns NewDefaultConfig() so callers always receive a
// fully-populated Config. Fields explicitly set in the file override the
// defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// ParseConfigTOML decodes a raw TOML document into a Config.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from
// NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaults.Server.Listen
	}

	if cfg.Snapshots.TTLSeconds == 0 {
		cfg.Snapshots.TTLSeconds = defaults.Snapshots.TTLSeconds
	}
	if cfg.Snapshots.SweepSeconds == 0 {
		cfg.Snapshots.SweepSeconds = defaults.Snapshots.SweepSeconds
	}

	if cfg.Sessions.TTLSeconds == 0 {
		cfg.Sessions.TTLSeconds = defaults.Sessions.TTLSeconds
	}
	if cfg.Sessions.SweepSeconds == 0 {
		cfg.Sessions.SweepSeconds = defaults.Sessions.SweepSeconds
	}

	if cfg.Revision.CacheTTLSeconds == 0 {
		cfg.Revision.CacheTTLSeconds = defaults.Revision.CacheTTLSeconds
	}
}

// SaveConfig persists the configuration to config.toml.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the value for the given key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	return info.get(cfg), nil
}

// ValidConfigKeys returns the sorted list of all supported configuration key
// names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsValidConfigKey returns true if the given key is a supported
// configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}
