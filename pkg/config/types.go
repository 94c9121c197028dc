package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent chorus configuration stored as
// config.toml in the .orchestration/ directory. The TOML layout uses
// sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Server    ServerConfig    `toml:"server"`
	Snapshots SnapshotsConfig `toml:"snapshots"`
	Sessions  SessionsConfig  `toml:"sessions"`
	Revision  RevisionConfig  `toml:"revision"`
}

// WorkspaceConfig anchors the middleware to a source tree.
type WorkspaceConfig struct {
	Root string `toml:"root,omitempty"`
}

// ServerConfig holds the combined REST + MCP server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// SnapshotsConfig holds optimistic-concurrency timing values.
type SnapshotsConfig struct {
	TTLSeconds   uint `toml:"ttl_seconds,omitempty"`
	SweepSeconds uint `toml:"sweep_seconds,omitempty"`
}

// TTL returns the snapshot TTL as a duration.
func (c SnapshotsConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SweepInterval returns the sweeper cadence as a duration.
func (c SnapshotsConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// SessionsConfig holds session lifecycle timing values.
type SessionsConfig struct {
	TTLSeconds   uint `toml:"ttl_seconds,omitempty"`
	SweepSeconds uint `toml:"sweep_seconds,omitempty"`
}

// TTL returns the session TTL as a duration.
func (c SessionsConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SweepInterval returns the sweeper cadence as a duration.
func (c SessionsConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// RevisionConfig holds revision probe settings.
type RevisionConfig struct {
	CacheTTLSeconds uint `toml:"cache_ttl_seconds,omitempty"`
}

// CacheTTL returns the revision cache TTL as a duration.
func (c RevisionConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on
// *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"workspace.root": {
		get: func(c *Config) string { return c.Workspace.Root },
		set: func(c *Config, v string) error { c.Workspace.Root = v; return nil },
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"snapshots.ttl_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Snapshots.TTLSeconds), 10) },
		set: func(c *Config, v string) error { return setUint(&c.Snapshots.TTLSeconds, v) },
	},
	"snapshots.sweep_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Snapshots.SweepSeconds), 10) },
		set: func(c *Config, v string) error { return setUint(&c.Snapshots.SweepSeconds, v) },
	},
	"sessions.ttl_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Sessions.TTLSeconds), 10) },
		set: func(c *Config, v string) error { return setUint(&c.Sessions.TTLSeconds, v) },
	},
	"sessions.sweep_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Sessions.SweepSeconds), 10) },
		set: func(c *Config, v string) error { return setUint(&c.Sessions.SweepSeconds, v) },
	},
	"revision.cache_ttl_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Revision.CacheTTLSeconds), 10) },
		set: func(c *Config, v string) error { return setUint(&c.Revision.CacheTTLSeconds, v) },
	},
}

func setUint(target *uint, v string) error {
	parsed, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fmt.Errorf("expected a non-negative integer, got %q", v)
	}
	*target = uint(parsed)
	return nil
}
