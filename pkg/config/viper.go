package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/chorus/pkg/orchdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the workspace's
// config.toml (if present), and binds environment variables with the
// CHORUS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CHORUS_SERVER_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(workspaceRoot string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery inside the orchestration directory.
	v.SetConfigName("config")
	v.SetConfigType("toml")
	if workspaceRoot != "" {
		v.AddConfigPath(orchdir.Dir(workspaceRoot))
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: CHORUS_SERVER_LISTEN, CHORUS_SNAPSHOTS_TTL_SECONDS, etc.
	v.SetEnvPrefix("CHORUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of
// truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Workspace
	v.SetDefault("workspace.root", d.Workspace.Root)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)

	// Snapshots
	v.SetDefault("snapshots.ttl_seconds", d.Snapshots.TTLSeconds)
	v.SetDefault("snapshots.sweep_seconds", d.Snapshots.SweepSeconds)

	// Sessions
	v.SetDefault("sessions.ttl_seconds", d.Sessions.TTLSeconds)
	v.SetDefault("sessions.sweep_seconds", d.Sessions.SweepSeconds)

	// Revision probe
	v.SetDefault("revision.cache_ttl_seconds", d.Revision.CacheTTLSeconds)
}
