package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// cannot drift between commands.
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag. Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to.
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of registry keys to Flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagListen        = "listen"
	FlagWorkspace     = "workspace"
	FlagSnapshotTTL   = "snapshot-ttl"
	FlagSnapshotSweep = "snapshot-sweep"
	FlagSessionTTL    = "session-ttl"
	FlagSessionSweep  = "session-sweep"
)

// DefaultFlagSet returns the standard chorus flag registry.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagListen: {
			Name:        "listen",
			Shorthand:   "l",
			ViperKey:    "server.listen",
			Description: "Address for the chorus server to listen on",
		},
		FlagWorkspace: {
			Name:        "workspace",
			Shorthand:   "w",
			ViperKey:    "workspace.root",
			Description: "Workspace root containing the .orchestration/ directory",
		},
		FlagSnapshotTTL: {
			Name:        "snapshot-ttl",
			ViperKey:    "snapshots.ttl_seconds",
			Description: "Seconds a file snapshot stays valid without release",
		},
		FlagSnapshotSweep: {
			Name:        "snapshot-sweep",
			ViperKey:    "snapshots.sweep_seconds",
			Description: "Seconds between snapshot sweeper runs",
		},
		FlagSessionTTL: {
			Name:        "session-ttl",
			ViperKey:    "sessions.ttl_seconds",
			Description: "Seconds an idle agent session survives",
		},
		FlagSessionSweep: {
			Name:        "session-sweep",
			ViperKey:    "sessions.sweep_seconds",
			Description: "Seconds between session sweeper runs",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *string) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using
// definitions from the given FlagSet. Call this in PreRunE after InitViper
// to connect flags to the viper precedence chain
// (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from
// NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from
// NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
