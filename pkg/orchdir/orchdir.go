// Package orchdir manages the .orchestration/ directory inside a workspace.
//
// Every durable artifact of the middleware lives under this directory: the
// append-only trace ledger, the intent map, the shared lessons file, the
// intent catalog input, and the local configuration.
package orchdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the orchestration directory.
	DirName = ".orchestration"

	// TraceFile is the append-only JSONL trace ledger.
	TraceFile = "agent_trace.jsonl"

	// IntentMapFile is the derived intent → files markdown map.
	IntentMapFile = "intent_map.md"

	// LessonsFile is the shared lessons markdown document.
	LessonsFile = "CLAUDE.md"

	// IntentsFile is the read-only intent catalog input.
	IntentsFile = "active_intents.yaml"

	// ConfigFile is the local chorus configuration.
	ConfigFile = "config.toml"
)

// Dir returns the orchestration directory path for a workspace root without
// creating it.
func Dir(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, DirName)
}

// Ensure creates the orchestration directory if needed and returns its path.
func Ensure(workspaceRoot string) (string, error) {
	dir := Dir(workspaceRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating orchestration directory %s: %w", dir, err)
	}
	return dir, nil
}

// TracePath returns the path of the trace ledger for a workspace.
func TracePath(workspaceRoot string) string {
	return filepath.Join(Dir(workspaceRoot), TraceFile)
}

// IntentMapPath returns the path of the intent map for a workspace.
func IntentMapPath(workspaceRoot string) string {
	return filepath.Join(Dir(workspaceRoot), IntentMapFile)
}

// LessonsPath returns the path of the lessons document for a workspace.
func LessonsPath(workspaceRoot string) string {
	return filepath.Join(Dir(workspaceRoot), LessonsFile)
}

// IntentsPath returns the path of the intent catalog for a workspace.
func IntentsPath(workspaceRoot string) string {
	return filepath.Join(Dir(workspaceRoot), IntentsFile)
}

// ConfigPath returns the path of the local config file for a workspace.
func ConfigPath(workspaceRoot string) string {
	return filepath.Join(Dir(workspaceRoot), ConfigFile)
}
