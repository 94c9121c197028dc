package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chorus/pkg/pathmatch"
	"github.com/papercomputeco/chorus/pkg/session"
)

var (
	trackReadToolName    = "track_read"
	trackReadDescription = "Register that an agent session has read a file. Captures an optimistic-concurrency snapshot of the file's content so a later write can be checked for staleness. Call this after every file read. Omit agent_id on the first call to be assigned a session."
)

// TrackReadInput represents the input arguments for the MCP track_read tool.
type TrackReadInput struct {
	Path    string `json:"path" jsonschema:"workspace-relative or absolute path of the file that was read"`
	AgentID string `json:"agent_id,omitempty" jsonschema:"agent session id; a new session is created when omitted"`
	Content string `json:"content,omitempty" jsonschema:"the content that was read; read from disk when omitted"`
}

// TrackReadOutput represents the structured output of a tracked read.
type TrackReadOutput struct {
	AgentID string `json:"agent_id"`
	Path    string `json:"path"`
	Tracked bool   `json:"tracked"`
}

// handleTrackRead registers a snapshot and bumps session activity.
func (s *Server) handleTrackRead(_ context.Context, _ *mcp.CallToolRequest, input TrackReadInput) (*mcp.CallToolResult, TrackReadOutput, error) {
	if input.Path == "" {
		return s.mistake("path is required"), TrackReadOutput{}, nil
	}

	agentID := input.AgentID
	if agentID == "" {
		agentID = session.NewID()
	}
	s.config.Sessions.Register(agentID, "")

	tracked := true
	if input.Content != "" {
		s.config.Snapshots.Capture(input.Path, input.Content, agentID)
	} else if err := s.config.Snapshots.CaptureFromDisk(input.Path, agentID); err != nil {
		// A read of a not-yet-existing file still counts as activity; there
		// is just no baseline to hold.
		s.config.Logger.Debug("no snapshot captured", "path", input.Path, "error", err)
		tracked = false
	}

	rel := pathmatch.Normalize(s.config.WorkspaceRoot, input.Path)
	s.config.Sessions.AddFile(agentID, rel)

	output := TrackReadOutput{
		AgentID: agentID,
		Path:    rel,
		Tracked: tracked,
	}
	return textResult(fmt.Sprintf("tracked read of %s for session %s", rel, agentID)), output, nil
}
