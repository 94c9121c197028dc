package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chorus/pkg/gatekeeper"
	"github.com/papercomputeco/chorus/pkg/pathmatch"
	"github.com/papercomputeco/chorus/pkg/recorder"
)

var (
	guardWriteToolName    = "guard_write"
	guardWriteDescription = "Validate a pending file write before performing it: optimistic staleness check against the session's snapshot, then intent presence, existence, and owned-scope enforcement. Returns a verdict; a blocked verdict names the reason and whether a retry can succeed."

	recordWriteToolName    = "record_write"
	recordWriteDescription = "Record a committed file write in the trace ledger and the intent map, then release the session's snapshot of the file. Call this after the write has succeeded on disk. Writes without a bound intent leave no trace."
)

// GuardWriteInput represents the input arguments for the MCP guard_write tool.
type GuardWriteInput struct {
	Path     string `json:"path" jsonschema:"workspace-relative or absolute path of the file about to be written"`
	AgentID  string `json:"agent_id,omitempty" jsonschema:"agent session id; enables the staleness check"`
	IntentID string `json:"intent_id,omitempty" jsonschema:"intent to cite; defaults to the session's selected intent"`
}

// GuardWriteOutput represents the structured verdict of a guard check.
type GuardWriteOutput struct {
	Blocked     bool   `json:"blocked"`
	Code        string `json:"code,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"`
}

// handleGuardWrite runs the gatekeeper pipeline for a pending write.
func (s *Server) handleGuardWrite(_ context.Context, _ *mcp.CallToolRequest, input GuardWriteInput) (*mcp.CallToolResult, GuardWriteOutput, error) {
	if input.Path == "" {
		return s.mistake("path is required"), GuardWriteOutput{}, nil
	}

	if input.AgentID != "" {
		s.config.Sessions.Touch(input.AgentID)
	}

	intentID := input.IntentID
	if intentID == "" && input.AgentID != "" {
		intentID, _ = s.config.Sessions.IntentFor(input.AgentID)
	}

	verdict := s.config.Gatekeeper.Check(input.Path, gatekeeper.Context{
		IntentID:      intentID,
		WorkspaceRoot: s.config.WorkspaceRoot,
		AgentID:       input.AgentID,
	})

	output := GuardWriteOutput{
		Blocked:     verdict.Blocked,
		Code:        string(verdict.Code),
		Reason:      verdict.Reason,
		Recoverable: verdict.Recoverable,
	}

	if verdict.Blocked {
		return errorResult(verdict.Reason), output, nil
	}
	return textResult(fmt.Sprintf("write to %s allowed under intent %s", input.Path, intentID)), output, nil
}

// RecordWriteInput represents the input arguments for the MCP record_write tool.
type RecordWriteInput struct {
	Path          string `json:"path" jsonschema:"workspace-relative or absolute path of the written file"`
	Content       string `json:"content" jsonschema:"the post-write file content"`
	OldContent    string `json:"old_content,omitempty" jsonschema:"the pre-write content, when known; improves mutation classification"`
	HasOldContent bool   `json:"has_old_content,omitempty" jsonschema:"set true when old_content is supplied, so an empty previous file is distinguishable from an unknown one"`
	MutationClass string `json:"mutation_class,omitempty" jsonschema:"explicit mutation class; one of AST_REFACTOR, INTENT_EVOLUTION, BUG_FIX, DOCUMENTATION"`
	Model         string `json:"model,omitempty" jsonschema:"identifier of the contributing model"`
	AgentID       string `json:"agent_id,omitempty" jsonschema:"agent session id; releases the snapshot and resolves the intent"`
	IntentID      string `json:"intent_id,omitempty" jsonschema:"intent to record against; defaults to the session's selected intent"`
}

// RecordWriteOutput represents the structured output of a recorded write.
type RecordWriteOutput struct {
	Recorded bool   `json:"recorded"`
	Path     string `json:"path"`
	IntentID string `json:"intent_id,omitempty"`
}

// handleRecordWrite invokes the post-write recorder.
func (s *Server) handleRecordWrite(ctx context.Context, _ *mcp.CallToolRequest, input RecordWriteInput) (*mcp.CallToolResult, RecordWriteOutput, error) {
	if input.Path == "" {
		return s.mistake("path is required"), RecordWriteOutput{}, nil
	}

	if input.AgentID != "" {
		s.config.Sessions.Touch(input.AgentID)
	}

	intentID := input.IntentID
	if intentID == "" && input.AgentID != "" {
		intentID, _ = s.config.Sessions.IntentFor(input.AgentID)
	}

	rel := pathmatch.Normalize(s.config.WorkspaceRoot, input.Path)
	if intentID == "" {
		return textResult(fmt.Sprintf("write to %s left untraced: no intent bound", rel)),
			RecordWriteOutput{Recorded: false, Path: rel}, nil
	}

	var intentName string
	if it, ok := s.config.Catalog.GetCached(intentID); ok {
		intentName = it.Name
	} else if it, err := s.config.Catalog.FindByID(s.config.WorkspaceRoot, intentID); err == nil {
		intentName = it.Name
	}

	var oldContent *string
	if input.HasOldContent || input.OldContent != "" {
		oldContent = &input.OldContent
	}

	s.config.Recorder.Record(ctx, recorder.Write{
		WorkspaceRoot: s.config.WorkspaceRoot,
		Path:          input.Path,
		Content:       input.Content,
		OldContent:    oldContent,
		IntentID:      intentID,
		IntentName:    intentName,
		ExplicitClass: input.MutationClass,
		AgentID:       input.AgentID,
		SessionID:     input.AgentID,
		Model:         input.Model,
	})

	output := RecordWriteOutput{
		Recorded: true,
		Path:     rel,
		IntentID: intentID,
	}
	return textResult(fmt.Sprintf("write to %s recorded under intent %s", rel, intentID)), output, nil
}
