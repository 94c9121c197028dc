package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/session"
)

var (
	selectIntentToolName    = "select_active_intent"
	selectIntentDescription = "Bind an intent from the active intent catalog to the agent session. Must be called before any write tool; subsequent guard_write and record_write calls default to this intent."
)

// SelectIntentInput represents the input arguments for the MCP
// select_active_intent tool.
type SelectIntentInput struct {
	IntentID string `json:"intent_id" jsonschema:"id of the intent to activate, as declared in active_intents.yaml"`
	AgentID  string `json:"agent_id,omitempty" jsonschema:"agent session id; a new session is created when omitted"`
}

// SelectIntentOutput represents the structured output of an intent selection.
type SelectIntentOutput struct {
	AgentID    string   `json:"agent_id"`
	IntentID   string   `json:"intent_id"`
	Name       string   `json:"name,omitempty"`
	OwnedScope []string `json:"owned_scope"`
}

// handleSelectIntent validates the intent and binds it to the session.
func (s *Server) handleSelectIntent(_ context.Context, _ *mcp.CallToolRequest, input SelectIntentInput) (*mcp.CallToolResult, SelectIntentOutput, error) {
	if input.IntentID == "" {
		return s.mistake("intent_id is required"), SelectIntentOutput{}, nil
	}

	it, err := s.config.Catalog.FindByID(s.config.WorkspaceRoot, input.IntentID)
	if err != nil {
		if errors.Is(err, intent.ErrNotFound) {
			return errorResult(fmt.Sprintf("intent not found: '%s' is not declared in the active intent catalog", input.IntentID)), SelectIntentOutput{}, nil
		}
		return errorResult(fmt.Sprintf("intent catalog unavailable: %v", err)), SelectIntentOutput{}, nil
	}

	agentID := input.AgentID
	if agentID == "" {
		agentID = session.NewID()
	}
	s.config.Sessions.BindIntent(agentID, it.ID)

	output := SelectIntentOutput{
		AgentID:    agentID,
		IntentID:   it.ID,
		Name:       it.Name,
		OwnedScope: it.OwnedScope,
	}
	return textResult(fmt.Sprintf("intent %s (%s) selected for session %s", it.ID, it.Name, agentID)), output, nil
}
