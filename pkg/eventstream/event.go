// Package eventstream defines transport-neutral events emitted after ledger
// appends, for downstream consumers that want to react to accepted writes
// without tailing the JSONL file.
package eventstream

import (
	"time"

	"github.com/papercomputeco/chorus/pkg/mutation"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeWriteAccepted is emitted after a write's trace entry is
	// appended to the ledger.
	EventTypeWriteAccepted = "chorus.write.accepted"
)

// WriteAcceptedEvent is the payload for one accepted, traced write.
type WriteAcceptedEvent struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	EventID       string         `json:"event_id"`
	EmittedAt     time.Time      `json:"emitted_at"`
	WorkspaceRoot string         `json:"workspace_root"`
	IntentID      string         `json:"intent_id"`
	AgentID       string         `json:"agent_id,omitempty"`
	Path          string         `json:"path"`
	MutationClass mutation.Class `json:"mutation_class"`
	RevisionID    string         `json:"revision_id"`
	TraceID       string         `json:"trace_id"`
}
