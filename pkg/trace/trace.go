// Package trace defines the trace entry schema and the append-only JSONL
// ledger that records who changed what, for which intent, under which
// revision.
package trace

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chorus/pkg/mutation"
)

// EntityType identifies the kind of contributor behind a change.
type EntityType string

const (
	EntityAI    EntityType = "AI"
	EntityHuman EntityType = "HUMAN"
)

// RelatedType identifies what a related resource points at.
type RelatedType string

const (
	RelatedSpecification RelatedType = "specification"
	RelatedRequirement   RelatedType = "requirement"
	RelatedIssue         RelatedType = "issue"
	RelatedTask          RelatedType = "task"
)

// Entry is one ledger row: a single accepted mutation bound to an intent.
type Entry struct {
	ID            string         `json:"id" validate:"required,len=32,hexadecimal"`
	Timestamp     string         `json:"timestamp" validate:"required"`
	VCS           VCS            `json:"vcs"`
	Files         []File         `json:"files" validate:"required,min=1,dive"`
	MutationClass mutation.Class `json:"mutation_class" validate:"required,oneof=AST_REFACTOR INTENT_EVOLUTION BUG_FIX DOCUMENTATION"`
}

// VCS carries the source-control context of the entry.
type VCS struct {
	RevisionID string `json:"revision_id" validate:"required"`
}

// File describes one mutated file and the conversations that produced it.
type File struct {
	RelativePath  string         `json:"relative_path" validate:"required"`
	Conversations []Conversation `json:"conversations" validate:"dive"`
}

// Conversation attributes a set of line ranges to a contributor.
type Conversation struct {
	URL         string      `json:"url"`
	Contributor Contributor `json:"contributor"`
	Ranges      []Range     `json:"ranges" validate:"dive"`
	Related     []Related   `json:"related" validate:"dive"`
}

// Contributor describes who produced the change.
type Contributor struct {
	EntityType      EntityType `json:"entity_type" validate:"required,oneof=AI HUMAN"`
	ModelIdentifier string     `json:"model_identifier,omitempty"`
}

// Range is a 1-based inclusive line range with its content digest.
type Range struct {
	StartLine   int    `json:"start_line" validate:"gte=1"`
	EndLine     int    `json:"end_line" validate:"gtefield=StartLine"`
	ContentHash string `json:"content_hash" validate:"required,content_hash"`
}

// Related links the conversation to an external unit of work.
type Related struct {
	Type  RelatedType `json:"type" validate:"required,oneof=specification requirement issue task"`
	Value string      `json:"value" validate:"required"`
}

// NewEntryID returns a v4-style random 128-bit id as 32 lowercase hex
// characters.
func NewEntryID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// FormatTimestamp renders t as ISO-8601 UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
