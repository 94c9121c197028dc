// Package recorder turns committed writes into ledger rows.
//
// Record runs after the surrounding runtime has performed the actual file
// I/O. It is an infallible facade: every failure inside it is swallowed and
// logged so ledger-layer trouble never surfaces into the tool result. The
// trace append happens before the intent map update; if the map update then
// fails, the trace remains the source of truth and the next successful write
// for the same intent repairs the map.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chorus/pkg/eventstream"
	"github.com/papercomputeco/chorus/pkg/gitrev"
	"github.com/papercomputeco/chorus/pkg/hashutil"
	"github.com/papercomputeco/chorus/pkg/intentmap"
	"github.com/papercomputeco/chorus/pkg/mutation"
	"github.com/papercomputeco/chorus/pkg/pathmatch"
	"github.com/papercomputeco/chorus/pkg/snapshot"
	"github.com/papercomputeco/chorus/pkg/trace"
)

// Write describes one committed mutation to be traced.
type Write struct {
	WorkspaceRoot string

	// Path is the written file, absolute or workspace-relative.
	Path string

	// Content is the post-write content.
	Content string

	// OldContent is the pre-write content when the caller had it. Nil means
	// unknown (e.g. first write), which defaults the class to AST_REFACTOR.
	OldContent *string

	// IntentID binds the write to an intent. Empty leaves no trace.
	IntentID string

	// IntentName labels the intent map section. Optional.
	IntentName string

	// ExplicitClass overrides classification when it names a known class.
	ExplicitClass string

	// AgentID releases the snapshot after recording. Optional.
	AgentID string

	// SessionID becomes the conversation url. Optional.
	SessionID string

	// Model identifies the contributing model. Optional.
	Model string
}

// Recorder builds trace entries and applies the post-write bookkeeping.
type Recorder struct {
	ledger    *trace.Ledger
	intentMap *intentmap.Writer
	snapshots *snapshot.Store
	probe     *gitrev.Probe
	publisher eventstream.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithPublisher emits a write-accepted event after each recorded write.
func WithPublisher(p eventstream.Publisher) Option {
	return func(r *Recorder) { r.publisher = p }
}

// WithClock overrides the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// New creates a recorder.
func New(ledger *trace.Ledger, intentMap *intentmap.Writer, snapshots *snapshot.Store, probe *gitrev.Probe, logger *slog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		ledger:    ledger,
		intentMap: intentMap,
		snapshots: snapshots,
		probe:     probe,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends the trace entry, updates the intent map, and releases the
// write's snapshot. It never fails; errors are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, w Write) {
	// Writes without an intent leave no trace.
	if w.IntentID == "" {
		return
	}

	if err := r.record(ctx, w); err != nil {
		r.logger.Error("post-write recording failed", "path", w.Path, "intent", w.IntentID, "error", err)
	}
}

func (r *Recorder) record(ctx context.Context, w Write) error {
	rel := pathmatch.Normalize(w.WorkspaceRoot, w.Path)
	revision := r.probe.CurrentRevision(w.WorkspaceRoot)
	class := r.resolveClass(w)

	// A single trailing newline does not count as an extra (empty) line, so a
	// one-line file hashes as its one line.
	lineCount := len(strings.Split(strings.TrimSuffix(w.Content, "\n"), "\n"))
	if lineCount < 1 {
		lineCount = 1
	}
	rangeHash := hashutil.Prefix + hashutil.DigestRange(w.Content, 1, lineCount)

	url := w.SessionID
	if url == "" {
		url = "session://" + r.now().UTC().Format(time.RFC3339)
	}
	model := w.Model
	if model == "" {
		model = "unknown"
	}

	entry := &trace.Entry{
		ID:        trace.NewEntryID(),
		Timestamp: trace.FormatTimestamp(r.now()),
		VCS:       trace.VCS{RevisionID: revision},
		Files: []trace.File{{
			RelativePath: rel,
			Conversations: []trace.Conversation{{
				URL: url,
				Contributor: trace.Contributor{
					EntityType:      trace.EntityAI,
					ModelIdentifier: model,
				},
				Ranges: []trace.Range{{
					StartLine:   1,
					EndLine:     lineCount,
					ContentHash: rangeHash,
				}},
				Related: []trace.Related{{
					Type:  trace.RelatedSpecification,
					Value: w.IntentID,
				}},
			}},
		}},
		MutationClass: class,
	}

	if err := r.ledger.Append(w.WorkspaceRoot, entry); err != nil {
		return fmt.Errorf("appending trace: %w", err)
	}

	if err := r.intentMap.Upsert(w.WorkspaceRoot, w.IntentID, rel, w.IntentName); err != nil {
		// The trace row is already durable; the map repairs on the next write.
		r.logger.Warn("intent map update failed after trace append", "path", rel, "intent", w.IntentID, "error", err)
	}

	if w.AgentID != "" {
		r.snapshots.Release(w.Path, w.AgentID)
	}

	r.publish(ctx, w, rel, revision, class, entry.ID)
	return nil
}

// resolveClass prefers the explicit class, then classification against the
// old content, then the documented first-write default.
func (r *Recorder) resolveClass(w Write) mutation.Class {
	if c := mutation.Class(w.ExplicitClass); c.Valid() {
		return c
	}
	if w.OldContent != nil {
		return mutation.Classify(*w.OldContent, w.Content)
	}
	return mutation.ClassASTRefactor
}

func (r *Recorder) publish(ctx context.Context, w Write, rel, revision string, class mutation.Class, traceID string) {
	if r.publisher == nil {
		return
	}

	event := &eventstream.WriteAcceptedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeWriteAccepted,
		EventID:       uuid.NewString(),
		EmittedAt:     r.now(),
		WorkspaceRoot: w.WorkspaceRoot,
		IntentID:      w.IntentID,
		AgentID:       w.AgentID,
		Path:          rel,
		MutationClass: class,
		RevisionID:    revision,
		TraceID:       traceID,
	}
	if err := r.publisher.PublishWrite(ctx, event); err != nil {
		r.logger.Warn("write event publish failed", "path", rel, "error", err)
	}
}
