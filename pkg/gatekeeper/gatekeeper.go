// Package gatekeeper is the pre-write enforcement pipeline.
//
// Every write flows through Check before the runtime touches disk:
// optimistic verification against the snapshot baseline, then intent
// presence, existence, and scope. The first failing step short-circuits.
// The gatekeeper returns a structured verdict rather than an error; its
// verdicts are the only thing that blocks a user-initiated write.
package gatekeeper

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/chorus/pkg/intent"
	"github.com/papercomputeco/chorus/pkg/pathmatch"
	"github.com/papercomputeco/chorus/pkg/snapshot"
)

// Code identifies why a write was blocked.
type Code string

const (
	CodeStaleFile      Code = "STALE_FILE"
	CodeNoActiveIntent Code = "NO_ACTIVE_INTENT"
	CodeIntentNotFound Code = "INTENT_NOT_FOUND"
	CodeNoOwnedScope   Code = "NO_OWNED_SCOPE"
	CodeScopeViolation Code = "SCOPE_VIOLATION"
)

// Verdict is the outcome of a gatekeeper check.
type Verdict struct {
	Blocked     bool   `json:"blocked"`
	Code        Code   `json:"code,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"`
}

// Context carries the write's provenance into the check.
type Context struct {
	// IntentID is the intent the write cites. Empty means no intent bound.
	IntentID string

	// WorkspaceRoot anchors path normalisation and catalog lookups.
	WorkspaceRoot string

	// OwnedScope, when non-empty, is a cached scope that skips the catalog
	// lookup.
	OwnedScope []string

	// AgentID enables the optimistic check. Empty skips it.
	AgentID string
}

// Gatekeeper validates writes against snapshots and intent scope.
// It is deterministic and idempotent: repeated invocation with the same
// state yields the same verdict. A call reads the target file for the
// snapshot verification and, when no cached scope is supplied, also reads
// the intent catalog file.
type Gatekeeper struct {
	snapshots *snapshot.Store
	catalog   *intent.Catalog
	logger    *slog.Logger
}

// New creates a gatekeeper.
func New(snapshots *snapshot.Store, catalog *intent.Catalog, logger *slog.Logger) *Gatekeeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gatekeeper{
		snapshots: snapshots,
		catalog:   catalog,
		logger:    logger,
	}
}

// Check runs the enforcement pipeline for a pending write to path.
func (g *Gatekeeper) Check(path string, gctx Context) Verdict {
	rel := pathmatch.Normalize(gctx.WorkspaceRoot, path)

	// 1. Optimistic check. Verification I/O failure does not block; the
	// underlying write will surface a real error on its own.
	if gctx.AgentID != "" {
		ok, err := g.snapshots.Verify(path, gctx.AgentID)
		if err != nil {
			g.logger.Warn("snapshot verification failed, not blocking", "path", rel, "holder", gctx.AgentID, "error", err)
		} else if !ok {
			return Verdict{
				Blocked:     true,
				Code:        CodeStaleFile,
				Reason:      fmt.Sprintf("stale file: '%s' changed since session %s last read it; re-read the file and retry", rel, gctx.AgentID),
				Recoverable: true,
			}
		}
	}

	// 2. Intent presence.
	if gctx.IntentID == "" {
		return Verdict{
			Blocked: true,
			Code:    CodeNoActiveIntent,
			Reason:  "write blocked: must cite a valid active intent; select an intent first",
		}
	}

	// 3. + 4. Intent existence and scope presence. A cached scope skips the
	// catalog read.
	name := gctx.IntentID
	scope := gctx.OwnedScope
	if len(scope) == 0 {
		it, err := g.catalog.FindByID(gctx.WorkspaceRoot, gctx.IntentID)
		if err != nil {
			if errors.Is(err, intent.ErrNotFound) {
				return Verdict{
					Blocked: true,
					Code:    CodeIntentNotFound,
					Reason:  fmt.Sprintf("intent not found: '%s' is not declared in the active intent catalog", gctx.IntentID),
				}
			}
			g.logger.Warn("intent catalog unreadable", "intent", gctx.IntentID, "error", err)
			return Verdict{
				Blocked: true,
				Code:    CodeIntentNotFound,
				Reason:  fmt.Sprintf("intent not found: catalog for '%s' could not be read", gctx.IntentID),
			}
		}
		name = displayName(it)
		scope = it.OwnedScope
	} else if it, ok := g.catalog.GetCached(gctx.IntentID); ok {
		name = displayName(it)
	}

	if len(scope) == 0 {
		return Verdict{
			Blocked: true,
			Code:    CodeNoOwnedScope,
			Reason:  fmt.Sprintf("intent '%s' has no owned_scope; declare one in the intent catalog", gctx.IntentID),
		}
	}

	// 5. Scope match.
	if !pathmatch.MatchesAny(path, scope, gctx.WorkspaceRoot) {
		return Verdict{
			Blocked: true,
			Code:    CodeScopeViolation,
			Reason:  fmt.Sprintf("scope violation: intent '%s' (%s) is not authorised to edit '%s'", name, gctx.IntentID, rel),
		}
	}

	return Verdict{}
}

func displayName(it *intent.Intent) string {
	if it.Name != "" {
		return it.Name
	}
	return it.ID
}
