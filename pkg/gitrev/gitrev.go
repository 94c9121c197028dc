// Package gitrev resolves the current git revision of a workspace.
//
// The probe never fails: any error class (not a repository, git binary
// missing, permission denied, non-zero exit, timeout) collapses to
// [RevisionUnknown]. Results are cached per workspace root for a short TTL
// to avoid spawning git on every trace append under burst load.
package gitrev

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// RevisionUnknown is returned whenever the revision cannot be resolved.
const RevisionUnknown = "unknown"

const (
	// DefaultCacheTTL bounds how long a resolved revision is reused.
	DefaultCacheTTL = 5 * time.Second

	// probeTimeout bounds the git subprocess.
	probeTimeout = 5 * time.Second
)

type cacheEntry struct {
	revision string
	probedAt time.Time
}

// Probe resolves git revisions with a process-local TTL cache.
// Separate workspace roots have independent cache entries.
type Probe struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time

	// run is swappable for tests.
	run func(workspaceRoot string) (string, error)
}

// Option configures a Probe.
type Option func(*Probe)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(p *Probe) { p.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Probe) { p.now = now }
}

// WithRunner overrides the subprocess invocation. Test seam.
func WithRunner(run func(workspaceRoot string) (string, error)) Option {
	return func(p *Probe) { p.run = run }
}

// NewProbe creates a revision probe.
func NewProbe(opts ...Option) *Probe {
	p := &Probe{
		entries: make(map[string]cacheEntry),
		ttl:     DefaultCacheTTL,
		now:     time.Now,
		run:     runGit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CurrentRevision returns the current revision id for the workspace, or
// [RevisionUnknown]. It never returns an error.
func (p *Probe) CurrentRevision(workspaceRoot string) string {
	p.mu.Lock()
	if e, ok := p.entries[workspaceRoot]; ok && p.now().Sub(e.probedAt) < p.ttl {
		p.mu.Unlock()
		return e.revision
	}
	p.mu.Unlock()

	revision, err := p.run(workspaceRoot)
	if err != nil || revision == "" {
		revision = RevisionUnknown
	}

	p.mu.Lock()
	p.entries[workspaceRoot] = cacheEntry{revision: revision, probedAt: p.now()}
	p.mu.Unlock()

	return revision
}

// Invalidate drops all cached revisions.
func (p *Probe) Invalidate() {
	p.mu.Lock()
	p.entries = make(map[string]cacheEntry)
	p.mu.Unlock()
}

// runGit executes "git rev-parse HEAD" in the workspace root.
func runGit(workspaceRoot string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = workspaceRoot

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
